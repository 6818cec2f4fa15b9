package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TemplateRepository reads stored notification templates.
type TemplateRepository interface {
	GetActive(ctx context.Context, eventType string) (*domain.NotificationTemplate, error)
}

type templateRepository struct {
	pool *pgxpool.Pool
}

func NewTemplateRepository(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepository{pool: pool}
}

func (r *templateRepository) GetActive(ctx context.Context, eventType string) (*domain.NotificationTemplate, error) {
	const query = `
        SELECT id, event_type, subject, body, is_active, updated_at
        FROM notification_templates WHERE event_type=$1 AND is_active`
	var tpl domain.NotificationTemplate
	if err := r.pool.QueryRow(ctx, query, eventType).Scan(
		&tpl.ID,
		&tpl.EventType,
		&tpl.Subject,
		&tpl.Body,
		&tpl.IsActive,
		&tpl.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tpl, nil
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// SLAConfigRepository reads the priority → duration table.
type SLAConfigRepository interface {
	List(ctx context.Context) ([]domain.SLAConfig, error)
}

type slaConfigRepository struct {
	pool *pgxpool.Pool
}

func NewSLAConfigRepository(pool *pgxpool.Pool) SLAConfigRepository {
	return &slaConfigRepository{pool: pool}
}

func (r *slaConfigRepository) List(ctx context.Context) ([]domain.SLAConfig, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, priority, duration_hrs, is_active FROM sla_configs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAConfig
	for rows.Next() {
		var cfg domain.SLAConfig
		if err := rows.Scan(&cfg.ID, &cfg.Priority, &cfg.DurationHrs, &cfg.IsActive); err != nil {
			return nil, err
		}
		result = append(result, cfg)
	}
	return result, rows.Err()
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AttachmentRepository reads attachment metadata. Attachments are written
// together with their ticket or message.
type AttachmentRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
	ListByMessage(ctx context.Context, messageID string) ([]domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	return listAttachments(ctx, r.pool, `WHERE ticket_id=$1`, ticketID)
}

func (r *attachmentRepository) ListByMessage(ctx context.Context, messageID string) ([]domain.Attachment, error) {
	return listAttachments(ctx, r.pool, `WHERE message_id=$1`, messageID)
}

func insertAttachment(ctx context.Context, q querier, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (id, ticket_id, message_id, file_name, file_key, file_url, file_size, file_type, uploaded_by, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := q.Exec(ctx, query,
		attachment.ID,
		attachment.TicketID,
		attachment.MessageID,
		attachment.FileName,
		attachment.FileKey,
		attachment.FileURL,
		attachment.FileSize,
		attachment.FileType,
		attachment.UploadedBy,
		attachment.CreatedAt,
	)
	return err
}

func listAttachments(ctx context.Context, q querier, where string, args ...any) ([]domain.Attachment, error) {
	query := `
        SELECT id, ticket_id, message_id, file_name, file_key, file_url, file_size, file_type, uploaded_by, created_at
        FROM attachments ` + where + ` ORDER BY created_at ASC`
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketID,
			&attachment.MessageID,
			&attachment.FileName,
			&attachment.FileKey,
			&attachment.FileURL,
			&attachment.FileSize,
			&attachment.FileType,
			&attachment.UploadedBy,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}

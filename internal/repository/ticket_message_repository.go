package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketMessageRepository manages replies and internal notes.
type TicketMessageRepository interface {
	Create(ctx context.Context, msg *domain.TicketMessage) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error)
}

type ticketMessageRepository struct {
	pool *pgxpool.Pool
}

// NewTicketMessageRepository builds repository.
func NewTicketMessageRepository(pool *pgxpool.Pool) TicketMessageRepository {
	return &ticketMessageRepository{pool: pool}
}

func (r *ticketMessageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	const query = `
        INSERT INTO ticket_messages (id, ticket_id, author_type, author_id, author_name, message_type, content, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query,
			msg.ID,
			msg.TicketID,
			msg.AuthorType,
			msg.AuthorID,
			msg.AuthorName,
			msg.MessageType,
			msg.Content,
			msg.CreatedAt,
		); err != nil {
			return err
		}
		for i := range msg.Attachments {
			if err := insertAttachment(ctx, tx, &msg.Attachments[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	const query = `
        SELECT id, ticket_id, author_type, author_id, author_name, message_type, content, created_at
        FROM ticket_messages WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketMessage
	index := map[string]int{}
	for rows.Next() {
		var msg domain.TicketMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.AuthorType,
			&msg.AuthorID,
			&msg.AuthorName,
			&msg.MessageType,
			&msg.Content,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		index[msg.ID] = len(result)
		result = append(result, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	attachments, err := listAttachments(ctx, r.pool, `WHERE ticket_id=$1 AND message_id IS NOT NULL`, ticketID)
	if err != nil {
		return nil, err
	}
	for _, att := range attachments {
		if i, ok := index[*att.MessageID]; ok {
			result[i].Attachments = append(result[i].Attachments, att)
		}
	}
	return result, nil
}

// SplitMessages separates a thread into replies and notes.
func SplitMessages(messages []domain.TicketMessage) (replies, notes []domain.TicketMessage) {
	for _, msg := range messages {
		if msg.MessageType == domain.MessageTypeNote {
			notes = append(notes, msg)
			continue
		}
		replies = append(replies, msg)
	}
	return replies, notes
}

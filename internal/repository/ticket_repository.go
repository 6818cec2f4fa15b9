package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// ErrDuplicateTicketNumber is returned by Create when the ticket number is
// already taken.
var ErrDuplicateTicketNumber = errors.New("ticket number already exists")

const ticketNumberConstraint = "tickets_ticket_number_key"

// TicketFilter captures ticket search parameters.
type TicketFilter struct {
	AssigneeID *string
	// OwnerID matches tickets the agent created or is assigned to.
	OwnerID    *string
	LevelID    *string
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	SearchTerm *string
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes ticket only while the stored updated_at still equals
	// expectedUpdatedAt.
	Update(ctx context.Context, ticket *domain.Ticket, expectedUpdatedAt time.Time) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `
        t.id, t.ticket_number, t.category_id, COALESCE(c.name, ''), t.priority, t.source, t.status, t.level_id,
        t.due_date, t.due_date_overridden, t.created_at, t.updated_at, t.resolved_at, t.closed_at,
        t.customer_name, t.customer_email, t.customer_phone, t.customer_company, t.assignee_id,
        t.created_by_id, t.subject, t.description`

const ticketFrom = ` FROM tickets t LEFT JOIN categories c ON c.id = t.category_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, ticket_number, category_id, priority, source, status, level_id, due_date,
            due_date_overridden, customer_name, customer_email, customer_phone, customer_company, assignee_id,
            created_by_id, subject, description, created_at, updated_at, resolved_at, closed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query,
			ticket.ID,
			ticket.TicketNumber,
			nullIfEmpty(ticket.CategoryID),
			ticket.Priority,
			ticket.Source,
			ticket.Status,
			ticket.LevelID,
			ticket.DueDate,
			ticket.DueDateOverridden,
			ticket.CustomerName,
			ticket.CustomerEmail,
			ticket.CustomerPhone,
			ticket.CustomerCompany,
			ticket.AssigneeID,
			nullIfEmpty(ticket.CreatedByID),
			ticket.Subject,
			ticket.Description,
			ticket.CreatedAt,
			ticket.UpdatedAt,
			ticket.ResolvedAt,
			ticket.ClosedAt,
		); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == ticketNumberConstraint {
				return ErrDuplicateTicketNumber
			}
			return err
		}
		for i := range ticket.Attachments {
			if err := insertAttachment(ctx, tx, &ticket.Attachments[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket, expectedUpdatedAt time.Time) error {
	const query = `
        UPDATE tickets SET category_id=$1, priority=$2, status=$3, level_id=$4, due_date=$5, due_date_overridden=$6,
            assignee_id=$7, subject=$8, description=$9, updated_at=$10, resolved_at=$11, closed_at=$12
        WHERE id=$13 AND updated_at=$14`
	cmd, err := r.pool.Exec(ctx, query,
		nullIfEmpty(ticket.CategoryID),
		ticket.Priority,
		ticket.Status,
		ticket.LevelID,
		ticket.DueDate,
		ticket.DueDateOverridden,
		ticket.AssigneeID,
		ticket.Subject,
		ticket.Description,
		ticket.UpdatedAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
		expectedUpdatedAt,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return apperrors.NewConcurrentModification("ticket", map[string]any{"ticket_id": ticket.ID})
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT`+ticketColumns+ticketFrom+` WHERE t.id=$1`, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT`+ticketColumns+ticketFrom+` WHERE t.ticket_number=$1`, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	attachments, err := listAttachments(ctx, r.pool, `WHERE ticket_id=$1 AND message_id IS NULL`, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.Attachments = attachments
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("t.assignee_id=$%d", len(args)))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("(t.assignee_id=$%d OR t.created_by_id=$%d)", len(args), len(args)))
	}
	if filter.LevelID != nil {
		args = append(args, *filter.LevelID)
		clauses = append(clauses, fmt.Sprintf("t.level_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		idx := len(args)
		clauses = append(clauses, fmt.Sprintf("(LOWER(t.subject) LIKE $%d OR LOWER(t.ticket_number) LIKE $%d OR LOWER(t.customer_email) LIKE $%d)", idx, idx, idx))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT%s%s WHERE %s ORDER BY t.created_at DESC LIMIT $%d OFFSET $%d`,
		ticketColumns, ticketFrom, strings.Join(clauses, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket     domain.Ticket
		categoryID *string
		createdBy  *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&categoryID,
		&ticket.CategoryName,
		&ticket.Priority,
		&ticket.Source,
		&ticket.Status,
		&ticket.LevelID,
		&ticket.DueDate,
		&ticket.DueDateOverridden,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.CustomerName,
		&ticket.CustomerEmail,
		&ticket.CustomerPhone,
		&ticket.CustomerCompany,
		&ticket.AssigneeID,
		&createdBy,
		&ticket.Subject,
		&ticket.Description,
	); err != nil {
		return nil, err
	}
	if categoryID != nil {
		ticket.CategoryID = *categoryID
	}
	if createdBy != nil {
		ticket.CreatedByID = *createdBy
	}
	return &ticket, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

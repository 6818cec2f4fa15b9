package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// LevelRepository reads and deletes escalation levels.
type LevelRepository interface {
	List(ctx context.Context) ([]domain.EscalationLevel, error)
	GetByID(ctx context.Context, id string) (*domain.EscalationLevel, error)
	// CountReferences returns how many tickets and agents point at the level.
	CountReferences(ctx context.Context, id string) (tickets int, agents int, err error)
	Delete(ctx context.Context, id string) error
}

type levelRepository struct {
	pool *pgxpool.Pool
}

// NewLevelRepository builds repository.
func NewLevelRepository(pool *pgxpool.Pool) LevelRepository {
	return &levelRepository{pool: pool}
}

// Capability flags are stored as one boolean column each, in this order.
var levelCapabilityColumns = []domain.Capability{
	domain.CapViewOwnTickets,
	domain.CapViewTeamTickets,
	domain.CapViewAllTickets,
	domain.CapCreateTicket,
	domain.CapAssignTicket,
	domain.CapEscalateTicket,
	domain.CapResolveTicket,
	domain.CapCloseTicket,
}

const levelColumns = `
        id, code, name, sort_order, can_view_own_tickets, can_view_team_tickets, can_view_all_tickets,
        can_create_ticket, can_assign_ticket, can_escalate_ticket, can_resolve_ticket, can_close_ticket,
        is_active, created_at, updated_at`

func (r *levelRepository) List(ctx context.Context) ([]domain.EscalationLevel, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+levelColumns+` FROM escalation_levels ORDER BY sort_order ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EscalationLevel
	for rows.Next() {
		level, err := scanLevel(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *level)
	}
	return result, rows.Err()
}

func (r *levelRepository) GetByID(ctx context.Context, id string) (*domain.EscalationLevel, error) {
	return scanLevel(r.pool.QueryRow(ctx, `SELECT`+levelColumns+` FROM escalation_levels WHERE id=$1`, id))
}

func (r *levelRepository) CountReferences(ctx context.Context, id string) (int, int, error) {
	const query = `
        SELECT (SELECT COUNT(*) FROM tickets WHERE level_id=$1), (SELECT COUNT(*) FROM agents WHERE level_id=$1)`
	var tickets, agents int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&tickets, &agents); err != nil {
		return 0, 0, err
	}
	return tickets, agents, nil
}

func (r *levelRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM escalation_levels WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanLevel(row pgx.Row) (*domain.EscalationLevel, error) {
	var (
		level domain.EscalationLevel
		flags = make([]bool, len(levelCapabilityColumns))
	)
	dest := []any{&level.ID, &level.Code, &level.Name, &level.SortOrder}
	for i := range flags {
		dest = append(dest, &flags[i])
	}
	dest = append(dest, &level.IsActive, &level.CreatedAt, &level.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	level.Capabilities = capabilitiesFromFlags(flags)
	return &level, nil
}

func capabilitiesFromFlags(flags []bool) domain.CapabilitySet {
	var set domain.CapabilitySet
	for i, granted := range flags {
		if granted {
			set = set.With(levelCapabilityColumns[i])
		}
	}
	return set
}

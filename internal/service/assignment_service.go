package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AssignmentService handles assignment and escalation.
type AssignmentService struct {
	store  *ticketStore
	engine *lifecycle.Engine
	agents repository.AgentRepository
	levels repository.LevelRepository
}

// NewAssignmentService creates the service from the same dependency set as
// the ticket service.
func NewAssignmentService(deps TicketDependencies) *AssignmentService {
	if deps.Engine == nil {
		deps.Engine = lifecycle.NewEngine()
	}
	return &AssignmentService{
		store:  newTicketStore(deps.TicketRepo, deps.MessageRepo, deps.HistoryRepo, deps.Locker, deps.Dispatcher, deps.Metrics, deps.Logger),
		engine: deps.Engine,
		agents: deps.AgentRepo,
		levels: deps.LevelRepo,
	}
}

// Assign sets the ticket's assignee, or clears it when assigneeID is nil
// or blank. The assignee must be an active agent.
func (s *AssignmentService) Assign(ctx context.Context, actor lifecycle.Actor, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	var assignee *domain.Agent
	if assigneeID != nil && strings.TrimSpace(*assigneeID) != "" {
		if err := lifecycle.Authorize(actor, domain.CapAssignTicket, "assign tickets"); err != nil {
			return nil, err
		}
		agent, err := activeAgent(ctx, s.agents, strings.TrimSpace(*assigneeID))
		if err != nil {
			return nil, err
		}
		assignee = agent
	}

	return s.store.mutate(ctx, ticketID, actor, func(ticket *domain.Ticket) (*domain.Ticket, *events.Event, error) {
		out, event, err := s.engine.Assign(ticket, assigneeID, actor)
		if err != nil {
			return nil, nil, err
		}
		if event != nil && event.Assignment != nil {
			event.Assignment.Assignee = assignee
		}
		return out, event, nil
	})
}

// Escalate moves the ticket to the next active level.
func (s *AssignmentService) Escalate(ctx context.Context, actor lifecycle.Actor, ticketID string) (*domain.Ticket, error) {
	levels, err := s.levels.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.store.mutate(ctx, ticketID, actor, func(ticket *domain.Ticket) (*domain.Ticket, *events.Event, error) {
		return s.engine.Escalate(ticket, actor, levels)
	})
}

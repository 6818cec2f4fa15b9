package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	store       *ticketStore
	engine      *lifecycle.Engine
	levels      repository.LevelRepository
	slaConfigs  repository.SLAConfigRepository
	agents      repository.AgentRepository
	attachments repository.AttachmentRepository
	categories  repository.CategoryRepository
	rules       *config.Rules
}

// TicketDependencies bundles collaborators for the ticket and assignment
// services.
type TicketDependencies struct {
	Engine         *lifecycle.Engine
	TicketRepo     repository.TicketRepository
	MessageRepo    repository.TicketMessageRepository
	HistoryRepo    repository.TicketHistoryRepository
	AttachmentRepo repository.AttachmentRepository
	LevelRepo      repository.LevelRepository
	SLARepo        repository.SLAConfigRepository
	AgentRepo      repository.AgentRepository
	CategoryRepo   repository.CategoryRepository
	Rules          *config.Rules
	Locker         Locker
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// TicketListFilter describes listing filters supplied by the caller. The
// visibility scope is added from the actor.
type TicketListFilter struct {
	AssigneeID *string
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	SearchTerm *string
	Limit      int
	Offset     int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	if deps.Engine == nil {
		deps.Engine = lifecycle.NewEngine()
	}
	if deps.Rules == nil {
		deps.Rules = config.DefaultRules()
	}
	return &TicketService{
		store:       newTicketStore(deps.TicketRepo, deps.MessageRepo, deps.HistoryRepo, deps.Locker, deps.Dispatcher, deps.Metrics, deps.Logger),
		engine:      deps.Engine,
		levels:      deps.LevelRepo,
		slaConfigs:  deps.SLARepo,
		agents:      deps.AgentRepo,
		attachments: deps.AttachmentRepo,
		categories:  deps.CategoryRepo,
		rules:       deps.Rules,
	}
}

// CreateTicket opens a ticket and publishes the created notification.
func (s *TicketService) CreateTicket(ctx context.Context, actor lifecycle.Actor, input lifecycle.TicketInput) (*domain.Ticket, error) {
	levels, err := s.levels.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	configs, err := loadSLAConfigs(ctx, s.slaConfigs, s.rules)
	if err != nil {
		return nil, err
	}
	if input.CategoryID = strings.TrimSpace(input.CategoryID); input.CategoryID != "" && s.categories != nil {
		category, err := activeCategory(ctx, s.categories, input.CategoryID)
		if err != nil {
			return nil, err
		}
		input.CategoryName = category.Name
	}

	ticket, event, err := s.engine.CreateTicket(input, actor, configs, levels)
	if err != nil {
		return nil, err
	}
	if ticket.AssigneeID != nil {
		if _, err := activeAgent(ctx, s.agents, *ticket.AssigneeID); err != nil {
			return nil, err
		}
	}
	if err := s.store.create(ctx, ticket, event, actor); err != nil {
		return nil, err
	}
	return ticket, nil
}

// GetTicket loads a ticket with its replies and notes.
func (s *TicketService) GetTicket(ctx context.Context, actor lifecycle.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.visibleTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	messages, err := s.store.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Replies, ticket.Notes = repository.SplitMessages(messages)
	return ticket, nil
}

// TrackTicket is the customer-facing lookup by ticket number. Internal
// notes are never returned.
func (s *TicketService) TrackTicket(ctx context.Context, ticketNumber string) (*domain.Ticket, error) {
	ticket, err := s.store.tickets.GetByNumber(ctx, strings.TrimSpace(ticketNumber))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": ticketNumber})
		}
		return nil, apperrors.MapError(err)
	}
	messages, err := s.store.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Replies, _ = repository.SplitMessages(messages)
	ticket.Notes = nil
	return ticket, nil
}

// AddCustomerReply records a reply sent by the ticket's customer from the
// tracking page. A mismatched email is reported as not found.
func (s *TicketService) AddCustomerReply(ctx context.Context, ticketNumber, email string, input lifecycle.MessageInput) (*domain.TicketMessage, error) {
	tracked, err := s.TrackTicket(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(tracked.CustomerEmail, strings.TrimSpace(email)) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": ticketNumber})
	}
	ticket, err := s.store.apply(ctx, tracked.ID, lifecycle.Actor{}, func(ticket *domain.Ticket) (*domain.Ticket, *events.Event, error) {
		return s.engine.AddCustomerReply(ticket, input)
	})
	if err != nil {
		return nil, err
	}
	reply := ticket.Replies[len(ticket.Replies)-1]
	return &reply, nil
}

// ListTickets returns the tickets the actor may see.
func (s *TicketService) ListTickets(ctx context.Context, actor lifecycle.Actor, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		AssigneeID: filter.AssigneeID,
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	switch {
	case lifecycle.HasCapability(actor, domain.CapViewAllTickets):
	case lifecycle.HasCapability(actor, domain.CapViewTeamTickets):
		levelID := actor.Level.ID
		repoFilter.LevelID = &levelID
	case lifecycle.HasCapability(actor, domain.CapViewOwnTickets):
		repoFilter.OwnerID = actor.AgentID()
	default:
		return nil, apperrors.NewForbidden("insufficient permission to list tickets", map[string]any{"required": "view"})
	}

	tickets, err := s.store.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetSLA evaluates the ticket's SLA state at the engine clock.
func (s *TicketService) GetSLA(ctx context.Context, actor lifecycle.Actor, ticketID string) (*domain.Ticket, lifecycle.SLAReport, error) {
	ticket, err := s.visibleTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, lifecycle.SLAReport{}, err
	}
	return ticket, lifecycle.EvaluateSLA(ticket, s.rules.ThresholdTable(), s.engine.Now()), nil
}

// ChangeStatus moves the ticket along a lifecycle edge. The note is kept as
// the resolution note when the target is resolved.
func (s *TicketService) ChangeStatus(ctx context.Context, actor lifecycle.Actor, ticketID string, status domain.TicketStatus, note string) (*domain.Ticket, error) {
	return s.store.mutate(ctx, ticketID, actor, func(ticket *domain.Ticket) (*domain.Ticket, *events.Event, error) {
		if status == domain.TicketStatusResolved {
			return s.engine.Resolve(ticket, note, actor)
		}
		return s.engine.ApplyTransition(ticket, status, actor)
	})
}

// ChangePriority updates the priority. History only, no notification.
func (s *TicketService) ChangePriority(ctx context.Context, actor lifecycle.Actor, ticketID string, priority domain.TicketPriority) (*domain.Ticket, error) {
	configs, err := loadSLAConfigs(ctx, s.slaConfigs, s.rules)
	if err != nil {
		return nil, err
	}
	return s.store.mutate(ctx, ticketID, actor, func(ticket *domain.Ticket) (*domain.Ticket, *events.Event, error) {
		out, err := s.engine.ChangePriority(ticket, priority, actor, configs)
		return out, nil, err
	})
}

// SetDueDate overrides the deadline; nil restores the computed one.
func (s *TicketService) SetDueDate(ctx context.Context, actor lifecycle.Actor, ticketID string, due *time.Time) (*domain.Ticket, error) {
	configs, err := loadSLAConfigs(ctx, s.slaConfigs, s.rules)
	if err != nil {
		return nil, err
	}
	return s.store.mutate(ctx, ticketID, actor, func(ticket *domain.Ticket) (*domain.Ticket, *events.Event, error) {
		out, err := s.engine.SetDueDate(ticket, due, actor, configs)
		return out, nil, err
	})
}

// AddReply appends a customer-visible reply and returns it.
func (s *TicketService) AddReply(ctx context.Context, actor lifecycle.Actor, ticketID string, input lifecycle.MessageInput) (*domain.TicketMessage, error) {
	ticket, err := s.store.mutate(ctx, ticketID, actor, func(ticket *domain.Ticket) (*domain.Ticket, *events.Event, error) {
		return s.engine.AddReply(ticket, input, actor)
	})
	if err != nil {
		return nil, err
	}
	reply := ticket.Replies[len(ticket.Replies)-1]
	return &reply, nil
}

// AddNote appends an internal note and returns it.
func (s *TicketService) AddNote(ctx context.Context, actor lifecycle.Actor, ticketID string, input lifecycle.MessageInput) (*domain.TicketMessage, error) {
	ticket, err := s.store.mutate(ctx, ticketID, actor, func(ticket *domain.Ticket) (*domain.Ticket, *events.Event, error) {
		out, err := s.engine.AddNote(ticket, input, actor)
		return out, nil, err
	})
	if err != nil {
		return nil, err
	}
	note := ticket.Notes[len(ticket.Notes)-1]
	return &note, nil
}

// History lists audit entries for a ticket the actor can see.
func (s *TicketService) History(ctx context.Context, actor lifecycle.Actor, ticketID string) ([]domain.TicketHistory, error) {
	if _, err := s.visibleTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	if s.store.history == nil {
		return []domain.TicketHistory{}, nil
	}
	entries, err := s.store.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// Attachments lists every file on the ticket, including those carried by
// replies and notes.
func (s *TicketService) Attachments(ctx context.Context, actor lifecycle.Actor, ticketID string) ([]domain.Attachment, error) {
	if _, err := s.visibleTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	if s.attachments == nil {
		return []domain.Attachment{}, nil
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachments, nil
}

func (s *TicketService) visibleTicket(ctx context.Context, actor lifecycle.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.store.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

// loadSLAConfigs prefers the stored configuration and falls back to the
// rules file when the table is empty.
func loadSLAConfigs(ctx context.Context, repo repository.SLAConfigRepository, rules *config.Rules) ([]domain.SLAConfig, error) {
	if repo == nil {
		return rules.SLAConfigs(), nil
	}
	configs, err := repo.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(configs) == 0 {
		return rules.SLAConfigs(), nil
	}
	return configs, nil
}

func activeAgent(ctx context.Context, agents repository.AgentRepository, agentID string) (*domain.Agent, error) {
	agent, err := agents.GetByID(ctx, agentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewValidationError("assignee not found", map[string]any{"assignee_id": agentID})
		}
		return nil, apperrors.MapError(err)
	}
	if !agent.IsActive {
		return nil, apperrors.NewValidationError("assignee inactive", map[string]any{"assignee_id": agentID})
	}
	return agent, nil
}

func activeCategory(ctx context.Context, categories repository.CategoryRepository, categoryID string) (*domain.Category, error) {
	category, err := categories.GetByID(ctx, categoryID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewValidationError("category not found", map[string]any{"category_id": categoryID})
		}
		return nil, apperrors.MapError(err)
	}
	if !category.IsActive {
		return nil, apperrors.NewValidationError("category inactive", map[string]any{"category_id": categoryID})
	}
	return category, nil
}

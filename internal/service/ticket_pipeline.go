package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Locker serializes writers of a single ticket.
type Locker interface {
	Lock(ctx context.Context, ticketID string) (release func(), err error)
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }

// ticketOp is a lifecycle operation applied to a freshly loaded ticket.
type ticketOp func(ticket *domain.Ticket) (*domain.Ticket, *events.Event, error)

// ticketStore runs the write path shared by ticket and assignment
// operations: lock, load, apply, conditional save, history, publish.
type ticketStore struct {
	tickets    repository.TicketRepository
	messages   repository.TicketMessageRepository
	history    repository.TicketHistoryRepository
	locker     Locker
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	newID      func() string
}

func newTicketStore(tickets repository.TicketRepository, messages repository.TicketMessageRepository, history repository.TicketHistoryRepository,
	locker Locker, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *ticketStore {
	if locker == nil {
		locker = noopLocker{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ticketStore{
		tickets:    tickets,
		messages:   messages,
		history:    history,
		locker:     locker,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
		newID:      uuid.NewString,
	}
}

func (s *ticketStore) load(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// ticketNumberAttempts bounds how often create draws a fresh ticket number
// after a collision.
const ticketNumberAttempts = 3

// create persists a ticket produced by the engine and publishes its event.
// A taken ticket number is replaced with a fresh one for the same day.
func (s *ticketStore) create(ctx context.Context, ticket *domain.Ticket, event *events.Event, actor lifecycle.Actor) error {
	for attempt := 1; ; attempt++ {
		err := s.tickets.Create(ctx, ticket)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateTicketNumber) {
			return apperrors.MapError(err)
		}
		if attempt == ticketNumberAttempts {
			return apperrors.NewConflict("could not allocate a ticket number", map[string]any{"ticket_number": ticket.TicketNumber})
		}
		s.logger.Warn("ticket number collision", zap.String("ticket_number", ticket.TicketNumber), zap.Int("attempt", attempt))
		ticket.TicketNumber = lifecycle.TicketNumber(ticket.CreatedAt, s.newID())
		if event != nil && event.Ticket != nil {
			event.Ticket.TicketNumber = ticket.TicketNumber
		}
	}
	s.writeHistory(ctx, ticket.ID, s.historyEntry(ticket.ID, actor, domain.ChangeTypeCreated, nil, map[string]any{
		"status":   ticket.Status,
		"priority": ticket.Priority,
		"level_id": ticket.LevelID,
	}, ticket.CreatedAt))
	s.publish(ctx, event)
	return nil
}

// mutate is apply for agent writes: the ticket must be visible to the actor
// before op runs, the same rule the read paths enforce.
func (s *ticketStore) mutate(ctx context.Context, ticketID string, actor lifecycle.Actor, op ticketOp) (*domain.Ticket, error) {
	return s.apply(ctx, ticketID, actor, func(ticket *domain.Ticket) (*domain.Ticket, *events.Event, error) {
		if !lifecycle.CanView(actor, ticket) {
			return nil, nil, apperrors.NewForbidden("access denied", map[string]any{"ticket_id": ticket.ID})
		}
		return op(ticket)
	})
}

// apply runs op under the ticket lock and saves the result only if the
// stored row still carries the updated_at it was loaded with.
func (s *ticketStore) apply(ctx context.Context, ticketID string, actor lifecycle.Actor, op ticketOp) (*domain.Ticket, error) {
	release, err := s.locker.Lock(ctx, ticketID)
	if err != nil {
		if errors.Is(err, persistence.ErrLockHeld) {
			s.metrics.RecordConflict()
			return nil, apperrors.NewConcurrentModification("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	defer release()

	before, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	after, event, err := op(before)
	if err != nil {
		return nil, err
	}
	if after.UpdatedAt.Equal(before.UpdatedAt) {
		return after, nil
	}

	if err := s.tickets.Update(ctx, after, before.UpdatedAt); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrConcurrentModification):
			s.metrics.RecordConflict()
			return nil, err
		case repository.IsNotFound(err):
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	added, err := s.saveMessages(ctx, before, after)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordChanges(ctx, actor, before, after, added)
	s.recordMetrics(before, after, event)
	s.publish(ctx, event)
	return after, nil
}

func (s *ticketStore) saveMessages(ctx context.Context, before, after *domain.Ticket) ([]domain.TicketMessage, error) {
	var added []domain.TicketMessage
	if len(after.Replies) > len(before.Replies) {
		added = append(added, after.Replies[len(before.Replies):]...)
	}
	if len(after.Notes) > len(before.Notes) {
		added = append(added, after.Notes[len(before.Notes):]...)
	}
	for i := range added {
		if err := s.messages.Create(ctx, &added[i]); err != nil {
			return nil, err
		}
	}
	return added, nil
}

func (s *ticketStore) recordChanges(ctx context.Context, actor lifecycle.Actor, before, after *domain.Ticket, added []domain.TicketMessage) {
	var entries []*domain.TicketHistory
	change := func(changeType domain.TicketChangeType, oldValue, newValue map[string]any) {
		entries = append(entries, s.historyEntry(after.ID, actor, changeType, oldValue, newValue, after.UpdatedAt))
	}

	if before.Status != after.Status {
		change(domain.ChangeTypeStatus, map[string]any{"status": before.Status}, map[string]any{"status": after.Status})
	}
	if !sameString(before.AssigneeID, after.AssigneeID) {
		change(domain.ChangeTypeAssignee, map[string]any{"assignee_id": before.AssigneeID}, map[string]any{"assignee_id": after.AssigneeID})
	}
	if before.Priority != after.Priority {
		change(domain.ChangeTypePriority, map[string]any{"priority": before.Priority}, map[string]any{"priority": after.Priority})
	}
	if before.LevelID != after.LevelID {
		change(domain.ChangeTypeLevel, map[string]any{"level_id": before.LevelID}, map[string]any{"level_id": after.LevelID})
	}
	if !sameTime(before.DueDate, after.DueDate) || before.DueDateOverridden != after.DueDateOverridden {
		change(domain.ChangeTypeDueDate,
			map[string]any{"due_date": before.DueDate, "overridden": before.DueDateOverridden},
			map[string]any{"due_date": after.DueDate, "overridden": after.DueDateOverridden})
	}
	for _, msg := range added {
		changeType := domain.ChangeTypeReply
		if msg.MessageType == domain.MessageTypeNote {
			changeType = domain.ChangeTypeNote
		}
		change(changeType, nil, map[string]any{"message_id": msg.ID})
	}
	s.writeHistory(ctx, after.ID, entries...)
}

func (s *ticketStore) historyEntry(ticketID string, actor lifecycle.Actor, changeType domain.TicketChangeType, oldValue, newValue map[string]any, at time.Time) *domain.TicketHistory {
	return &domain.TicketHistory{
		ID:          s.newID(),
		TicketID:    ticketID,
		ChangedByID: actor.AgentID(),
		ChangeType:  changeType,
		OldValue:    oldValue,
		NewValue:    newValue,
		CreatedAt:   at,
	}
}

// writeHistory never fails the request; the ticket is already saved.
func (s *ticketStore) writeHistory(ctx context.Context, ticketID string, entries ...*domain.TicketHistory) {
	if s.history == nil || len(entries) == 0 {
		return
	}
	if err := s.history.Create(ctx, entries...); err != nil {
		s.logger.Error("failed to record ticket history",
			zap.String("ticket_id", ticketID),
			zap.Int("entries", len(entries)),
			zap.Error(err))
	}
}

func (s *ticketStore) recordMetrics(before, after *domain.Ticket, event *events.Event) {
	if before.Status != after.Status {
		s.metrics.RecordTransition(string(before.Status), string(after.Status))
	}
	if event != nil && event.Escalation != nil && event.Escalation.To != nil {
		s.metrics.RecordEscalation(event.Escalation.To.Code)
	}
}

func (s *ticketStore) publish(ctx context.Context, event *events.Event) {
	if event == nil || s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, *event); err != nil {
		s.logger.Warn("event dispatch failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

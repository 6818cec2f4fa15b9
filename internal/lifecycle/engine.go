// Package lifecycle implements the ticket lifecycle engine: the status state
// machine, escalation and assignment, the capability checks gating each
// operation, and SLA deadline computation and classification.
//
// Every operation is synchronous and side-effect free. Inputs are never
// mutated; a successful call returns a modified copy of the ticket plus the
// notification event to publish (nil when there is nothing to send). A
// failed call returns an error and no ticket.
package lifecycle

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Engine applies lifecycle operations. The zero value is not usable; build
// one with NewEngine.
type Engine struct {
	now   func() time.Time
	newID func() string
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator replaces the generator for ticket, message and event ids.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// NewEngine builds an engine using the wall clock and random UUIDs.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// TicketInput describes a new ticket.
type TicketInput struct {
	CategoryID      string
	CategoryName    string
	Priority        domain.TicketPriority
	Source          domain.TicketSource
	LevelID         string
	DueDate         *time.Time
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   *string
	CustomerCompany *string
	AssigneeID      *string
	Subject         string
	Description     string
	Attachments     []AttachmentInput
}

// AttachmentInput is attachment metadata supplied by the file storage layer.
type AttachmentInput struct {
	FileName string
	FileKey  string
	FileURL  string
	FileSize int64
	FileType string
}

// MessageInput describes a reply or internal note.
type MessageInput struct {
	Content     string
	Attachments []AttachmentInput
}

// CreateTicket opens a ticket on the lowest active level (unless one is
// given) and computes its SLA deadline.
func (e *Engine) CreateTicket(input TicketInput, actor Actor, slaConfigs []domain.SLAConfig, levels []domain.EscalationLevel) (*domain.Ticket, *events.Event, error) {
	if err := Authorize(actor, domain.CapCreateTicket, "create tickets"); err != nil {
		return nil, nil, err
	}
	if input.AssigneeID != nil && strings.TrimSpace(*input.AssigneeID) != "" {
		if err := Authorize(actor, domain.CapAssignTicket, "assign tickets"); err != nil {
			return nil, nil, err
		}
	}
	if err := validateTicketInput(&input); err != nil {
		return nil, nil, err
	}

	level, err := initialLevel(input.LevelID, levels)
	if err != nil {
		return nil, nil, err
	}

	now := e.now()
	id := e.newID()
	ticket := &domain.Ticket{
		ID:                id,
		TicketNumber:      TicketNumber(now, id),
		CategoryID:        strings.TrimSpace(input.CategoryID),
		Priority:          input.Priority,
		Source:            input.Source,
		Status:            domain.TicketStatusOpen,
		LevelID:           level.ID,
		DueDate:           ComputeDueDate(input.Priority, slaConfigs, input.DueDate, now),
		DueDateOverridden: input.DueDate != nil,
		CreatedAt:         now,
		UpdatedAt:         now,
		CustomerName:      strings.TrimSpace(input.CustomerName),
		CustomerEmail:     strings.TrimSpace(input.CustomerEmail),
		CustomerPhone:     input.CustomerPhone,
		CustomerCompany:   input.CustomerCompany,
		AssigneeID:        normalizeID(input.AssigneeID),
		Subject:           strings.TrimSpace(input.Subject),
		Description:       strings.TrimSpace(input.Description),
	}
	if ticket.CategoryID != "" {
		ticket.CategoryName = strings.TrimSpace(input.CategoryName)
	}
	if actor.Agent != nil {
		ticket.CreatedByID = actor.Agent.ID
	}
	ticket.Attachments = e.buildAttachments(ticket.ID, nil, uploaderName(actor), input.Attachments, now)

	return ticket, e.newEvent(events.EventTicketCreated, ticket, actor, now), nil
}

// ApplyTransition moves a ticket to the requested status. Edges outside the
// transition table fail with InvalidTransition; missing capabilities fail
// with Forbidden.
func (e *Engine) ApplyTransition(ticket *domain.Ticket, to domain.TicketStatus, actor Actor) (*domain.Ticket, *events.Event, error) {
	if ticket == nil {
		return nil, nil, apperrors.NewValidationError("ticket required", nil)
	}
	rule, ok := lookupTransition(ticket.Status, to)
	if !ok {
		return nil, nil, apperrors.NewInvalidTransition("transition not allowed", map[string]any{
			"from": ticket.Status,
			"to":   to,
		})
	}
	if err := requireWrite(actor, "change ticket status"); err != nil {
		return nil, nil, err
	}
	if rule.requires != 0 {
		if err := Authorize(actor, rule.requires, "move ticket to "+string(to)); err != nil {
			return nil, nil, err
		}
	}

	now := e.now()
	out := ticket.Clone()
	out.Status = to
	out.UpdatedAt = now
	switch to {
	case domain.TicketStatusResolved:
		out.MarkResolved(now)
	case domain.TicketStatusClosed:
		out.ClosedAt = &now
	}

	eventType := events.EventStatusChanged
	switch to {
	case domain.TicketStatusResolved:
		eventType = events.EventTicketResolved
	case domain.TicketStatusClosed:
		eventType = events.EventTicketClosed
	}
	event := e.newEvent(eventType, out, actor, now)
	event.StatusChange = &events.StatusChange{OldStatus: ticket.Status, NewStatus: to}
	return out, event, nil
}

// Resolve is ApplyTransition to resolved with a resolution note attached to
// the emitted event.
func (e *Engine) Resolve(ticket *domain.Ticket, note string, actor Actor) (*domain.Ticket, *events.Event, error) {
	out, event, err := e.ApplyTransition(ticket, domain.TicketStatusResolved, actor)
	if err != nil {
		return nil, nil, err
	}
	event.ResolutionNote = strings.TrimSpace(note)
	return out, event, nil
}

// Escalate moves the ticket to the next active level by sort order. Status
// is unchanged.
func (e *Engine) Escalate(ticket *domain.Ticket, actor Actor, levels []domain.EscalationLevel) (*domain.Ticket, *events.Event, error) {
	if ticket == nil {
		return nil, nil, apperrors.NewValidationError("ticket required", nil)
	}
	if err := Authorize(actor, domain.CapEscalateTicket, "escalate tickets"); err != nil {
		return nil, nil, err
	}
	current, ok := findLevel(ticket.LevelID, levels)
	if !ok {
		return nil, nil, apperrors.NewValidationError("ticket level is not configured", map[string]any{"level_id": ticket.LevelID})
	}
	next, ok := NextLevel(current, levels)
	if !ok {
		return nil, nil, apperrors.NewInvalidTransition("ticket is already at the highest escalation level", map[string]any{
			"level": current.Code,
		})
	}

	now := e.now()
	out := ticket.Clone()
	out.LevelID = next.ID
	out.UpdatedAt = now

	event := e.newEvent(events.EventTicketEscalated, out, actor, now)
	from, to := current, next
	event.Escalation = &events.Escalation{From: &from, To: &to}
	return out, event, nil
}

// Assign sets or clears the assignee. The check runs against the acting
// agent's level; the assignee's own level is irrelevant. Re-assigning the
// current assignee succeeds without an event.
func (e *Engine) Assign(ticket *domain.Ticket, assigneeID *string, actor Actor) (*domain.Ticket, *events.Event, error) {
	if ticket == nil {
		return nil, nil, apperrors.NewValidationError("ticket required", nil)
	}
	if err := Authorize(actor, domain.CapAssignTicket, "assign tickets"); err != nil {
		return nil, nil, err
	}
	assigneeID = normalizeID(assigneeID)
	if sameID(ticket.AssigneeID, assigneeID) {
		return ticket.Clone(), nil, nil
	}

	now := e.now()
	out := ticket.Clone()
	out.AssigneeID = assigneeID
	out.UpdatedAt = now

	event := e.newEvent(events.EventTicketAssigned, out, actor, now)
	event.Assignment = &events.Assignment{
		PreviousAssigneeID: ticket.AssigneeID,
		AssigneeID:         assigneeID,
	}
	return out, event, nil
}

// ChangePriority updates the priority and recomputes the deadline unless it
// was set manually. A priority without SLA configuration keeps the existing
// deadline. No notification is produced.
func (e *Engine) ChangePriority(ticket *domain.Ticket, priority domain.TicketPriority, actor Actor, slaConfigs []domain.SLAConfig) (*domain.Ticket, error) {
	if ticket == nil {
		return nil, apperrors.NewValidationError("ticket required", nil)
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}
	if err := requireWrite(actor, "change ticket priority"); err != nil {
		return nil, err
	}
	out := ticket.Clone()
	if ticket.Priority == priority {
		return out, nil
	}

	now := e.now()
	out.Priority = priority
	out.UpdatedAt = now
	if !out.DueDateOverridden {
		if due := ComputeDueDate(priority, slaConfigs, nil, now); due != nil {
			out.DueDate = due
		}
	}
	return out, nil
}

// SetDueDate overrides the SLA deadline. Passing nil drops the override and
// recomputes the deadline from the ticket's current priority.
func (e *Engine) SetDueDate(ticket *domain.Ticket, due *time.Time, actor Actor, slaConfigs []domain.SLAConfig) (*domain.Ticket, error) {
	if ticket == nil {
		return nil, apperrors.NewValidationError("ticket required", nil)
	}
	if err := requireWrite(actor, "change the due date"); err != nil {
		return nil, err
	}
	now := e.now()
	out := ticket.Clone()
	out.DueDate = ComputeDueDate(ticket.Priority, slaConfigs, due, now)
	out.DueDateOverridden = due != nil
	out.UpdatedAt = now
	return out, nil
}

// AddReply appends a customer-visible reply written by the acting agent.
func (e *Engine) AddReply(ticket *domain.Ticket, input MessageInput, actor Actor) (*domain.Ticket, *events.Event, error) {
	if err := requireWrite(actor, "reply to tickets"); err != nil {
		return nil, nil, err
	}
	return e.appendReply(ticket, input, domain.AuthorTypeAgent, actor.AgentID(), actor.Agent.DisplayName(), actor)
}

// AddCustomerReply appends a reply received from the ticket's customer.
func (e *Engine) AddCustomerReply(ticket *domain.Ticket, input MessageInput) (*domain.Ticket, *events.Event, error) {
	if ticket == nil {
		return nil, nil, apperrors.NewValidationError("ticket required", nil)
	}
	return e.appendReply(ticket, input, domain.AuthorTypeCustomer, nil, ticket.CustomerName, Actor{})
}

// AddNote appends an internal note. Notes never notify anyone.
func (e *Engine) AddNote(ticket *domain.Ticket, input MessageInput, actor Actor) (*domain.Ticket, error) {
	if ticket == nil {
		return nil, apperrors.NewValidationError("ticket required", nil)
	}
	if err := requireWrite(actor, "add notes"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}
	now := e.now()
	out := ticket.Clone()
	msg := e.buildMessage(out.ID, domain.MessageTypeNote, domain.AuthorTypeAgent, actor.AgentID(), actor.Agent.DisplayName(), input, now)
	out.Notes = append(out.Notes, msg)
	out.UpdatedAt = now
	return out, nil
}

func (e *Engine) appendReply(ticket *domain.Ticket, input MessageInput, authorType domain.MessageAuthorType, authorID *string, authorName string, actor Actor) (*domain.Ticket, *events.Event, error) {
	if ticket == nil {
		return nil, nil, apperrors.NewValidationError("ticket required", nil)
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, nil, apperrors.NewValidationError("content required", nil)
	}
	now := e.now()
	out := ticket.Clone()
	msg := e.buildMessage(out.ID, domain.MessageTypeReply, authorType, authorID, authorName, input, now)
	out.Replies = append(out.Replies, msg)
	out.UpdatedAt = now

	event := e.newEvent(events.EventReplyAdded, out, actor, now)
	reply := msg.Clone()
	event.Reply = &reply
	return out, event, nil
}

func (e *Engine) buildMessage(ticketID string, kind domain.TicketMessageType, authorType domain.MessageAuthorType, authorID *string, authorName string, input MessageInput, now time.Time) domain.TicketMessage {
	msg := domain.TicketMessage{
		ID:          e.newID(),
		TicketID:    ticketID,
		AuthorType:  authorType,
		AuthorID:    authorID,
		AuthorName:  authorName,
		MessageType: kind,
		Content:     strings.TrimSpace(input.Content),
		CreatedAt:   now,
	}
	msg.Attachments = e.buildAttachments(ticketID, &msg.ID, authorName, input.Attachments, now)
	return msg
}

func (e *Engine) buildAttachments(ticketID string, messageID *string, uploadedBy string, inputs []AttachmentInput, now time.Time) []domain.Attachment {
	if len(inputs) == 0 {
		return nil
	}
	out := make([]domain.Attachment, 0, len(inputs))
	for _, in := range inputs {
		att := domain.Attachment{
			ID:         e.newID(),
			TicketID:   ticketID,
			FileName:   in.FileName,
			FileKey:    in.FileKey,
			FileURL:    in.FileURL,
			FileSize:   in.FileSize,
			FileType:   in.FileType,
			UploadedBy: uploadedBy,
			CreatedAt:  now,
		}
		if messageID != nil {
			id := *messageID
			att.MessageID = &id
		}
		out = append(out, att)
	}
	return out
}

func (e *Engine) newEvent(eventType events.EventType, ticket *domain.Ticket, actor Actor, now time.Time) *events.Event {
	return &events.Event{
		ID:        e.newID(),
		Type:      eventType,
		TicketID:  ticket.ID,
		Ticket:    ticket.Clone(),
		Actor:     actor.Agent,
		Timestamp: now,
	}
}

func validateTicketInput(input *TicketInput) error {
	details := map[string]any{}
	if strings.TrimSpace(input.Subject) == "" {
		details["subject"] = "required"
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		details["customer_name"] = "required"
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		details["customer_email"] = "required"
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityNormal
	}
	if !input.Priority.Valid() {
		details["priority"] = "invalid"
	}
	if input.Source == "" {
		input.Source = domain.TicketSourceWeb
	}
	if !input.Source.Valid() {
		details["source"] = "invalid"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket", details)
	}
	return nil
}

func initialLevel(levelID string, levels []domain.EscalationLevel) (domain.EscalationLevel, error) {
	if levelID != "" {
		level, ok := findLevel(levelID, levels)
		if !ok || !level.IsActive {
			return domain.EscalationLevel{}, apperrors.NewValidationError("escalation level unavailable", map[string]any{"level_id": levelID})
		}
		return level, nil
	}
	level, ok := LowestLevel(levels)
	if !ok {
		return domain.EscalationLevel{}, apperrors.NewValidationError("no active escalation level configured", nil)
	}
	return level, nil
}

func uploaderName(actor Actor) string {
	if actor.Agent == nil {
		return ""
	}
	return actor.Agent.DisplayName()
}

func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// TicketNumber formats the human-readable number TCK-YYYYMMDD-XXXXXXXX from
// the creation day and the first eight characters of seed.
func TicketNumber(now time.Time, seed string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(seed, "-", ""))
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return "TCK-" + now.UTC().Format("20060102") + "-" + suffix
}

package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates notification-producing actions.
type EventType string

const (
	EventTicketCreated      EventType = "created"
	EventStatusChanged      EventType = "status_change"
	EventReplyAdded         EventType = "reply"
	EventTicketEscalated    EventType = "escalate"
	EventTicketAssigned     EventType = "assign"
	EventTicketResolved     EventType = "resolved"
	EventTicketClosed       EventType = "closed"
	EventUserAccountCreated EventType = "user_account_created"
)

// EventTypes lists every notification event type.
var EventTypes = []EventType{
	EventTicketCreated,
	EventStatusChanged,
	EventReplyAdded,
	EventTicketEscalated,
	EventTicketAssigned,
	EventTicketResolved,
	EventTicketClosed,
	EventUserAccountCreated,
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	for _, candidate := range EventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Event is a transient record of a ticket-affecting action. It is produced
// by the lifecycle engine, consumed by notification rendering and never
// persisted.
type Event struct {
	ID        string
	Type      EventType
	TicketID  string
	Ticket    *domain.Ticket
	Actor     *domain.Agent
	Timestamp time.Time

	StatusChange *StatusChange
	Reply        *domain.TicketMessage
	Escalation   *Escalation
	Assignment   *Assignment
	Account      *Account

	// ResolutionNote is the optional text accompanying a resolution.
	ResolutionNote string
}

// StatusChange payload.
type StatusChange struct {
	OldStatus domain.TicketStatus
	NewStatus domain.TicketStatus
}

// Escalation payload.
type Escalation struct {
	From *domain.EscalationLevel
	To   *domain.EscalationLevel
}

// Assignment payload. A nil AssigneeID means the ticket was unassigned.
type Assignment struct {
	PreviousAssigneeID *string
	AssigneeID         *string
	Assignee           *domain.Agent
}

// Account payload for newly created agent accounts.
type Account struct {
	Agent             *domain.Agent
	TemporaryPassword string
	Level             *domain.EscalationLevel
}

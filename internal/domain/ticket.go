package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusPending,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is one of the defined statuses.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityNormal TicketPriority = "normal"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// TicketPriorities lists every priority from least to most urgent.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityNormal,
	TicketPriorityHigh,
	TicketPriorityUrgent,
}

// Valid reports whether p is one of the defined priorities.
func (p TicketPriority) Valid() bool {
	for _, candidate := range TicketPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// TicketSource records the channel a ticket arrived through.
type TicketSource string

const (
	TicketSourcePhone  TicketSource = "phone"
	TicketSourceEmail  TicketSource = "email"
	TicketSourceWalkIn TicketSource = "walk_in"
	TicketSourceWeb    TicketSource = "web"
)

// Valid reports whether s is one of the defined sources.
func (s TicketSource) Valid() bool {
	switch s {
	case TicketSourcePhone, TicketSourceEmail, TicketSourceWalkIn, TicketSourceWeb:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests. It owns a snapshot of the
// customer plus its attachments, replies and notes.
type Ticket struct {
	ID           string
	TicketNumber string
	CategoryID   string
	CategoryName string
	Priority     TicketPriority
	Source       TicketSource
	Status       TicketStatus
	LevelID      string

	DueDate           *time.Time
	DueDateOverridden bool

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time
	ClosedAt   *time.Time

	CustomerName    string
	CustomerEmail   string
	CustomerPhone   *string
	CustomerCompany *string

	AssigneeID  *string
	CreatedByID string

	Subject     string
	Description string
	Attachments []Attachment
	Replies     []TicketMessage
	Notes       []TicketMessage
}

// IsTerminal reports whether the ticket is resolved or closed.
func (t *Ticket) IsTerminal() bool {
	return t.Status == TicketStatusResolved || t.Status == TicketStatusClosed
}

// MarkResolved records the first resolution time. Later calls are no-ops so
// that reopen/resolve cycles keep the original value. It reports whether the
// timestamp was written.
func (t *Ticket) MarkResolved(at time.Time) bool {
	if t.ResolvedAt != nil {
		return false
	}
	t.ResolvedAt = &at
	return true
}

// Clone returns a deep copy so callers can mutate the result without
// touching the original snapshot.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	out := *t
	out.DueDate = cloneTime(t.DueDate)
	out.ResolvedAt = cloneTime(t.ResolvedAt)
	out.ClosedAt = cloneTime(t.ClosedAt)
	out.CustomerPhone = cloneString(t.CustomerPhone)
	out.CustomerCompany = cloneString(t.CustomerCompany)
	out.AssigneeID = cloneString(t.AssigneeID)
	if t.Attachments != nil {
		out.Attachments = append([]Attachment(nil), t.Attachments...)
	}
	if t.Replies != nil {
		out.Replies = make([]TicketMessage, len(t.Replies))
		for i := range t.Replies {
			out.Replies[i] = t.Replies[i].Clone()
		}
	}
	if t.Notes != nil {
		out.Notes = make([]TicketMessage, len(t.Notes))
		for i := range t.Notes {
			out.Notes[i] = t.Notes[i].Clone()
		}
	}
	return &out
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

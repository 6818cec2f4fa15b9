// Package notification turns lifecycle events into rendered messages: typed
// resolvers build a flat variable map from tickets, agents and replies, and
// the renderer substitutes {{key}} placeholders with it.
package notification

import (
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// DefaultResolutionNote is used when a ticket is resolved without a note.
const DefaultResolutionNote = "Tiket Anda telah diselesaikan oleh tim support kami."

// SystemActor names changes made without an acting agent.
const SystemActor = "System"

// Variables is the flat key/value map consumed by Render.
type Variables map[string]string

// Merge combines maps left to right; later maps win on key collisions.
func Merge(maps ...Variables) Variables {
	size := 0
	for _, m := range maps {
		size += len(m)
	}
	out := make(Variables, size)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// GlobalConfig holds process-wide values, loaded once at startup.
type GlobalConfig struct {
	AppName      string
	CompanyName  string
	SupportEmail string
	BaseURL      string
	Location     *time.Location
}

func (g GlobalConfig) location() *time.Location {
	if g.Location == nil {
		return time.UTC
	}
	return g.Location
}

func (g GlobalConfig) url(path string) string {
	return strings.TrimRight(g.BaseURL, "/") + path
}

// ResolveGlobal exposes app, company and support details plus the current year.
func ResolveGlobal(g GlobalConfig, now time.Time) Variables {
	return Variables{
		"appName":      orDash(g.AppName),
		"companyName":  orDash(g.CompanyName),
		"supportEmail": orDash(g.SupportEmail),
		"currentYear":  strconv.Itoa(now.In(g.location()).Year()),
		"baseUrl":      g.BaseURL,
	}
}

// ResolveTicket exposes labels, links and timestamps of a ticket.
func ResolveTicket(t *domain.Ticket, g GlobalConfig) Variables {
	if t == nil {
		return Variables{}
	}
	vars := Variables{
		"ticketId":            t.ID,
		"ticketNumber":        t.TicketNumber,
		"ticketSubject":       orDash(t.Subject),
		"ticketDescription":   orDash(t.Description),
		"ticketStatus":        StatusLabel(t.Status),
		"ticketStatusColor":   StatusColor(t.Status),
		"ticketPriority":      PriorityLabel(t.Priority),
		"ticketPriorityColor": PriorityColor(t.Priority),
		"ticketSource":        sourceLabel(t.Source),
		"ticketCategory":      orDash(t.CategoryName),
		"ticketUrl":           g.url("/track/" + t.TicketNumber),
		"adminUrl":            g.url("/admin/tickets/" + t.ID),
		"ticketCreatedAt":     FormatDate(t.CreatedAt, g.location()),
		"slaDeadline":         Dash,
	}
	if t.DueDate != nil {
		vars["slaDeadline"] = FormatDate(*t.DueDate, g.location())
	}
	return vars
}

// ResolveCustomer exposes the ticket's customer snapshot.
func ResolveCustomer(t *domain.Ticket) Variables {
	if t == nil {
		return Variables{}
	}
	return Variables{
		"customerName":     orDash(t.CustomerName),
		"customerEmail":    orDash(t.CustomerEmail),
		"customerPhone":    optional(t.CustomerPhone),
		"customerCompany":  optional(t.CustomerCompany),
		"customerInitials": Initials(t.CustomerName),
	}
}

// ResolveAgent exposes <prefix>Name, <prefix>Email and <prefix>Initials.
// All three render as "-" for a nil agent.
func ResolveAgent(a *domain.Agent, prefix string) Variables {
	if a == nil {
		return Variables{
			prefix + "Name":     Dash,
			prefix + "Email":    Dash,
			prefix + "Initials": Dash,
		}
	}
	name := a.DisplayName()
	return Variables{
		prefix + "Name":     orDash(name),
		prefix + "Email":    orDash(a.Email),
		prefix + "Initials": Initials(name),
	}
}

// ResolveStatusChange labels both statuses and names who made the change.
func ResolveStatusChange(oldStatus, newStatus domain.TicketStatus, actor *domain.Agent) Variables {
	changedBy := SystemActor
	if actor != nil {
		if name := strings.TrimSpace(actor.DisplayName()); name != "" {
			changedBy = name
		}
	}
	return Variables{
		"oldStatus":      StatusLabel(oldStatus),
		"newStatus":      StatusLabel(newStatus),
		"newStatusColor": StatusColor(newStatus),
		"changedBy":      changedBy,
	}
}

// ResolveSLA renders the deadline and the time left until it.
func ResolveSLA(due *time.Time, g GlobalConfig, now time.Time) Variables {
	if due == nil {
		return Variables{"slaDeadline": Dash, "slaRemaining": Dash}
	}
	return Variables{
		"slaDeadline":  FormatDate(*due, g.location()),
		"slaRemaining": FormatRemaining(*due, now),
	}
}

// ResolveResolution measures createdAt to resolvedAt (or now when the
// ticket was never resolved).
func ResolveResolution(t *domain.Ticket, note string, now time.Time) Variables {
	vars := Variables{"resolutionNote": DefaultResolutionNote, "resolutionTime": Dash}
	if n := strings.TrimSpace(note); n != "" {
		vars["resolutionNote"] = n
	}
	if t == nil {
		return vars
	}
	end := now
	if t.ResolvedAt != nil {
		end = *t.ResolvedAt
	}
	vars["resolutionTime"] = FormatDuration(end.Sub(t.CreatedAt))
	return vars
}

// ResolveReply exposes a reply's content, author and timestamp.
func ResolveReply(m *domain.TicketMessage, g GlobalConfig) Variables {
	if m == nil {
		return Variables{}
	}
	return Variables{
		"replyContent": m.Content,
		"replyAuthor":  orDash(m.AuthorName),
		"replyDate":    FormatDate(m.CreatedAt, g.location()),
	}
}

// ResolveEscalation names the levels a ticket moved between.
func ResolveEscalation(from, to *domain.EscalationLevel) Variables {
	return Variables{
		"oldLevel": levelLabel(from),
		"newLevel": levelLabel(to),
	}
}

// ResolveAccount exposes a new agent's credentials for the welcome mail.
func ResolveAccount(a *domain.Agent, temporaryPassword string, level *domain.EscalationLevel, g GlobalConfig) Variables {
	vars := Variables{
		"accountName":     Dash,
		"accountEmail":    Dash,
		"accountPassword": orDash(temporaryPassword),
		"accountLevel":    levelLabel(level),
		"loginUrl":        g.url("/login"),
	}
	if a != nil {
		vars["accountName"] = orDash(a.DisplayName())
		vars["accountEmail"] = orDash(a.Email)
	}
	return vars
}

func levelLabel(l *domain.EscalationLevel) string {
	if l == nil {
		return Dash
	}
	if l.Name == "" {
		return orDash(l.Code)
	}
	return l.Code + " - " + l.Name
}

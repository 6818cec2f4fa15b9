package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// ticketFile is the JSON shape accepted by --ticket.
type ticketFile struct {
	ID                string     `json:"id"`
	TicketNumber      string     `json:"ticket_number"`
	CategoryName      string     `json:"category_name"`
	Priority          string     `json:"priority"`
	Source            string     `json:"source"`
	Status            string     `json:"status"`
	DueDate           *time.Time `json:"due_date"`
	DueDateOverridden bool       `json:"due_date_overridden"`
	CreatedAt         time.Time  `json:"created_at"`
	ResolvedAt        *time.Time `json:"resolved_at"`
	ClosedAt          *time.Time `json:"closed_at"`
	CustomerName      string     `json:"customer_name"`
	CustomerEmail     string     `json:"customer_email"`
	CustomerPhone     *string    `json:"customer_phone"`
	CustomerCompany   *string    `json:"customer_company"`
	Subject           string     `json:"subject"`
	Description       string     `json:"description"`
}

func loadTicket(path string) (*domain.Ticket, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ticket file: %w", err)
	}
	var f ticketFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse ticket file: %w", err)
	}

	ticket := &domain.Ticket{
		ID:                f.ID,
		TicketNumber:      f.TicketNumber,
		CategoryName:      f.CategoryName,
		Priority:          domain.TicketPriority(f.Priority),
		Source:            domain.TicketSource(f.Source),
		Status:            domain.TicketStatus(f.Status),
		DueDate:           f.DueDate,
		DueDateOverridden: f.DueDateOverridden,
		CreatedAt:         f.CreatedAt,
		UpdatedAt:         f.CreatedAt,
		ResolvedAt:        f.ResolvedAt,
		ClosedAt:          f.ClosedAt,
		CustomerName:      f.CustomerName,
		CustomerEmail:     f.CustomerEmail,
		CustomerPhone:     f.CustomerPhone,
		CustomerCompany:   f.CustomerCompany,
		Subject:           f.Subject,
		Description:       f.Description,
	}
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusOpen
	}
	if !ticket.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", f.Status)
	}
	if !ticket.Priority.Valid() {
		return nil, fmt.Errorf("unknown priority %q", f.Priority)
	}
	if ticket.CreatedAt.IsZero() {
		return nil, fmt.Errorf("created_at is required")
	}
	return ticket, nil
}

func loadRules(path string) (*config.Rules, error) {
	if path == "" {
		return config.DefaultRules(), nil
	}
	return config.LoadRules(path)
}

// parseAt reads an RFC3339 --at flag; empty means now.
func parseAt(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: %w", value, err)
	}
	return at, nil
}

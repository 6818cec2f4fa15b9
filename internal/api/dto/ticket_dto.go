package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CategoryID      string                `json:"category_id"`
	Priority        domain.TicketPriority `json:"priority"`
	Source          domain.TicketSource   `json:"source"`
	LevelID         string                `json:"level_id"`
	DueDate         *time.Time            `json:"due_date"`
	CustomerName    string                `json:"customer_name"`
	CustomerEmail   string                `json:"customer_email"`
	CustomerPhone   *string               `json:"customer_phone"`
	CustomerCompany *string               `json:"customer_company"`
	AssigneeID      *string               `json:"assignee_id"`
	Subject         string                `json:"subject"`
	Description     string                `json:"description"`
	Attachments     []AttachmentRequest   `json:"attachments"`
}

// ChangeStatusRequest payload. Note is stored as the resolution note when
// the target status is resolved.
type ChangeStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
	Note   string              `json:"note"`
}

// ChangePriorityRequest payload.
type ChangePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// SetDueDateRequest payload. A null due_date clears the override.
type SetDueDateRequest struct {
	DueDate *time.Time `json:"due_date"`
}

// AssignRequest payload. A null assignee_id unassigns.
type AssignRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// CreateMessageRequest payload for replies and notes.
type CreateMessageRequest struct {
	Content     string              `json:"content"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// CustomerReplyRequest payload for the public tracking page.
type CustomerReplyRequest struct {
	Email       string              `json:"email"`
	Content     string              `json:"content"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// AttachmentRequest describes uploaded file metadata.
type AttachmentRequest struct {
	FileName string `json:"file_name"`
	FileKey  string `json:"file_key"`
	FileURL  string `json:"file_url"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type"`
}

// TicketSummary response.
type TicketSummary struct {
	ID                string                `json:"id"`
	TicketNumber      string                `json:"ticket_number"`
	CategoryID        string                `json:"category_id"`
	Subject           string                `json:"subject"`
	Status            domain.TicketStatus   `json:"status"`
	Priority          domain.TicketPriority `json:"priority"`
	Source            domain.TicketSource   `json:"source"`
	LevelID           string                `json:"level_id"`
	AssigneeID        *string               `json:"assignee_id"`
	CustomerName      string                `json:"customer_name"`
	DueDate           *time.Time            `json:"due_date"`
	DueDateOverridden bool                  `json:"due_date_overridden"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description     string                  `json:"description"`
	CustomerEmail   string                  `json:"customer_email"`
	CustomerPhone   *string                 `json:"customer_phone"`
	CustomerCompany *string                 `json:"customer_company"`
	CreatedByID     string                  `json:"created_by_id"`
	ResolvedAt      *time.Time              `json:"resolved_at"`
	ClosedAt        *time.Time              `json:"closed_at"`
	Attachments     []AttachmentResponse    `json:"attachments"`
	Replies         []TicketMessageResponse `json:"replies"`
	Notes           []TicketMessageResponse `json:"notes,omitempty"`
}

// TrackedTicketResponse is the customer view of a ticket.
type TrackedTicketResponse struct {
	TicketNumber string                  `json:"ticket_number"`
	Subject      string                  `json:"subject"`
	Status       domain.TicketStatus     `json:"status"`
	Priority     domain.TicketPriority   `json:"priority"`
	DueDate      *time.Time              `json:"due_date"`
	CreatedAt    time.Time               `json:"created_at"`
	ResolvedAt   *time.Time              `json:"resolved_at"`
	Replies      []TicketMessageResponse `json:"replies"`
}

// TicketMessageResponse represents a reply or note.
type TicketMessageResponse struct {
	ID          string                   `json:"id"`
	MessageType domain.TicketMessageType `json:"message_type"`
	AuthorType  domain.MessageAuthorType `json:"author_type"`
	AuthorID    *string                  `json:"author_id"`
	AuthorName  string                   `json:"author_name"`
	Content     string                   `json:"content"`
	Attachments []AttachmentResponse     `json:"attachments"`
	CreatedAt   time.Time                `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
	URL      string `json:"url,omitempty"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID          string                  `json:"id"`
	ChangeType  domain.TicketChangeType `json:"change_type"`
	ChangedByID *string                 `json:"changed_by_id"`
	OldValue    map[string]any          `json:"old_value"`
	NewValue    map[string]any          `json:"new_value"`
	CreatedAt   time.Time               `json:"created_at"`
}

// SLAResponse reports the ticket's current SLA classification.
type SLAResponse struct {
	TicketID      string          `json:"ticket_id"`
	State         domain.SLAState `json:"state"`
	Progress      float64         `json:"progress"`
	ElapsedHours  float64         `json:"elapsed_hours"`
	DueDate       *time.Time      `json:"due_date"`
	Overdue       bool            `json:"overdue"`
	WarningHours  float64         `json:"warning_hours"`
	CriticalHours float64         `json:"critical_hours"`
	EvaluatedAt   time.Time       `json:"evaluated_at"`
}

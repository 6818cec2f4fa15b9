package domain

import "time"

// MessageAuthorType indicates who authored a message.
type MessageAuthorType string

const (
	AuthorTypeCustomer MessageAuthorType = "customer"
	AuthorTypeAgent    MessageAuthorType = "agent"
	AuthorTypeSystem   MessageAuthorType = "system"
)

// TicketMessageType differentiates between replies and notes.
type TicketMessageType string

const (
	MessageTypeReply TicketMessageType = "reply"
	MessageTypeNote  TicketMessageType = "note"
)

// TicketMessage captures communications in a ticket thread. Replies are
// customer-visible; notes are internal only.
type TicketMessage struct {
	ID          string
	TicketID    string
	AuthorType  MessageAuthorType
	AuthorID    *string
	AuthorName  string
	MessageType TicketMessageType
	Content     string
	Attachments []Attachment
	CreatedAt   time.Time
}

// Clone copies the message and its attachment slice.
func (m TicketMessage) Clone() TicketMessage {
	out := m
	out.AuthorID = cloneString(m.AuthorID)
	if m.Attachments != nil {
		out.Attachments = append([]Attachment(nil), m.Attachments...)
	}
	return out
}

// Attachment stores metadata for a file owned by a ticket. The bytes live
// in external file storage.
type Attachment struct {
	ID         string
	TicketID   string
	MessageID  *string
	FileName   string
	FileKey    string
	FileURL    string
	FileSize   int64
	FileType   string
	UploadedBy string
	CreatedAt  time.Time
}

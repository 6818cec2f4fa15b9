package domain

import "time"

// NotificationTemplate is a stored subject/body pair for one event type.
type NotificationTemplate struct {
	ID        string
	EventType string
	Subject   string
	Body      string
	IsActive  bool
	UpdatedAt time.Time
}

// Package mailer hands rendered notifications to the outbound mail
// transport.
package mailer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Mail is a fully rendered outbound message.
type Mail struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	From      string    `json:"from,omitempty"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	EventType string    `json:"event_type"`
	TicketID  string    `json:"ticket_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink accepts rendered mail for delivery.
type Sink interface {
	Send(ctx context.Context, mail Mail) error
}

// LogSink writes mail to the log instead of delivering it.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(_ context.Context, mail Mail) error {
	s.logger.Info("mail dispatched",
		zap.String("to", mail.To),
		zap.String("subject", mail.Subject),
		zap.String("event_type", mail.EventType),
		zap.String("ticket_id", mail.TicketID),
	)
	return nil
}

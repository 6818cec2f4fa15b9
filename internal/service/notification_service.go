package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mailer"
	"github.com/spec-kit/helpdesk/internal/notification"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Notification outcomes recorded in metrics.
const (
	notificationSent    = "sent"
	notificationFailed  = "failed"
	notificationSkipped = "skipped"
)

// NotificationService turns events into rendered mail.
type NotificationService struct {
	templates repository.TemplateRepository
	agents    repository.AgentRepository
	rules     *config.Rules
	global    notification.GlobalConfig
	sink      mailer.Sink
	from      string
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NotificationDependencies bundles collaborators for the service.
type NotificationDependencies struct {
	TemplateRepo repository.TemplateRepository
	AgentRepo    repository.AgentRepository
	Rules        *config.Rules
	Sink         mailer.Sink
	Config       config.NotificationConfig
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	if deps.Rules == nil {
		deps.Rules = config.DefaultRules()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &NotificationService{
		templates: deps.TemplateRepo,
		agents:    deps.AgentRepo,
		rules:     deps.Rules,
		global:    deps.Rules.GlobalConfig(),
		sink:      deps.Sink,
		from:      deps.Config.EmailFrom,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// RegisterHandlers subscribes the service to every notification event.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, eventType := range events.EventTypes {
		dispatcher.Subscribe(eventType, n.Handle)
	}
}

// Handle renders and sends the mail for one event. Events without a
// recipient or template are skipped.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	recipient := n.recipient(ctx, &event)
	if recipient == "" {
		n.logger.Debug("notification skipped: no recipient",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID))
		n.metrics.RecordNotification(string(event.Type), notificationSkipped)
		return nil
	}

	subject, body, ok := n.template(ctx, event.Type)
	if !ok {
		n.logger.Warn("notification skipped: no template", zap.String("event_type", string(event.Type)))
		n.metrics.RecordNotification(string(event.Type), notificationSkipped)
		return nil
	}

	now := n.now()
	msg := notification.RenderNotification(&event, subject, body, n.global, now)
	if len(msg.Missing) > 0 {
		n.logger.Warn("template placeholders without value",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Strings("keys", msg.Missing))
	}

	mail := mailer.Mail{
		ID:        event.ID,
		To:        recipient,
		From:      n.from,
		Subject:   msg.Subject,
		Body:      msg.Body,
		EventType: string(event.Type),
		TicketID:  event.TicketID,
		CreatedAt: now,
	}
	if err := n.sink.Send(ctx, mail); err != nil {
		n.metrics.RecordNotification(string(event.Type), notificationFailed)
		n.logger.Error("notification delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
		return err
	}
	n.metrics.RecordNotification(string(event.Type), notificationSent)
	return nil
}

// template prefers the active stored template and falls back to the rules
// file.
func (n *NotificationService) template(ctx context.Context, eventType events.EventType) (string, string, bool) {
	if n.templates != nil {
		tpl, err := n.templates.GetActive(ctx, string(eventType))
		switch {
		case err == nil:
			return tpl.Subject, tpl.Body, true
		case !repository.IsNotFound(err):
			n.logger.Warn("template lookup failed, using rules file",
				zap.String("event_type", string(eventType)),
				zap.Error(err))
		}
	}
	rule, ok := n.rules.Template(eventType)
	if !ok {
		return "", "", false
	}
	return rule.Subject, rule.Body, true
}

func (n *NotificationService) recipient(ctx context.Context, event *events.Event) string {
	switch event.Type {
	case events.EventUserAccountCreated:
		if event.Account != nil && event.Account.Agent != nil {
			return event.Account.Agent.Email
		}
		return ""
	case events.EventTicketAssigned:
		if a := event.Assignment; a != nil {
			if a.Assignee != nil {
				return a.Assignee.Email
			}
			if a.AssigneeID != nil {
				return n.agentEmail(ctx, *a.AssigneeID)
			}
		}
		return ""
	case events.EventTicketEscalated:
		if event.Ticket != nil && event.Ticket.AssigneeID != nil {
			if email := n.agentEmail(ctx, *event.Ticket.AssigneeID); email != "" {
				return email
			}
		}
		return n.global.SupportEmail
	case events.EventReplyAdded:
		// Customer replies go to the team, agent replies to the customer.
		if event.Reply != nil && event.Reply.AuthorType == domain.AuthorTypeCustomer {
			if event.Ticket != nil && event.Ticket.AssigneeID != nil {
				if email := n.agentEmail(ctx, *event.Ticket.AssigneeID); email != "" {
					return email
				}
			}
			return n.global.SupportEmail
		}
	}
	if event.Ticket == nil {
		return ""
	}
	return strings.TrimSpace(event.Ticket.CustomerEmail)
}

func (n *NotificationService) agentEmail(ctx context.Context, agentID string) string {
	if n.agents == nil {
		return ""
	}
	agent, err := n.agents.GetByID(ctx, agentID)
	if err != nil {
		if !repository.IsNotFound(err) {
			n.logger.Warn("agent lookup failed", zap.String("agent_id", agentID), zap.Error(err))
		}
		return ""
	}
	if !agent.IsActive {
		return ""
	}
	return agent.Email
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
)

func newNotificationFixture(templates *memTemplates, sink *recordingSink) *NotificationService {
	rules := config.DefaultRules()
	rules.Global.SupportEmail = "support@helpdesk.test"
	rules.Global.Timezone = "UTC"
	svc := NewNotificationService(NotificationDependencies{
		TemplateRepo: templates,
		AgentRepo:    newMemAgents(agentAt(0), agentAt(1)),
		Rules:        rules,
		Sink:         sink,
		Config:       config.NotificationConfig{EmailFrom: "noreply@helpdesk.test"},
	})
	svc.now = func() time.Time { return baseTime }
	return svc
}

func notificationTicket(assigneeID *string) *domain.Ticket {
	due := baseTime.Add(30 * time.Hour)
	return &domain.Ticket{
		ID:            "T1",
		TicketNumber:  "TCK-20261015-T1",
		Priority:      domain.TicketPriorityHigh,
		Status:        domain.TicketStatusOpen,
		LevelID:       "lvl-1",
		DueDate:       &due,
		CreatedAt:     baseTime,
		CustomerName:  "Budi Santoso",
		CustomerEmail: "budi@example.com",
		AssigneeID:    assigneeID,
		Subject:       "Printer offline",
	}
}

func TestNotificationService_Routing(t *testing.T) {
	assignee := "agent-L2"
	level1, level2 := testLevels()[0], testLevels()[1]

	tests := []struct {
		name  string
		event events.Event
		want  string
	}{
		{
			name:  "created goes to customer",
			event: events.Event{Type: events.EventTicketCreated, Ticket: notificationTicket(nil)},
			want:  "budi@example.com",
		},
		{
			name:  "closed goes to customer",
			event: events.Event{Type: events.EventTicketClosed, Ticket: notificationTicket(nil)},
			want:  "budi@example.com",
		},
		{
			name: "agent reply goes to customer",
			event: events.Event{
				Type:   events.EventReplyAdded,
				Ticket: notificationTicket(&assignee),
				Reply:  &domain.TicketMessage{AuthorType: domain.AuthorTypeAgent, Content: "ok"},
			},
			want: "budi@example.com",
		},
		{
			name: "customer reply goes to assignee",
			event: events.Event{
				Type:   events.EventReplyAdded,
				Ticket: notificationTicket(&assignee),
				Reply:  &domain.TicketMessage{AuthorType: domain.AuthorTypeCustomer, Content: "masih"},
			},
			want: "l2@helpdesk.test",
		},
		{
			name: "assign goes to assignee",
			event: events.Event{
				Type:       events.EventTicketAssigned,
				Ticket:     notificationTicket(&assignee),
				Assignment: &events.Assignment{AssigneeID: &assignee},
			},
			want: "l2@helpdesk.test",
		},
		{
			name: "escalate without assignee goes to support",
			event: events.Event{
				Type:       events.EventTicketEscalated,
				Ticket:     notificationTicket(nil),
				Escalation: &events.Escalation{From: &level1, To: &level2},
			},
			want: "support@helpdesk.test",
		},
		{
			name: "escalate with assignee goes to assignee",
			event: events.Event{
				Type:       events.EventTicketEscalated,
				Ticket:     notificationTicket(&assignee),
				Escalation: &events.Escalation{From: &level1, To: &level2},
			},
			want: "l2@helpdesk.test",
		},
		{
			name: "account goes to new agent",
			event: events.Event{
				Type:    events.EventUserAccountCreated,
				Account: &events.Account{Agent: &domain.Agent{FullName: "Dewi", Email: "dewi@helpdesk.test"}, TemporaryPassword: "x"},
			},
			want: "dewi@helpdesk.test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			svc := newNotificationFixture(&memTemplates{}, sink)
			if err := svc.Handle(context.Background(), tt.event); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if len(sink.sent) != 1 {
				t.Fatalf("sent %d mails, want 1", len(sink.sent))
			}
			if got := sink.sent[0].To; got != tt.want {
				t.Errorf("To = %q, want %q", got, tt.want)
			}
			if sink.sent[0].From != "noreply@helpdesk.test" {
				t.Errorf("From = %q", sink.sent[0].From)
			}
		})
	}
}

func TestNotificationService_SkipsUnassign(t *testing.T) {
	sink := &recordingSink{}
	svc := newNotificationFixture(&memTemplates{}, sink)
	event := events.Event{Type: events.EventTicketAssigned, Ticket: notificationTicket(nil), Assignment: &events.Assignment{}}
	if err := svc.Handle(context.Background(), event); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(sink.sent) != 0 {
		t.Errorf("unassign sent %v", sink.sent)
	}
}

func TestNotificationService_TemplateSource(t *testing.T) {
	stored := &memTemplates{templates: map[string]domain.NotificationTemplate{
		string(events.EventTicketCreated): {
			Subject: "Tiket {{ticketNumber}}",
			Body:    "Halo {{customerName}}, sisa {{slaRemaining}} {{notAVariable}}",
		},
	}}

	t.Run("stored template wins", func(t *testing.T) {
		sink := &recordingSink{}
		svc := newNotificationFixture(stored, sink)
		event := events.Event{ID: "ev-1", Type: events.EventTicketCreated, TicketID: "T1", Ticket: notificationTicket(nil)}
		if err := svc.Handle(context.Background(), event); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		mail := sink.sent[0]
		if mail.Subject != "Tiket TCK-20261015-T1" {
			t.Errorf("Subject = %q", mail.Subject)
		}
		if mail.Body != "Halo Budi Santoso, sisa 1 hari 6 jam {{notAVariable}}" {
			t.Errorf("Body = %q", mail.Body)
		}
		if mail.ID != "ev-1" || mail.EventType != "created" || mail.TicketID != "T1" {
			t.Errorf("mail metadata = %+v", mail)
		}
	})

	t.Run("rules file fallback", func(t *testing.T) {
		sink := &recordingSink{}
		svc := newNotificationFixture(stored, sink)
		event := events.Event{
			Type:         events.EventStatusChanged,
			Ticket:       notificationTicket(nil),
			StatusChange: &events.StatusChange{OldStatus: domain.TicketStatusOpen, NewStatus: domain.TicketStatusInProgress},
		}
		if err := svc.Handle(context.Background(), event); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if got := sink.sent[0].Subject; got != "[TCK-20261015-T1] Status tiket: Sedang Diproses" {
			t.Errorf("Subject = %q", got)
		}
	})

	t.Run("lookup error falls back", func(t *testing.T) {
		sink := &recordingSink{}
		svc := newNotificationFixture(&memTemplates{err: errors.New("db down")}, sink)
		event := events.Event{Type: events.EventTicketClosed, Ticket: notificationTicket(nil)}
		if err := svc.Handle(context.Background(), event); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if !strings.Contains(sink.sent[0].Subject, "Tiket ditutup") {
			t.Errorf("Subject = %q", sink.sent[0].Subject)
		}
	})
}

func TestNotificationService_SinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker unavailable")}
	svc := newNotificationFixture(&memTemplates{}, sink)
	err := svc.Handle(context.Background(), events.Event{Type: events.EventTicketCreated, Ticket: notificationTicket(nil)})
	if err == nil {
		t.Error("expected sink error to propagate")
	}
}

func TestNotificationService_RegisterHandlers(t *testing.T) {
	sink := &recordingSink{}
	svc := newNotificationFixture(&memTemplates{}, sink)
	dispatcher := events.NewInMemoryDispatcher()
	svc.RegisterHandlers(dispatcher)

	for _, eventType := range []events.EventType{events.EventTicketCreated, events.EventTicketResolved} {
		if err := dispatcher.Publish(context.Background(), events.Event{Type: eventType, Ticket: notificationTicket(nil)}); err != nil {
			t.Fatalf("Publish(%s) error = %v", eventType, err)
		}
	}
	if len(sink.sent) != 2 {
		t.Errorf("sent %d mails, want 2", len(sink.sent))
	}
}

package events

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestDispatcher_PublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string

	d.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		calls = append(calls, "first")
		return errors.New("first failed")
	})
	d.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketClosed, func(ctx context.Context, e Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated})
	if err == nil {
		t.Fatal("expected joined handler error, got nil")
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("calls = %v, want [first second]", calls)
	}
}

func TestDispatcher_PublishWithoutListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	if err := d.Publish(context.Background(), Event{Type: EventReplyAdded}); err != nil {
		t.Errorf("Publish() error = %v, want nil", err)
	}
}

func TestDispatcher_RecoversPanickingHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	ran := false
	d.Subscribe(EventTicketEscalated, func(ctx context.Context, e Event) error {
		panic("nil level")
	})
	d.Subscribe(EventTicketEscalated, func(ctx context.Context, e Event) error {
		ran = true
		return nil
	})

	err := d.Publish(context.Background(), Event{
		Type:   EventTicketEscalated,
		Ticket: &domain.Ticket{TicketNumber: "TCK-20261015-AB12CD"},
	})
	if err == nil || !strings.Contains(err.Error(), "TCK-20261015-AB12CD") {
		t.Errorf("Publish() error = %v, want panic tagged with ticket number", err)
	}
	if !ran {
		t.Error("handler after the panicking one did not run")
	}
}

func TestDispatcher_RejectsUnknownType(t *testing.T) {
	d := NewInMemoryDispatcher()
	d.Subscribe(EventType("priority_change"), func(ctx context.Context, e Event) error {
		t.Error("handler for unknown type should never run")
		return nil
	})
	err := d.Publish(context.Background(), Event{Type: "priority_change"})
	if !errors.Is(err, ErrUnknownEventType) {
		t.Errorf("Publish() error = %v, want ErrUnknownEventType", err)
	}
}

func TestEventTypeValid(t *testing.T) {
	for _, et := range EventTypes {
		if !et.Valid() {
			t.Errorf("%q should be valid", et)
		}
	}
	if EventType("priority_change").Valid() {
		t.Error("priority_change should not be a notification event type")
	}
}

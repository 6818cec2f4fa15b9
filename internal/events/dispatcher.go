package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownEventType is returned when publishing an event whose type is not
// one of EventTypes.
var ErrUnknownEventType = errors.New("unknown event type")

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans lifecycle events out to their subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// inMemoryDispatcher runs subscribers synchronously on the publishing
// goroutine, in subscription order.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
	}
}

// Publish invokes every handler subscribed to event.Type. A failing or
// panicking handler does not stop the ones after it; all failures come back
// joined, each tagged with the ticket it concerned.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	if !event.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, event.Type)
	}

	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	var errs []error
	for i, handler := range handlers {
		if err := invoke(ctx, handler, event); err != nil {
			errs = append(errs, fmt.Errorf("%s handler %d for %s: %w", event.Type, i, subject(event), err))
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

func invoke(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(ctx, event)
}

func subject(event Event) string {
	if event.Ticket != nil && event.Ticket.TicketNumber != "" {
		return event.Ticket.TicketNumber
	}
	if event.TicketID != "" {
		return event.TicketID
	}
	if event.Account != nil && event.Account.Agent != nil {
		return "agent " + event.Account.Agent.Email
	}
	return "event " + event.ID
}

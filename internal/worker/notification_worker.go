package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
)

var (
	// ErrQueueFull is returned by Publish when the buffer is exhausted.
	ErrQueueFull = errors.New("notification queue full")
	// ErrWorkerStopped is returned by Publish after Stop.
	ErrWorkerStopped = errors.New("notification worker stopped")
)

const deliveryTimeout = 30 * time.Second

// NotificationWorker moves event delivery off the request path. It is a
// Dispatcher: Publish only enqueues, and Run hands each queued event to the
// wrapped dispatcher in publication order.
type NotificationWorker struct {
	next   events.Dispatcher
	queue  chan events.Event
	logger *zap.Logger
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewNotificationWorker wraps next with a queue of the given size.
func NewNotificationWorker(next events.Dispatcher, buffer int, logger *zap.Logger) *NotificationWorker {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		next:   next,
		queue:  make(chan events.Event, buffer),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Subscribe registers handler on the wrapped dispatcher.
func (w *NotificationWorker) Subscribe(eventType events.EventType, handler events.EventHandler) {
	w.next.Subscribe(eventType, handler)
}

// Publish enqueues event without blocking.
func (w *NotificationWorker) Publish(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWorkerStopped
	}
	select {
	case w.queue <- event:
		return nil
	default:
		w.logger.Warn("notification dropped: queue full",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID))
		return ErrQueueFull
	}
}

// Run delivers queued events until Stop is called and the queue is drained.
// It should be launched in its own goroutine.
func (w *NotificationWorker) Run() {
	defer close(w.done)
	for event := range w.queue {
		w.deliver(event)
	}
}

// Stop refuses new events and waits for Run to drain the queue, or for ctx
// to expire.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *NotificationWorker) deliver(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	if err := w.next.Publish(ctx, event); err != nil {
		w.logger.Error("notification delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another request holds the ticket lock.
var ErrLockHeld = errors.New("ticket lock held by another request")

// releaseScript deletes the key only while it still carries our token, so
// a lock that expired and was re-acquired elsewhere is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TicketLocker serializes writers of a single ticket through Redis.
type TicketLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewTicketLocker builds a locker. A nil client yields a nil locker, whose
// Lock is a no-op.
func NewTicketLocker(r *Redis, ttl time.Duration) *TicketLocker {
	if r == nil || r.Client == nil {
		return nil
	}
	return &TicketLocker{client: r.Client, ttl: ttl, prefix: "helpdesk:ticket-lock:"}
}

// Lock acquires the lock for ticketID and returns its release function.
func (l *TicketLocker) Lock(ctx context.Context, ticketID string) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	key := l.prefix + ticketID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}

	return func() {
		// The request context may already be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}, nil
}

package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tableside/pos-backend/pkg/redis"
)

// Guard remembers which outbox events already reached the broker. The relay
// claims an event before publishing and releases the claim when the publish
// fails, so a crash between publish and the database acknowledgement does not
// produce a second delivery.
type Guard struct {
	store redis.IdempotencyStore
	relay string
	ttl   time.Duration
}

func NewGuard(store redis.IdempotencyStore, relay string, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if relay == "" {
		return nil, errors.New("relay name is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Guard{store: store, relay: relay, ttl: ttl}, nil
}

// Claim returns false when another attempt already published eventID.
func (g *Guard) Claim(ctx context.Context, eventID uuid.UUID) (bool, error) {
	if eventID == uuid.Nil {
		return false, errors.New("event id is required")
	}
	return g.store.SetNX(ctx, g.key(eventID), time.Now().UTC().Format(time.RFC3339), g.ttl)
}

// Release drops a claim after a failed publish.
func (g *Guard) Release(ctx context.Context, eventID uuid.UUID) error {
	return g.store.Del(ctx, g.key(eventID))
}

func (g *Guard) key(eventID uuid.UUID) string {
	return g.store.IdempotencyKey("outbox:"+g.relay, eventID.String())
}

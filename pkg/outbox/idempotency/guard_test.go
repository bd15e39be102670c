package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tableside/pos-backend/pkg/redis"
)

func newGuard(t *testing.T, ttl time.Duration) (*Guard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	guard, err := NewGuard(client, "orders", ttl)
	require.NoError(t, err)
	return guard, mr
}

func TestClaimOnlySucceedsOnce(t *testing.T) {
	guard, mr := newGuard(t, time.Hour)
	ctx := context.Background()
	eventID := uuid.New()

	claimed, err := guard.Claim(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = guard.Claim(ctx, eventID)
	require.NoError(t, err)
	assert.False(t, claimed)

	assert.True(t, mr.Exists("ts:idempotency:outbox:orders:"+eventID.String()))
	assert.Equal(t, time.Hour, mr.TTL("ts:idempotency:outbox:orders:"+eventID.String()))
}

func TestReleaseAllowsAnotherClaim(t *testing.T) {
	guard, _ := newGuard(t, time.Hour)
	ctx := context.Background()
	eventID := uuid.New()

	_, err := guard.Claim(ctx, eventID)
	require.NoError(t, err)
	require.NoError(t, guard.Release(ctx, eventID))

	claimed, err := guard.Claim(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestClaimRejectsNilID(t *testing.T) {
	guard, _ := newGuard(t, time.Hour)
	_, err := guard.Claim(context.Background(), uuid.Nil)
	assert.Error(t, err)
}

func TestNewGuardValidatesInput(t *testing.T) {
	_, err := NewGuard(nil, "orders", time.Hour)
	assert.Error(t, err)
	_, err = NewGuard(&redis.Client{}, "", time.Hour)
	assert.Error(t, err)
	_, err = NewGuard(&redis.Client{}, "orders", -time.Second)
	assert.Error(t, err)
}

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lodge/pkg/adapters/redis"
	"github.com/aretw0/lodge/pkg/domain"
	"github.com/aretw0/lodge/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSessionStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()
	sessionID := "session-ttl"

	require.NoError(t, store.Save(ctx, &domain.Session{ID: sessionID, State: domain.NewState(nil)}))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, sessionID)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	members, err := client.ZCard(ctx, "lodge:session:index").Result()
	require.NoError(t, err)
	assert.Zero(t, members, "expired members are pruned from the index")
}

func TestRedisStore_ListOldestFirst(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, &domain.Session{ID: "late", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, store.Save(ctx, &domain.Session{ID: "early", CreatedAt: base}))
	// Re-saving must not move a session in the index.
	require.NoError(t, store.Save(ctx, &domain.Session{ID: "early", CreatedAt: base, Messages: 3}))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, ids)

	got, err := store.Load(ctx, "early")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Messages)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Session{ID: "my-session"}))

	assert.True(t, mr.Exists("custom:app:my-session"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")
	assert.NoError(t, store.Ping(ctx))
}

func TestRedisStore_DefaultPrefix(t *testing.T) {
	mr, client := newClient(t)

	require.NoError(t, redis.NewFromClient(client).Save(context.Background(), &domain.Session{ID: "abc"}))
	assert.True(t, mr.Exists("lodge:session:abc"))
}

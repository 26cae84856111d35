package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/lodge/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the adapter writes.
const DefaultPrefix = "lodge:session:"

// Store keeps sessions as JSON strings with a per-key TTL. A sorted set
// scored by creation time indexes them so List returns oldest first.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL expires idle sessions. Every Save refreshes the deadline.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New dials addr lazily; call Ping to verify the connection.
func New(addr, password string, db int, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient wraps an existing client, e.g. one shared with a Locker.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client exposes the underlying client so a Locker can share it.
func (s *Store) Client() *backend.Client { return s.client }

func (s *Store) sessionKey(id string) string { return s.prefix + id }

func (s *Store) indexKey() string { return s.prefix + "index" }

// Save writes the session and records it in the index. ZAddNX keeps the
// original creation score across updates.
func (s *Store) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis: encode session %s: %w", session.ID, err)
	}

	created := session.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = s.client.TxPipelined(ctx, func(p backend.Pipeliner) error {
		p.Set(ctx, s.sessionKey(session.ID), data, s.ttl)
		p.ZAddNX(ctx, s.indexKey(), backend.Z{
			Score:  float64(created.UnixNano()),
			Member: session.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: save session %s: %w", session.ID, err)
	}
	return nil
}

// Load returns domain.ErrSessionNotFound for missing or expired keys.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(sessionID)).Bytes()
	switch {
	case errors.Is(err, backend.Nil):
		return nil, domain.ErrSessionNotFound
	case err != nil:
		return nil, fmt.Errorf("redis: load session %s: %w", sessionID, err)
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("redis: decode session %s: %w", sessionID, err)
	}
	return &session, nil
}

// Delete is idempotent.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.client.TxPipelined(ctx, func(p backend.Pipeliner) error {
		p.Del(ctx, s.sessionKey(sessionID))
		p.ZRem(ctx, s.indexKey(), sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: delete session %s: %w", sessionID, err)
	}
	return nil
}

// List returns live session IDs oldest first. Index members whose key has
// expired are removed as a side effect.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list sessions: %w", err)
	}
	if len(ids) == 0 {
		return ids, nil
	}

	checks := make([]*backend.IntCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(p backend.Pipeliner) error {
		for i, id := range ids {
			checks[i] = p.Exists(ctx, s.sessionKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis: list sessions: %w", err)
	}

	live := make([]string, 0, len(ids))
	var stale []any
	for i, id := range ids {
		if checks[i].Val() > 0 {
			live = append(live, id)
			continue
		}
		stale = append(stale, id)
	}
	if len(stale) > 0 {
		if err := s.client.ZRem(ctx, s.indexKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("redis: prune index: %w", err)
		}
	}
	return live, nil
}

// Ping checks connectivity, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

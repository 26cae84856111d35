package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/lodge/pkg/domain"
	"github.com/aretw0/lodge/pkg/ports"
	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheMiddleware struct {
	next  ports.SessionStore
	cache *lru.Cache[string, *domain.Session]
}

// NewCacheMiddleware keeps the most recently used sessions in process so a
// chatty client does not hit the backing store on every turn. Writes go
// through to the store before the cache is refreshed.
func NewCacheMiddleware(size int) (Middleware, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		// Size is validated above, New only fails on non-positive sizes.
		cache, _ := lru.New[string, *domain.Session](size)
		return &cacheMiddleware{next: next, cache: cache}
	}, nil
}

func (m *cacheMiddleware) Save(ctx context.Context, session *domain.Session) error {
	if err := m.next.Save(ctx, session); err != nil {
		m.cache.Remove(session.ID)
		return err
	}
	m.cache.Add(session.ID, session.Clone())
	return nil
}

func (m *cacheMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	if s, ok := m.cache.Get(sessionID); ok {
		return s.Clone(), nil
	}
	s, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	m.cache.Add(sessionID, s.Clone())
	return s, nil
}

func (m *cacheMiddleware) Delete(ctx context.Context, sessionID string) error {
	m.cache.Remove(sessionID)
	return m.next.Delete(ctx, sessionID)
}

func (m *cacheMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

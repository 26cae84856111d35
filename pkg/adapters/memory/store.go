package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/aretw0/lodge/pkg/domain"
)

// Store keeps live conversations in process memory. Sessions are cloned on
// the way in and out, so callers never share transcript slices with the
// store. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*domain.Session)}
}

func (s *Store) Save(_ context.Context, session *domain.Session) error {
	snapshot := session.Clone()

	s.mu.Lock()
	s.sessions[snapshot.ID] = snapshot
	s.mu.Unlock()
	return nil
}

func (s *Store) Load(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// List returns session IDs, oldest conversation first.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	all := make([]*domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		all = append(all, session)
	}
	s.mu.RUnlock()

	slices.SortFunc(all, func(a, b *domain.Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	ids := make([]string, len(all))
	for i, session := range all {
		ids[i] = session.ID
	}
	return ids, nil
}

// Len reports how many sessions are held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

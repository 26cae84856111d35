package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/lodge/internal/logging"
	"github.com/aretw0/lodge/pkg/domain"
	"github.com/aretw0/lodge/pkg/ports"
)

// ErrSessionExists is returned by Create when the ID is already taken.
var ErrSessionExists = errors.New("session already exists")

const defaultLockTTL = 30 * time.Second

// Manager serialises every read-modify-write on a session. Turns for the
// same ID run one at a time in this process; a SessionLocker extends that
// guarantee across replicas sharing a store.
type Manager struct {
	store  ports.SessionStore
	locks  *keyedMutex
	locker ports.SessionLocker

	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker adds a cross-process lock taken after the local one.
func WithLocker(locker ports.SessionLocker) Option {
	return func(m *Manager) { m.locker = locker }
}

// WithLockTTL bounds how long a cross-process lock may be held.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   newKeyedMutex(),
		lockTTL: defaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create persists a brand new session. It fails with ErrSessionExists if the
// ID is already in use.
func (m *Manager) Create(ctx context.Context, s *domain.Session) error {
	return m.WithLock(ctx, s.ID, func(ctx context.Context) error {
		_, err := m.store.Load(ctx, s.ID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", ErrSessionExists, s.ID)
		case !errors.Is(err, domain.ErrSessionNotFound):
			return fmt.Errorf("session %s: check existence: %w", s.ID, err)
		}
		return m.store.Save(ctx, s)
	})
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.store.Load(ctx, sessionID)
		return err
	})
	return s, err
}

// Update runs a read-modify-write cycle under the session lock. The session
// is saved only when fn returns nil.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(context.Context, *domain.Session) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(ctx, s); err != nil {
			return err
		}
		return m.store.Save(ctx, s)
	})
}

// Save persists the session.
func (m *Manager) Save(ctx context.Context, s *domain.Session) error {
	return m.WithLock(ctx, s.ID, func(ctx context.Context) error {
		return m.store.Save(ctx, s)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock runs fn while holding the session's lock.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	unlock := m.locks.Lock(sessionID)
	defer unlock()

	if m.locker == nil {
		return fn(ctx)
	}

	release, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
	if err != nil {
		return fmt.Errorf("session %s: acquire lock: %w", sessionID, err)
	}
	defer func() {
		// The lock still expires after lockTTL if this fails.
		if err := release(ctx); err != nil {
			m.logger.Warn("session lock release failed", "session_id", sessionID, "err", err)
		}
	}()
	return fn(ctx)
}

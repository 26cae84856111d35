package ports

import (
	"context"

	"github.com/aretw0/lodge/pkg/domain"
)

// SessionStore defines the interface for persisting live conversations.
// Implementations must return copies: mutating a loaded Session must not
// affect the stored record until Save is called.
type SessionStore interface {
	// Save persists the session under session.ID.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves the session for a given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for a given ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns all active session IDs.
	List(ctx context.Context) ([]string, error)
}

package ports

import (
	"context"

	"github.com/aretw0/lodge/pkg/domain"
)

// Finalizer consumes the payload of a completed conversation. The lifecycle
// service calls each configured Finalizer once per session.
type Finalizer interface {
	Finalize(ctx context.Context, session *domain.Session, payload *domain.FinalizationPayload) error
}

// FinalizerFunc adapts a function to the Finalizer interface.
type FinalizerFunc func(ctx context.Context, session *domain.Session, payload *domain.FinalizationPayload) error

// Finalize calls f.
func (f FinalizerFunc) Finalize(ctx context.Context, session *domain.Session, payload *domain.FinalizationPayload) error {
	return f(ctx, session, payload)
}

package lifecycle

import (
	"context"
	"log/slog"

	"github.com/aretw0/lodge/pkg/domain"
)

// LogFinalizer writes each completed conversation to the log. It never fails.
type LogFinalizer struct {
	Logger *slog.Logger
}

// Finalize logs the outcome and what was collected, without the email itself.
func (l LogFinalizer) Finalize(ctx context.Context, sess *domain.Session, p *domain.FinalizationPayload) error {
	l.Logger.InfoContext(ctx, "conversation completed",
		"session_id", sess.ID,
		"outcome", p.Outcome,
		"has_email", p.ContactEmail != nil,
		"prefilled", p.Filters.Prefilled,
		"turns", len(p.Transcript),
	)
	return nil
}

package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/lodge/pkg/domain"
)

// Engine drives the pure transition function and reports what happened
// through hooks and logs. It holds no per-session state.
type Engine struct {
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	now    func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start creates the initial state for a session and its opening prompt.
func (e *Engine) Start(ctx context.Context, sessionID string, seed *domain.SeedFilters) (domain.ConversationState, []domain.Prompt) {
	state := domain.NewState(seed)
	e.logger.DebugContext(ctx, "conversation started",
		"session_id", sessionID,
		"prefilled", state.Filters.Prefilled,
	)
	if e.hooks.OnTransition != nil {
		e.hooks.OnTransition(ctx, &domain.StepEvent{
			EventBase: e.base(domain.EventTransition, sessionID),
			To:        domain.StepInitial,
		})
	}
	return state, Opening()
}

// Submit applies one user input to state.
func (e *Engine) Submit(ctx context.Context, sessionID string, state domain.ConversationState, input string) (domain.Result, error) {
	if !state.Step.Valid() {
		return domain.Result{}, fmt.Errorf("%w: %q", domain.ErrInvalidStep, state.Step)
	}

	res := Transition(state, input)

	from, to := state.Step, res.State.Step
	switch {
	case from.Terminal():
		e.logger.DebugContext(ctx, "input ignored on completed session", "session_id", sessionID)
	case from == to:
		e.logger.InfoContext(ctx, "re-prompt", "session_id", sessionID, "step", from)
		if e.hooks.OnReprompt != nil {
			e.hooks.OnReprompt(ctx, &domain.StepEvent{
				EventBase: e.base(domain.EventReprompt, sessionID),
				From:      from,
				To:        to,
			})
		}
	default:
		e.logger.DebugContext(ctx, "transition", "session_id", sessionID, "from", from, "to", to)
		if e.hooks.OnTransition != nil {
			e.hooks.OnTransition(ctx, &domain.StepEvent{
				EventBase: e.base(domain.EventTransition, sessionID),
				From:      from,
				To:        to,
			})
		}
	}

	if res.Finalize != nil {
		e.logger.InfoContext(ctx, "conversation finalized",
			"session_id", sessionID,
			"outcome", res.Finalize.Outcome,
		)
		if e.hooks.OnFinalize != nil {
			e.hooks.OnFinalize(ctx, &domain.FinalizeEvent{
				EventBase: e.base(domain.EventFinalize, sessionID),
				Outcome:   res.Finalize.Outcome,
			})
		}
	}

	return res, nil
}

// Edges returns the declared transition table for introspection.
func (e *Engine) Edges() []domain.Edge {
	return Edges()
}

func (e *Engine) base(t domain.EventType, sessionID string) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, SessionID: sessionID}
}

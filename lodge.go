package lodge

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/lodge/internal/runtime"
	"github.com/aretw0/lodge/pkg/domain"
)

// Engine is the high-level entry point for the Lodge library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime *runtime.Engine
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time
	Name    string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithName labels the engine in logs.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New initializes a new Lodge Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("engine", eng.Name)
	}

	eng.runtime = runtime.NewEngine(
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithClock(eng.now),
	)
	return eng
}

// Start creates the initial state for a conversation and returns the opening prompt.
// A nil seed starts a fresh conversation; a non-nil seed marks it prefilled.
func (e *Engine) Start(ctx context.Context, sessionID string, seed *domain.SeedFilters) (domain.ConversationState, []domain.Prompt) {
	return e.runtime.Start(ctx, sessionID, seed)
}

// Submit applies one user input and returns the next state, the prompts to
// show, and the finalization payload when the dialog has just completed.
func (e *Engine) Submit(ctx context.Context, sessionID string, state domain.ConversationState, input string) (domain.Result, error) {
	return e.runtime.Submit(ctx, sessionID, state, input)
}

// Edges returns the declared transition table for visualization or introspection tools.
func (e *Engine) Edges() []domain.Edge {
	return e.runtime.Edges()
}

// Transition is the pure transition function, exposed for callers that
// manage hooks and logging themselves.
func Transition(state domain.ConversationState, input string) domain.Result {
	return runtime.Transition(state, input)
}

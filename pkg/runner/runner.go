package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/lodge/pkg/domain"
)

// Conversation is the service the Runner talks to.
type Conversation interface {
	Initiate(ctx context.Context, req domain.InitiateRequest) (*domain.Reply, error)
	Submit(ctx context.Context, sessionID, text string) (*domain.Reply, error)
}

// Runner drives one conversation through an IOHandler.
type Runner struct {
	conversation Conversation
	handler      IOHandler
	logger       *slog.Logger
	request      domain.InitiateRequest
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.handler = handler
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithInitiateRequest seeds the conversation, e.g. with search criteria.
func WithInitiateRequest(req domain.InitiateRequest) Option {
	return func(r *Runner) {
		r.request = req
	}
}

// NewRunner creates a Runner that defaults to a TextHandler on Stdin/Stdout.
func NewRunner(conversation Conversation, opts ...Option) *Runner {
	r := &Runner{
		conversation: conversation,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run executes the loop until the conversation completes, input ends, or ctx
// is cancelled. It returns the final reply.
func (r *Runner) Run(ctx context.Context) (*domain.Reply, error) {
	reply, err := r.conversation.Initiate(ctx, r.request)
	if err != nil {
		return nil, fmt.Errorf("initiate: %w", err)
	}
	r.logger.Debug("conversation started", "session_id", reply.SessionID)

	for {
		if err := r.handler.Output(ctx, reply); err != nil {
			return reply, fmt.Errorf("output error: %w", err)
		}
		if reply.Completed {
			return reply, nil
		}

		text, err := r.handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return reply, nil
			}
			return reply, err
		}

		next, err := r.conversation.Submit(ctx, reply.SessionID, text)
		switch {
		case errors.Is(err, ErrInputTooLarge), errors.Is(err, ErrInvalidUTF8):
			if err := r.handler.SystemOutput(ctx, err.Error()+". Please try again."); err != nil {
				return reply, err
			}
			// Show the same prompts again.
			continue
		case err != nil:
			return reply, err
		}
		reply = next
	}
}

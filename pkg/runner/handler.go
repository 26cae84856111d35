package runner

import (
	"context"

	"github.com/aretw0/lodge/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Output presents the bot prompts of one reply.
	Output(ctx context.Context, reply *domain.Reply) error

	// Input reads a response from the user.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (e.g. a rejected input).
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms prompt text before it is written, e.g. markdown
// to ANSI, without coupling this package to a terminal library.
type ContentRenderer func(string) (string, error)

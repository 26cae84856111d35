package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/lodge"
	"github.com/aretw0/lodge/internal/presentation/tui"
	"github.com/aretw0/lodge/pkg/domain"
	"github.com/aretw0/lodge/pkg/runner"
)

// ChatOptions configures a terminal conversation.
type ChatOptions struct {
	JSON     bool
	UserID   string
	Criteria map[string]any
	In       io.Reader
	Out      io.Writer
}

// RunChat runs one conversation against app on the terminal.
func RunChat(ctx context.Context, app *App, opts ChatOptions) (*domain.Reply, error) {
	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	} else {
		var hopts []runner.TextHandlerOption
		if tui.IsTerminal(opts.Out) {
			tui.PrintBanner(opts.Out, lodge.Version)
			hopts = append(hopts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
		}
		handler = runner.NewTextHandler(opts.In, opts.Out, hopts...)
	}

	r := runner.NewRunner(app.Service,
		runner.WithInputHandler(handler),
		runner.WithLogger(app.Logger),
		runner.WithInitiateRequest(domain.InitiateRequest{
			UserID:         opts.UserID,
			SearchCriteria: opts.Criteria,
		}),
	)

	reply, err := r.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return reply, fmt.Errorf("chat failed: %w", err)
	}
	return reply, nil
}

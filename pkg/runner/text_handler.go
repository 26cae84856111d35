package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/lodge/pkg/domain"
)

// TextHandler drives a line-oriented terminal. Options are listed with
// numbers and a bare number picks the matching option.
type TextHandler struct {
	in       io.Reader
	out      io.Writer
	renderer ContentRenderer

	lines     chan readResult
	startRead sync.Once

	mu      sync.Mutex
	offered []string
}

type readResult struct {
	text string
	err  error
}

// TextHandlerOption configures a TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer post-processes every prompt, e.g. markdown to ANSI.
// A renderer error leaves the prompt unchanged.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) { h.renderer = renderer }
}

// NewTextHandler defaults to stdin and stdout when r or w is nil.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{in: r, out: w}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Output(_ context.Context, reply *domain.Reply) error {
	var offered []string
	var b strings.Builder
	for _, p := range reply.Prompts {
		text := h.render(p.Text)
		if p.Hint {
			text = "(" + text + ")"
		}
		b.WriteString(text)
		b.WriteByte('\n')
		if p.Options != nil {
			offered = p.Options
		}
	}
	for i, opt := range offered {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, opt)
	}

	h.mu.Lock()
	h.offered = offered
	h.mu.Unlock()

	_, err := io.WriteString(h.out, b.String())
	return err
}

// Input honours ctx even while the reader is blocked; the pending line is
// kept for the next call.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h.startRead.Do(func() {
		h.lines = make(chan readResult)
		go h.readLines()
	})
	fmt.Fprint(h.out, "> ")

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-h.lines:
		switch {
		case !ok:
			return "", io.EOF
		case l.err != nil:
			return "", l.err
		}
		return h.pick(strings.TrimSpace(l.text)), nil
	}
}

func (h *TextHandler) SystemOutput(_ context.Context, msg string) error {
	_, err := fmt.Fprintf(h.out, "[System] %s\n", msg)
	return err
}

func (h *TextHandler) readLines() {
	defer close(h.lines)
	sc := bufio.NewScanner(h.in)
	for sc.Scan() {
		h.lines <- readResult{text: sc.Text()}
	}
	if err := sc.Err(); err != nil {
		h.lines <- readResult{err: err}
	}
}

func (h *TextHandler) render(text string) string {
	if h.renderer == nil {
		return text
	}
	out, err := h.renderer(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

// pick maps "2" to the second offered option. Anything else is free text.
func (h *TextHandler) pick(text string) string {
	n, err := strconv.Atoi(text)
	if err != nil {
		return text
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if n < 1 || n > len(h.offered) {
		return text
	}
	return h.offered[n-1]
}

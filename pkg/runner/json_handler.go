package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/lodge/pkg/domain"
)

// JSONHandler speaks JSON Lines: every reply is one encoded domain.Reply and
// every input line is a JSON string, an object carrying "message" or "text",
// or bare text.
type JSONHandler struct {
	scanner *bufio.Scanner

	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONHandler defaults to stdin and stdout when r or w is nil.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	return &JSONHandler{scanner: sc, enc: json.NewEncoder(w)}
}

func (h *JSONHandler) Output(_ context.Context, reply *domain.Reply) error {
	return h.encode(reply)
}

// SystemOutput emits {"system": msg}.
func (h *JSONHandler) SystemOutput(_ context.Context, msg string) error {
	return h.encode(map[string]string{"system": msg})
}

// Input skips blank lines and returns io.EOF once the stream is drained.
func (h *JSONHandler) Input(_ context.Context) (string, error) {
	for h.scanner.Scan() {
		line := strings.TrimSpace(h.scanner.Text())
		if line == "" {
			continue
		}
		return decodeLine(line), nil
	}
	if err := h.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (h *JSONHandler) encode(v any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enc.Encode(v)
}

func decodeLine(line string) string {
	switch line[0] {
	case '"':
		var s string
		if json.Unmarshal([]byte(line), &s) == nil {
			return s
		}
	case '{':
		var env struct {
			Message *string `json:"message"`
			Text    *string `json:"text"`
		}
		if json.Unmarshal([]byte(line), &env) == nil {
			if env.Message != nil {
				return *env.Message
			}
			if env.Text != nil {
				return *env.Text
			}
		}
	}
	return line
}

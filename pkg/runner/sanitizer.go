package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize bounds one chat message in bytes.
const DefaultMaxInputSize = 4096

// EnvMaxInputSize overrides DefaultMaxInputSize.
const EnvMaxInputSize = "LODGE_MAX_INPUT_SIZE"

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput cleans one chat message using the limit from the environment
// or DefaultMaxInputSize.
func SanitizeInput(input string) (string, error) {
	return SanitizeInputLimit(input, limitFromEnv())
}

// SanitizeInputLimit rejects messages over limit bytes or with invalid UTF-8,
// then drops control and invisible format characters. Newlines and tabs
// survive; CRLF becomes LF. A non-positive limit falls back to the
// environment or default.
//
// Format characters (zero-width spaces, BOMs, bidi overrides) are removed so
// a pasted answer carrying one still matches an option.
func SanitizeInputLimit(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = limitFromEnv()
	}
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	input = strings.ReplaceAll(input, "\r\n", "\n")
	if strings.IndexFunc(input, unwanted) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if unwanted(r) {
			return -1
		}
		return r
	}, input), nil
}

func unwanted(r rune) bool {
	switch r {
	case '\n', '\t':
		return false
	}
	return unicode.IsControl(r) || unicode.Is(unicode.Cf, r)
}

func limitFromEnv() int {
	if n, err := strconv.Atoi(os.Getenv(EnvMaxInputSize)); err == nil && n > 0 {
		return n
	}
	return DefaultMaxInputSize
}

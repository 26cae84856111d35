package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinLocationLength is the shortest location answer accepted.
const MinLocationLength = 3

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,6}$`)

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// ValidLocation reports whether s is long enough to search for.
func ValidLocation(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= MinLocationLength
}

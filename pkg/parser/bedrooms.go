package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/lodge/pkg/domain"
)

var (
	minPattern   = regexp.MustCompile(`\bmin(?:imum)?(?:\s+of)?\s*(\d+)`)
	maxPattern   = regexp.MustCompile(`\bmax(?:imum)?(?:\s+of)?\s*(\d+)`)
	rangePattern = regexp.MustCompile(`(\d+)\s*(?:-|–|to)\s*(\d+)`)
	plusPattern  = regexp.MustCompile(`^(\d+)\s*\+$`)
	barePattern  = regexp.MustCompile(`^\d+$`)
	noMinPattern = regexp.MustCompile(`\b(?:no|any)\s+min(?:imum)?\b`)
	noMaxPattern = regexp.MustCompile(`\b(?:no|any)\s+max(?:imum)?\b`)
)

// ParseBedrooms extracts a bedroom range from free text.
//
// Rules stack in order: "min N", "max N", then "N-M" / "N to M" (overriding
// both one-sided matches), then a bare integer or "N+". "no min" / "any min"
// clear the lower bound (likewise for max). "studio" short-circuits to 0/0.
// An empty range means nothing could be understood.
func ParseBedrooms(text string) domain.Range[int] {
	s := strings.ToLower(strings.TrimSpace(text))
	if strings.Contains(s, "studio") {
		return domain.NewRange(0, 0)
	}

	var r domain.Range[int]
	if m := minPattern.FindStringSubmatch(s); m != nil {
		r.Min = atoi(m[1])
	}
	if m := maxPattern.FindStringSubmatch(s); m != nil {
		r.Max = atoi(m[1])
	}
	if m := rangePattern.FindStringSubmatch(s); m != nil {
		r.Min = atoi(m[1])
		r.Max = atoi(m[2])
	}
	if barePattern.MatchString(s) {
		r.Min = atoi(s)
		r.Max = atoi(s)
	}
	if m := plusPattern.FindStringSubmatch(s); m != nil {
		r.Min = atoi(m[1])
	}

	if noMinPattern.MatchString(s) {
		r.Min = nil
	}
	if noMaxPattern.MatchString(s) {
		r.Max = nil
	}

	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	return r
}

func atoi(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

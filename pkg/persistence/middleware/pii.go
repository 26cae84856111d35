package middleware

import (
	"context"
	"regexp"
	"strings"

	"github.com/aretw0/lodge/pkg/domain"
	"github.com/aretw0/lodge/pkg/ports"
)

const masked = "***"

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}`)

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks personal data at rest:
// criteria values whose keys match the patterns, the contact email, and any
// email address typed into the transcript. Masking is one-way, so it belongs
// in front of stores that outlive the finalizers.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, session *domain.Session) error {
	// Clone so the caller's in-memory session stays intact.
	cloned := session.Clone()

	maskMap(cloned.InitialCriteria, m.patterns)
	if cloned.State.ContactEmail != nil {
		cloned.State.ContactEmail = domain.Ptr(MaskEmail(*cloned.State.ContactEmail))
	}
	for i, turn := range cloned.Transcript {
		if turn.Speaker == domain.SpeakerUser {
			cloned.Transcript[i].Text = emailPattern.ReplaceAllStringFunc(turn.Text, MaskEmail)
		}
	}

	return m.next.Save(ctx, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return masked
	}
	return email[:1] + masked + email[at:]
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = masked
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}

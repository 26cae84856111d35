package domain

import (
	"slices"
	"time"
)

// Session is the adapter-side record of one dialog: the machine state plus
// the transcript and bookkeeping the lifecycle adapter needs.
type Session struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id,omitempty"`
	State           ConversationState `json:"state"`
	Transcript      []Turn            `json:"transcript"`
	InitialCriteria map[string]any    `json:"initial_criteria,omitempty"`
	Messages        int               `json:"messages"`
	Active          bool              `json:"active"`
	CreatedAt       time.Time         `json:"created_at"`
	ClosedAt        *time.Time        `json:"closed_at,omitempty"`
}

// Clone returns a copy that shares no mutable memory with s.
func (s *Session) Clone() *Session {
	out := *s
	out.Transcript = slices.Clone(s.Transcript)
	out.InitialCriteria = deepCopyMap(s.InitialCriteria)
	if s.ClosedAt != nil {
		closed := *s.ClosedAt
		out.ClosedAt = &closed
	}
	return &out
}

// Append adds turns to the transcript.
func (s *Session) Append(turns ...Turn) {
	s.Transcript = append(s.Transcript, turns...)
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(sub)
		} else {
			out[k] = v
		}
	}
	return out
}

package domain

import "time"

// Speaker identifies the author of a transcript turn.
type Speaker string

const (
	SpeakerBot  Speaker = "bot"
	SpeakerUser Speaker = "user"
)

// Prompt is a bot message. When Options is non-nil the frontend renders them
// as buttons, but free text is still accepted.
type Prompt struct {
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`

	// Hint marks secondary guidance (e.g. accepted answer formats).
	Hint bool `json:"hint,omitempty"`
}

// Turn is one append-only transcript record.
type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Options   []string  `json:"offeredOptions,omitempty"`
	Hint      bool      `json:"hint,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BotTurn converts a prompt into a transcript record.
func BotTurn(p Prompt, at time.Time) Turn {
	return Turn{
		Speaker:   SpeakerBot,
		Text:      p.Text,
		Options:   p.Options,
		Hint:      p.Hint,
		Timestamp: at,
	}
}

// UserTurn records raw user input.
func UserTurn(text string, at time.Time) Turn {
	return Turn{Speaker: SpeakerUser, Text: text, Timestamp: at}
}

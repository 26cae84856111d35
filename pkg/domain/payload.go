package domain

import "time"

// Outcome distinguishes the terminal paths of the dialog.
type Outcome string

const (
	OutcomeDeclined   Outcome = "declined"   // User said no to the opening question
	OutcomeCompleted  Outcome = "completed"  // Full flow ending with an email
	OutcomeRegistered Outcome = "registered" // Pre-approved loan branch
)

// FinalFilters is the sparse form of Filters: every unset field is dropped.
type FinalFilters struct {
	Location        *string         `json:"location,omitempty"`
	PropertyType    *string         `json:"propertyType,omitempty"`
	PropertySubtype *string         `json:"propertySubtype,omitempty"`
	Bedrooms        *Range[int]     `json:"bedrooms,omitempty"`
	Price           *Range[float64] `json:"price,omitempty"`
	Prefilled       bool            `json:"prefilled,omitempty"`
}

// SummaryEntry is one transcript line of the completion summary.
type SummaryEntry struct {
	Sender    Speaker   `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Options   []string  `json:"options,omitempty"`
}

// FinalizationPayload is emitted exactly once when a session completes.
type FinalizationPayload struct {
	Outcome      Outcome        `json:"outcome"`
	Filters      FinalFilters   `json:"filters"`
	Preferences  Preferences    `json:"preferences"`
	ContactEmail *string        `json:"contactEmail,omitempty"`
	Transcript   []SummaryEntry `json:"transcript,omitempty"`
}

// Sparse projects the state filters into their sparse form.
func (f Filters) Sparse() FinalFilters {
	return FinalFilters{
		Location:        f.Location,
		PropertyType:    f.PropertyType,
		PropertySubtype: f.PropertySubtype,
		Bedrooms:        f.Bedrooms.Ptr(),
		Price:           f.Price.Ptr(),
		Prefilled:       f.Prefilled,
	}
}

// Result is the output of a single transition.
type Result struct {
	State    ConversationState    `json:"state"`
	Prompts  []Prompt             `json:"prompts"`
	Finalize *FinalizationPayload `json:"finalize,omitempty"`
}

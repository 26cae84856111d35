package domain

// InitiateRequest starts a conversation. SearchCriteria is the loosely typed
// filter object a search form posts; nil means a fresh conversation.
type InitiateRequest struct {
	UserID         string         `json:"userId,omitempty"`
	SearchCriteria map[string]any `json:"search_criteria,omitempty"`
}

// Reply is what a transport sends back after Initiate or Submit.
type Reply struct {
	SessionID string   `json:"sessionId"`
	Step      Step     `json:"step"`
	Prompts   []Prompt `json:"prompts"`
	Completed bool     `json:"completed"`
	Outcome   Outcome  `json:"outcome,omitempty"`
}

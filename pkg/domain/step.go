package domain

// Step is the current position of a session in the conversation.
type Step string

const (
	StepInitial               Step = "Initial"
	StepConfirmFilters        Step = "ConfirmFilters"
	StepEditLocation          Step = "EditLocation"
	StepChoosePropertyType    Step = "ChoosePropertyType"
	StepAskBedrooms           Step = "AskBedrooms"
	StepAskPublicTransport    Step = "AskPublicTransport"
	StepAskSchools            Step = "AskSchools"
	StepAskTimeline           Step = "AskTimeline"
	StepAskFinancialReadiness Step = "AskFinancialReadiness"
	StepAskEmail              Step = "AskEmail"
	StepCompleted             Step = "Completed" // Sink state
)

// Steps lists every member of the step set in dialog order.
var Steps = []Step{
	StepInitial,
	StepConfirmFilters,
	StepEditLocation,
	StepChoosePropertyType,
	StepAskBedrooms,
	StepAskPublicTransport,
	StepAskSchools,
	StepAskTimeline,
	StepAskFinancialReadiness,
	StepAskEmail,
	StepCompleted,
}

// Valid reports whether s is a member of the enumerated step set.
func (s Step) Valid() bool {
	for _, known := range Steps {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether s is the absorbing Completed step.
func (s Step) Terminal() bool {
	return s == StepCompleted
}

// Edge is one declared transition of the dialog, used for introspection.
type Edge struct {
	From  Step   `json:"from"`
	To    Step   `json:"to"`
	Label string `json:"label,omitempty"`
}

package runtime

import (
	"slices"
	"strings"

	"github.com/aretw0/lodge/pkg/domain"
	"github.com/aretw0/lodge/pkg/format"
	"github.com/aretw0/lodge/pkg/parser"
)

// move is what a step handler decides: where to go next and what to say.
// A handler that stays on its own step must not mutate the state.
type move struct {
	next    domain.Step
	prompts []domain.Prompt
	outcome domain.Outcome
}

type handler func(s *domain.ConversationState, input string) move

var table = map[domain.Step]handler{
	domain.StepInitial:               onInitial,
	domain.StepConfirmFilters:        onConfirmFilters,
	domain.StepEditLocation:          onEditLocation,
	domain.StepChoosePropertyType:    onChoosePropertyType,
	domain.StepAskBedrooms:           onAskBedrooms,
	domain.StepAskPublicTransport:    onAskPublicTransport,
	domain.StepAskSchools:            onAskSchools,
	domain.StepAskTimeline:           onAskTimeline,
	domain.StepAskFinancialReadiness: onAskFinancialReadiness,
	domain.StepAskEmail:              onAskEmail,
}

// edges mirrors the handlers above; it is what introspection exposes.
var edges = []domain.Edge{
	{From: domain.StepInitial, To: domain.StepConfirmFilters, Label: domain.OptionYesPlease + " (prefilled)"},
	{From: domain.StepInitial, To: domain.StepEditLocation, Label: domain.OptionYesPlease},
	{From: domain.StepInitial, To: domain.StepCompleted, Label: "decline"},
	{From: domain.StepConfirmFilters, To: domain.StepAskPublicTransport, Label: domain.OptionConfirm},
	{From: domain.StepConfirmFilters, To: domain.StepEditLocation, Label: domain.OptionEdit},
	{From: domain.StepConfirmFilters, To: domain.StepConfirmFilters, Label: "unrecognised"},
	{From: domain.StepEditLocation, To: domain.StepChoosePropertyType, Label: "location"},
	{From: domain.StepEditLocation, To: domain.StepEditLocation, Label: "too short"},
	{From: domain.StepChoosePropertyType, To: domain.StepAskBedrooms, Label: "residential"},
	{From: domain.StepChoosePropertyType, To: domain.StepAskPublicTransport, Label: "other type"},
	{From: domain.StepChoosePropertyType, To: domain.StepAskPublicTransport, Label: domain.PropertySubtypeStudio},
	{From: domain.StepAskBedrooms, To: domain.StepAskPublicTransport, Label: "bedrooms"},
	{From: domain.StepAskBedrooms, To: domain.StepAskBedrooms, Label: "unparsable"},
	{From: domain.StepAskPublicTransport, To: domain.StepAskSchools},
	{From: domain.StepAskSchools, To: domain.StepAskTimeline},
	{From: domain.StepAskTimeline, To: domain.StepAskFinancialReadiness, Label: domain.TimelineASAP},
	{From: domain.StepAskTimeline, To: domain.StepAskEmail, Label: "later"},
	{From: domain.StepAskFinancialReadiness, To: domain.StepCompleted, Label: domain.OptionYes},
	{From: domain.StepAskFinancialReadiness, To: domain.StepAskEmail, Label: "no / declined"},
	{From: domain.StepAskEmail, To: domain.StepCompleted, Label: "email"},
	{From: domain.StepAskEmail, To: domain.StepAskEmail, Label: "invalid"},
}

// Edges returns the declared transition table.
func Edges() []domain.Edge {
	return slices.Clone(edges)
}

// Opening returns the fixed first prompt of every conversation.
func Opening() []domain.Prompt {
	return []domain.Prompt{openingPrompt()}
}

// Transition is the pure step function of the dialog. Completed is
// absorbing, and the finalize payload is emitted at most once per state
// lineage thanks to the Finalized latch.
func Transition(state domain.ConversationState, input string) domain.Result {
	if state.Step.Terminal() || state.Finalized {
		return domain.Result{State: state}
	}
	h, ok := table[state.Step]
	if !ok {
		return domain.Result{State: state}
	}

	next := state
	m := h(&next, strings.TrimSpace(input))
	next.Step = m.next

	res := domain.Result{State: next, Prompts: m.prompts}
	if next.Step.Terminal() {
		res.State.Finalized = true
		res.Finalize = &domain.FinalizationPayload{
			Outcome:      m.outcome,
			Filters:      next.Filters.Sparse(),
			Preferences:  next.Preferences,
			ContactEmail: next.ContactEmail,
		}
	}
	return res
}

func stay(s *domain.ConversationState, prompts ...domain.Prompt) move {
	return move{next: s.Step, prompts: prompts}
}

func onInitial(s *domain.ConversationState, input string) move {
	if input != domain.OptionYesPlease {
		return move{
			next:    domain.StepCompleted,
			prompts: []domain.Prompt{{Text: farewellText}},
			outcome: domain.OutcomeDeclined,
		}
	}
	if s.Filters.Prefilled {
		return move{next: domain.StepConfirmFilters, prompts: []domain.Prompt{confirmPrompt(s.Filters)}}
	}
	return move{next: domain.StepEditLocation, prompts: []domain.Prompt{askLocationPrompt()}}
}

func onConfirmFilters(s *domain.ConversationState, input string) move {
	switch input {
	case domain.OptionConfirm:
		return move{next: domain.StepAskPublicTransport, prompts: []domain.Prompt{yesNo(publicTransportText)}}
	case domain.OptionEdit:
		return move{next: domain.StepEditLocation, prompts: []domain.Prompt{askLocationPrompt()}}
	default:
		return stay(s, domain.Prompt{Text: confirmReprompt, Options: confirmOptions()})
	}
}

func onEditLocation(s *domain.ConversationState, input string) move {
	if !parser.ValidLocation(input) {
		return stay(s, domain.Prompt{Text: locationTooShort})
	}
	s.Filters.Location = domain.Ptr(input)
	return move{
		next:    domain.StepChoosePropertyType,
		prompts: []domain.Prompt{{Text: propertyTypeText, Options: domain.PropertyTypeLabels()}},
	}
}

// onChoosePropertyType accepts a top-level label or one of its subtypes. A
// subtype is stored with its parent; Studio fixes the bedrooms at 0/0.
func onChoosePropertyType(s *domain.ConversationState, input string) move {
	topLevel := input
	if parent, ok := domain.ParentPropertyType(input); ok {
		topLevel = parent
		s.Filters.PropertySubtype = domain.Ptr(input)
	}
	s.Filters.PropertyType = domain.Ptr(topLevel)

	switch {
	case input == domain.PropertySubtypeStudio:
		s.Filters.Bedrooms = domain.NewRange(0, 0)
		return move{
			next:    domain.StepAskPublicTransport,
			prompts: []domain.Prompt{{Text: format.BedroomSummary(s.Filters.Bedrooms)}, yesNo(publicTransportText)},
		}
	case topLevel == domain.PropertyTypeResidential:
		return move{
			next:    domain.StepAskBedrooms,
			prompts: []domain.Prompt{{Text: bedroomsText}, bedroomsHintPrompt()},
		}
	}
	return move{next: domain.StepAskPublicTransport, prompts: []domain.Prompt{yesNo(publicTransportText)}}
}

func onAskBedrooms(s *domain.ConversationState, input string) move {
	beds := parser.ParseBedrooms(input)
	if beds.IsZero() {
		return stay(s, domain.Prompt{Text: bedroomsError}, bedroomsHintPrompt())
	}
	s.Filters.Bedrooms = beds
	return move{
		next:    domain.StepAskPublicTransport,
		prompts: []domain.Prompt{{Text: format.BedroomSummary(beds)}, yesNo(publicTransportText)},
	}
}

func onAskPublicTransport(s *domain.ConversationState, input string) move {
	s.Preferences.NeedsPublicTransport = domain.Ptr(input == domain.OptionYes)
	return move{next: domain.StepAskSchools, prompts: []domain.Prompt{yesNo(schoolsText)}}
}

func onAskSchools(s *domain.ConversationState, input string) move {
	s.Preferences.NeedsSchools = domain.Ptr(input == domain.OptionYes)
	return move{
		next:    domain.StepAskTimeline,
		prompts: []domain.Prompt{{Text: timelineText, Options: slices.Clone(domain.TimelineOptions)}},
	}
}

func onAskTimeline(s *domain.ConversationState, input string) move {
	s.Preferences.Timeline = domain.Ptr(input)
	if input == domain.TimelineASAP {
		return move{
			next: domain.StepAskFinancialReadiness,
			prompts: []domain.Prompt{{
				Text:    financialText,
				Options: []string{domain.OptionYes, domain.OptionNo, domain.OptionRatherNotSay},
			}},
		}
	}
	return move{next: domain.StepAskEmail, prompts: []domain.Prompt{loanHintPrompt(), {Text: emailText}}}
}

func onAskFinancialReadiness(s *domain.ConversationState, input string) move {
	switch input {
	case domain.OptionYes:
		s.Preferences.HasPreApprovedLoan = domain.LoanApproved
		return move{
			next: domain.StepCompleted,
			prompts: []domain.Prompt{
				loanHintPrompt(),
				{Text: registerText, Options: []string{domain.OptionRegister}},
			},
			outcome: domain.OutcomeRegistered,
		}
	case domain.OptionRatherNotSay:
		s.Preferences.HasPreApprovedLoan = domain.LoanDeclined
	default:
		s.Preferences.HasPreApprovedLoan = domain.LoanNotApproved
	}
	return move{next: domain.StepAskEmail, prompts: []domain.Prompt{loanHintPrompt(), {Text: emailText}}}
}

func onAskEmail(s *domain.ConversationState, input string) move {
	if !parser.ValidEmail(input) {
		return stay(s, domain.Prompt{Text: emailInvalid})
	}
	s.ContactEmail = domain.Ptr(input)
	return move{
		next:    domain.StepCompleted,
		prompts: []domain.Prompt{{Text: thankYouText}},
		outcome: domain.OutcomeCompleted,
	}
}

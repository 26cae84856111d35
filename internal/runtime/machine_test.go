package runtime_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/lodge/internal/runtime"
	"github.com/aretw0/lodge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drive feeds inputs one by one and collects every finalize payload seen.
func drive(state domain.ConversationState, inputs ...string) (domain.Result, []*domain.FinalizationPayload) {
	var last domain.Result
	var finals []*domain.FinalizationPayload
	for _, in := range inputs {
		last = runtime.Transition(state, in)
		if last.Finalize != nil {
			finals = append(finals, last.Finalize)
		}
		state = last.State
	}
	return last, finals
}

func TestTransition_FullFlow(t *testing.T) {
	res, finals := drive(domain.NewState(nil),
		"Yes, please!", "Manchester", "Residential", "2-3", "Yes", "No", "1-3 months", "user@example.com")

	require.Len(t, finals, 1, "finalize must fire exactly once")
	p := finals[0]

	assert.Equal(t, domain.StepCompleted, res.State.Step)
	assert.Equal(t, domain.OutcomeCompleted, p.Outcome)
	assert.Equal(t, "Manchester", *p.Filters.Location)
	assert.Equal(t, "Residential", *p.Filters.PropertyType)
	require.NotNil(t, p.Filters.Bedrooms)
	assert.Equal(t, 2, *p.Filters.Bedrooms.Min)
	assert.Equal(t, 3, *p.Filters.Bedrooms.Max)
	assert.Nil(t, p.Filters.Price)
	assert.True(t, *p.Preferences.NeedsPublicTransport)
	assert.False(t, *p.Preferences.NeedsSchools)
	assert.Equal(t, "1-3 months", *p.Preferences.Timeline)
	assert.Equal(t, domain.LoanStatus(""), p.Preferences.HasPreApprovedLoan)
	assert.Equal(t, "user@example.com", *p.ContactEmail)
}

func TestTransition_DeclineFinalizesEmpty(t *testing.T) {
	res, finals := drive(domain.NewState(nil), "No, thanks.")

	require.Len(t, finals, 1)
	assert.Equal(t, domain.StepCompleted, res.State.Step)
	assert.Equal(t, domain.OutcomeDeclined, finals[0].Outcome)
	require.Len(t, res.Prompts, 1)
	assert.Nil(t, res.Prompts[0].Options)

	raw, err := json.Marshal(finals[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"outcome":"declined","filters":{},"preferences":{}}`, string(raw))
}

func TestTransition_AnyNonAffirmativeOpeningDeclines(t *testing.T) {
	res, finals := drive(domain.NewState(nil), "yes please")
	assert.Equal(t, domain.StepCompleted, res.State.Step)
	assert.Len(t, finals, 1)
}

func TestTransition_Prefilled(t *testing.T) {
	seed := &domain.SeedFilters{
		Location:     domain.Ptr("London"),
		PropertyType: domain.Ptr("Residential"),
		Bedrooms:     domain.NewRange(2, 3),
		Price:        domain.NewRange(200000.0, 400000.0),
	}
	start := domain.NewState(seed)

	res := runtime.Transition(start, "Yes, please!")
	require.Equal(t, domain.StepConfirmFilters, res.State.Step)
	require.Len(t, res.Prompts, 1)
	assert.Contains(t, res.Prompts[0].Text, "2-3 bedroom residential properties in London between £200,000 and £400,000")
	assert.Equal(t, []string{"Confirm", "Edit"}, res.Prompts[0].Options)

	t.Run("Confirm", func(t *testing.T) {
		next := runtime.Transition(res.State, "Confirm")
		assert.Equal(t, domain.StepAskPublicTransport, next.State.Step)
		assert.Equal(t, []string{"Yes", "No"}, next.Prompts[0].Options)
	})

	t.Run("Edit", func(t *testing.T) {
		next := runtime.Transition(res.State, "Edit")
		assert.Equal(t, domain.StepEditLocation, next.State.Step)
		assert.Nil(t, next.Prompts[0].Options)
	})

	t.Run("Out of band input re-prompts", func(t *testing.T) {
		next := runtime.Transition(res.State, "sure, why not")
		assert.Equal(t, res.State, next.State, "state must not change")
		require.Len(t, next.Prompts, 1)
		assert.Equal(t, []string{"Confirm", "Edit"}, next.Prompts[0].Options)
		assert.Nil(t, next.Finalize)
	})
}

func TestTransition_PrefilledWithoutCriteria(t *testing.T) {
	res := runtime.Transition(domain.NewState(&domain.SeedFilters{}), "Yes, please!")
	assert.Equal(t, domain.StepConfirmFilters, res.State.Step)
	assert.Contains(t, res.Prompts[0].Text, "previous search details")
}

func TestTransition_LocationTooShort(t *testing.T) {
	state := runtime.Transition(domain.NewState(nil), "Yes, please!").State

	res := runtime.Transition(state, " NY ")
	assert.Equal(t, state, res.State)
	assert.Len(t, res.Prompts, 1)

	res = runtime.Transition(state, "York")
	assert.Equal(t, domain.StepChoosePropertyType, res.State.Step)
	assert.Equal(t, "York", *res.State.Filters.Location)
	assert.Equal(t, domain.PropertyTypeLabels(), res.Prompts[0].Options)
}

func TestTransition_PropertyTypeBranch(t *testing.T) {
	state, _ := drive(domain.NewState(nil), "Yes, please!", "Bristol")

	t.Run("Residential asks bedrooms with a hint", func(t *testing.T) {
		res := runtime.Transition(state.State, "Residential")
		assert.Equal(t, domain.StepAskBedrooms, res.State.Step)
		require.Len(t, res.Prompts, 2)
		assert.False(t, res.Prompts[0].Hint)
		assert.True(t, res.Prompts[1].Hint)
		assert.Nil(t, res.Prompts[0].Options)
		assert.Nil(t, res.Prompts[1].Options)
	})

	t.Run("Other types skip bedrooms", func(t *testing.T) {
		res := runtime.Transition(state.State, "Commercial")
		assert.Equal(t, domain.StepAskPublicTransport, res.State.Step)
		assert.Equal(t, "Commercial", *res.State.Filters.PropertyType)
		assert.Nil(t, res.State.Filters.PropertySubtype)
	})

	t.Run("Residential subtype records its parent and asks bedrooms", func(t *testing.T) {
		res := runtime.Transition(state.State, "Flat")
		assert.Equal(t, domain.StepAskBedrooms, res.State.Step)
		require.NotNil(t, res.State.Filters.PropertySubtype)
		assert.Equal(t, "Flat", *res.State.Filters.PropertySubtype)
		assert.Equal(t, "Residential", *res.State.Filters.PropertyType)
		require.Len(t, res.Prompts, 2)
		assert.True(t, res.Prompts[1].Hint)
	})

	t.Run("Studio fixes bedrooms and skips the question", func(t *testing.T) {
		res := runtime.Transition(state.State, "Studio")
		assert.Equal(t, domain.StepAskPublicTransport, res.State.Step)
		assert.Equal(t, "Residential", *res.State.Filters.PropertyType)
		assert.Equal(t, "Studio", *res.State.Filters.PropertySubtype)
		assert.Equal(t, domain.NewRange(0, 0), res.State.Filters.Bedrooms)
		require.Len(t, res.Prompts, 2)
		assert.Equal(t, "Got it! Looking for studio properties.", res.Prompts[0].Text)
		assert.Equal(t, []string{"Yes", "No"}, res.Prompts[1].Options)
	})

	t.Run("Non-residential subtype skips bedrooms", func(t *testing.T) {
		res := runtime.Transition(state.State, "Office")
		assert.Equal(t, domain.StepAskPublicTransport, res.State.Step)
		assert.Equal(t, "Commercial", *res.State.Filters.PropertyType)
		assert.Equal(t, "Office", *res.State.Filters.PropertySubtype)
	})
}

func TestTransition_Bedrooms(t *testing.T) {
	state, _ := drive(domain.NewState(nil), "Yes, please!", "Bristol", "Residential")

	t.Run("Unparsable re-prompts with hint", func(t *testing.T) {
		res := runtime.Transition(state.State, "purple")
		assert.Equal(t, state.State, res.State)
		require.Len(t, res.Prompts, 2)
		assert.True(t, res.Prompts[1].Hint)
	})

	t.Run("Studio", func(t *testing.T) {
		res := runtime.Transition(state.State, "a studio please")
		assert.Equal(t, domain.StepAskPublicTransport, res.State.Step)
		assert.Equal(t, 0, *res.State.Filters.Bedrooms.Min)
		assert.Equal(t, 0, *res.State.Filters.Bedrooms.Max)
	})

	t.Run("Range acknowledged then transport asked", func(t *testing.T) {
		res := runtime.Transition(state.State, "2 to 4")
		require.Len(t, res.Prompts, 2)
		assert.Equal(t, "Got it! Looking for 2-4 bedroom properties.", res.Prompts[0].Text)
		assert.Equal(t, []string{"Yes", "No"}, res.Prompts[1].Options)
	})
}

func TestTransition_YesNoCoercion(t *testing.T) {
	state, _ := drive(domain.NewState(nil), "Yes, please!", "Bristol", "Land")

	res, _ := drive(state.State, "maybe", "yes")
	assert.False(t, *res.State.Preferences.NeedsPublicTransport)
	assert.False(t, *res.State.Preferences.NeedsSchools, "only the exact literal counts as affirmative")
	assert.Equal(t, domain.TimelineOptions, res.Prompts[0].Options)
}

func TestTransition_FinancialReadiness(t *testing.T) {
	base, _ := drive(domain.NewState(nil), "Yes, please!", "Bristol", "Land", "Yes", "Yes", "ASAP")
	require.Equal(t, domain.StepAskFinancialReadiness, base.State.Step)
	assert.Equal(t, []string{"Yes", "No", "I'd rather not say"}, base.Prompts[0].Options)

	t.Run("Approved loan registers and completes", func(t *testing.T) {
		res := runtime.Transition(base.State, "Yes")
		assert.Equal(t, domain.StepCompleted, res.State.Step)
		require.NotNil(t, res.Finalize)
		assert.Equal(t, domain.OutcomeRegistered, res.Finalize.Outcome)
		assert.Equal(t, domain.LoanApproved, res.Finalize.Preferences.HasPreApprovedLoan)
		assert.Nil(t, res.Finalize.ContactEmail)
		require.Len(t, res.Prompts, 2)
		assert.True(t, res.Prompts[0].Hint)
		assert.Equal(t, []string{"Register"}, res.Prompts[1].Options)
	})

	t.Run("Declined keeps tri-state", func(t *testing.T) {
		res := runtime.Transition(base.State, "I'd rather not say")
		assert.Equal(t, domain.StepAskEmail, res.State.Step)
		assert.Equal(t, domain.LoanDeclined, res.State.Preferences.HasPreApprovedLoan)
		assert.Nil(t, res.Finalize)
	})

	t.Run("Anything else is no", func(t *testing.T) {
		res := runtime.Transition(base.State, "not yet")
		assert.Equal(t, domain.StepAskEmail, res.State.Step)
		assert.Equal(t, domain.LoanNotApproved, res.State.Preferences.HasPreApprovedLoan)
		require.Len(t, res.Prompts, 2)
		assert.True(t, res.Prompts[0].Hint)
	})
}

func TestTransition_NonUrgentTimelineAsksEmail(t *testing.T) {
	res, _ := drive(domain.NewState(nil), "Yes, please!", "Bristol", "Land", "No", "No", "6+ months")
	assert.Equal(t, domain.StepAskEmail, res.State.Step)
	require.Len(t, res.Prompts, 2)
	assert.True(t, res.Prompts[0].Hint)
	assert.Equal(t, domain.LoanStatus(""), res.State.Preferences.HasPreApprovedLoan)
}

func TestTransition_InvalidEmailReprompts(t *testing.T) {
	base, _ := drive(domain.NewState(nil), "Yes, please!", "Bristol", "Land", "No", "No", "6+ months")

	res := runtime.Transition(base.State, "not-an-email")
	assert.Equal(t, base.State, res.State)
	assert.Equal(t, "Please enter a valid email address.", res.Prompts[0].Text)
	assert.Nil(t, res.Finalize)
}

func TestTransition_CompletedIsAbsorbing(t *testing.T) {
	done, finals := drive(domain.NewState(nil), "No, thanks.")
	require.Len(t, finals, 1)

	for _, in := range []string{"Yes, please!", "Register", "hello", ""} {
		res := runtime.Transition(done.State, in)
		assert.Equal(t, done.State, res.State)
		assert.Empty(t, res.Prompts)
		assert.Nil(t, res.Finalize)
	}
}

func TestTransition_LatchBlocksSecondFinalize(t *testing.T) {
	state := domain.ConversationState{Step: domain.StepAskEmail, Finalized: true}
	res := runtime.Transition(state, "user@example.com")
	assert.Nil(t, res.Finalize)
	assert.Equal(t, state, res.State)
}

func TestTransition_FinalizeOncePerPath(t *testing.T) {
	paths := map[string][]string{
		"decline":    {"No, thanks.", "Yes, please!"},
		"full":       {"Yes, please!", "Leeds", "Land", "Yes", "Yes", "3-6 months", "a@b.co", "again@b.co"},
		"registered": {"Yes, please!", "Leeds", "Land", "Yes", "Yes", "ASAP", "Yes", "Register"},
	}
	for name, inputs := range paths {
		t.Run(name, func(t *testing.T) {
			_, finals := drive(domain.NewState(nil), inputs...)
			assert.Len(t, finals, 1)
		})
	}
}

func TestTransition_OnlyDeclaredEdges(t *testing.T) {
	declared := make(map[domain.Edge]bool)
	for _, e := range runtime.Edges() {
		declared[domain.Edge{From: e.From, To: e.To}] = true
	}

	inputs := []string{
		"", "Yes, please!", "No, thanks.", "Confirm", "Edit", "Yes", "No", "ASAP",
		"1-3 months", "I'd rather not say", "Residential", "Commercial", "Flat", "Studio", "Office", "2-3",
		"studio", "purple", "ab", "Manchester", "user@example.com", "Register",
	}

	for _, step := range domain.Steps {
		for _, prefilled := range []bool{false, true} {
			for _, in := range inputs {
				state := domain.ConversationState{Step: step}
				state.Filters.Prefilled = prefilled
				res := runtime.Transition(state, in)

				assert.True(t, res.State.Step.Valid(), "invalid step from %s on %q", step, in)
				if step.Terminal() {
					assert.Equal(t, step, res.State.Step)
					continue
				}
				assert.True(t, declared[domain.Edge{From: step, To: res.State.Step}],
					"undeclared edge %s -> %s on %q", step, res.State.Step, in)
			}
		}
	}
}

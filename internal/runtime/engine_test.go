package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lodge/internal/runtime"
	"github.com/aretw0/lodge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Start(t *testing.T) {
	engine := runtime.NewEngine()

	state, prompts := engine.Start(context.Background(), "s1", nil)
	assert.Equal(t, domain.StepInitial, state.Step)
	assert.False(t, state.Filters.Prefilled)
	require.Len(t, prompts, 1)
	assert.Equal(t, []string{"Yes, please!", "No, thanks."}, prompts[0].Options)

	seeded, _ := engine.Start(context.Background(), "s2", &domain.SeedFilters{Location: domain.Ptr("Hull")})
	assert.True(t, seeded.Filters.Prefilled)
	assert.Equal(t, "Hull", *seeded.Filters.Location)
}

func TestEngine_Hooks(t *testing.T) {
	var transitions, reprompts, finalizes int
	var lastOutcome domain.Outcome
	fixed := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	engine := runtime.NewEngine(
		runtime.WithClock(func() time.Time { return fixed }),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnTransition: func(_ context.Context, e *domain.StepEvent) {
				assert.Equal(t, fixed, e.Timestamp)
				assert.Equal(t, "hooks", e.SessionID)
				transitions++
			},
			OnReprompt: func(_ context.Context, e *domain.StepEvent) {
				assert.Equal(t, e.From, e.To)
				reprompts++
			},
			OnFinalize: func(_ context.Context, e *domain.FinalizeEvent) {
				lastOutcome = e.Outcome
				finalizes++
			},
		}),
	)

	ctx := context.Background()
	state, _ := engine.Start(ctx, "hooks", nil)
	for _, in := range []string{"Yes, please!", "ab", "Derby", "Land", "Yes", "No", "1-3 months", "bad", "me@derby.org", "again"} {
		res, err := engine.Submit(ctx, "hooks", state, in)
		require.NoError(t, err)
		state = res.State
	}

	assert.Equal(t, 1+7, transitions, "start plus seven step changes")
	assert.Equal(t, 2, reprompts)
	assert.Equal(t, 1, finalizes)
	assert.Equal(t, domain.OutcomeCompleted, lastOutcome)
}

func TestEngine_SubmitRejectsUnknownStep(t *testing.T) {
	engine := runtime.NewEngine()
	_, err := engine.Submit(context.Background(), "x", domain.ConversationState{Step: "Nowhere"}, "hi")
	assert.ErrorIs(t, err, domain.ErrInvalidStep)
}

func TestEngine_Edges(t *testing.T) {
	edges := runtime.NewEngine().Edges()
	assert.NotEmpty(t, edges)
	edges[0].Label = "mutated"
	assert.NotEqual(t, "mutated", runtime.Edges()[0].Label, "Edges must return a copy")
}

package observability_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/lodge/internal/runtime"
	"github.com/aretw0/lodge/pkg/domain"
	"github.com/aretw0/lodge/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Hooks(t *testing.T) {
	rec := observability.NewRecorder()
	engine := runtime.NewEngine(runtime.WithLifecycleHooks(rec.Hooks()))
	ctx := context.Background()

	state, _ := engine.Start(ctx, "m", nil)
	for _, in := range []string{"Yes, please!", "x", "Leeds", "Land", "Yes", "No", "ASAP", "Yes"} {
		res, err := engine.Submit(ctx, "m", state, in)
		require.NoError(t, err)
		state = res.State
	}

	reg := rec.Registry()
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "lodge_sessions_started_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "lodge_sessions_finalized_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "lodge_reprompts_total"))
	assert.Equal(t, 7, testutil.CollectAndCount(reg, "lodge_transitions_total"), "one series per distinct edge")
}

func TestRecorder_Handler(t *testing.T) {
	rec := observability.NewRecorder()
	rec.InputRejected("message_limit")
	rec.FinalizerFailed("sql")

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body := w.Body.String()
	assert.Contains(t, body, `lodge_inputs_rejected_total{reason="message_limit"} 1`)
	assert.Contains(t, body, `lodge_finalizer_errors_total{finalizer="sql"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestChainHooks(t *testing.T) {
	var a, b int
	hooks := observability.ChainHooks(
		domain.LifecycleHooks{OnFinalize: func(context.Context, *domain.FinalizeEvent) { a++ }},
		domain.LifecycleHooks{},
		domain.LifecycleHooks{OnFinalize: func(context.Context, *domain.FinalizeEvent) { b++ }},
	)

	hooks.OnFinalize(context.Background(), &domain.FinalizeEvent{})
	hooks.OnTransition(context.Background(), &domain.StepEvent{})
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

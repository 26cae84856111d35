package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/lodge/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects conversation metrics.
type Recorder struct {
	registry *prometheus.Registry

	sessionsStarted prometheus.Counter
	transitions     *prometheus.CounterVec
	reprompts       *prometheus.CounterVec
	finalized       *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	finalizerErrors *prometheus.CounterVec
}

// NewRecorder registers the lodge metrics, plus Go runtime collectors, on a
// fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		sessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "lodge_sessions_started_total",
			Help: "Conversations started",
		}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lodge_transitions_total",
			Help: "Step changes by source and target step",
		}, []string{"from", "to"}),
		reprompts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lodge_reprompts_total",
			Help: "Inputs that left the step unchanged, by step",
		}, []string{"step"}),
		finalized: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lodge_sessions_finalized_total",
			Help: "Completed conversations by outcome",
		}, []string{"outcome"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lodge_inputs_rejected_total",
			Help: "Inputs refused before reaching the engine, by reason",
		}, []string{"reason"}),
		finalizerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lodge_finalizer_errors_total",
			Help: "Finalizer failures by finalizer name",
		}, []string{"finalizer"}),
	}
}

// Hooks returns lifecycle hooks that feed the recorder.
func (r *Recorder) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.StepEvent) {
			if e.From == "" {
				r.sessionsStarted.Inc()
				return
			}
			r.transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
		},
		OnReprompt: func(_ context.Context, e *domain.StepEvent) {
			r.reprompts.WithLabelValues(string(e.From)).Inc()
		},
		OnFinalize: func(_ context.Context, e *domain.FinalizeEvent) {
			r.finalized.WithLabelValues(string(e.Outcome)).Inc()
		},
	}
}

// InputRejected counts an input refused by the lifecycle service.
func (r *Recorder) InputRejected(reason string) {
	r.rejected.WithLabelValues(reason).Inc()
}

// FinalizerFailed counts a failed finalizer call.
func (r *Recorder) FinalizerFailed(name string) {
	r.finalizerErrors.WithLabelValues(name).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ChainHooks fans every event out to each set of hooks in order.
func ChainHooks(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range all {
				if h.OnTransition != nil {
					h.OnTransition(ctx, e)
				}
			}
		},
		OnReprompt: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range all {
				if h.OnReprompt != nil {
					h.OnReprompt(ctx, e)
				}
			}
		},
		OnFinalize: func(ctx context.Context, e *domain.FinalizeEvent) {
			for _, h := range all {
				if h.OnFinalize != nil {
					h.OnFinalize(ctx, e)
				}
			}
		},
	}
}

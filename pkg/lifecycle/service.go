package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/lodge"
	"github.com/aretw0/lodge/internal/logging"
	"github.com/aretw0/lodge/pkg/domain"
	"github.com/aretw0/lodge/pkg/format"
	"github.com/aretw0/lodge/pkg/ports"
	"github.com/aretw0/lodge/pkg/runner"
	"github.com/aretw0/lodge/pkg/session"
	"github.com/google/uuid"
)

// FallbackAcknowledgement replaces the closing prompts when a finalizer fails.
const FallbackAcknowledgement = "Thank you! We've received your details and will be in touch soon."

// Recorder receives the events the engine hooks cannot see.
type Recorder interface {
	InputRejected(reason string)
	FinalizerFailed(name string)
}

type namedFinalizer struct {
	name string
	ports.Finalizer
}

// Service runs conversations on top of the engine and a session manager.
type Service struct {
	engine       *lodge.Engine
	sessions     *session.Manager
	finalizers   []namedFinalizer
	recorder     Recorder
	logger       *slog.Logger
	now          func() time.Time
	newID        func() string
	ttl          time.Duration
	maxMessages  int
	maxInputSize int
}

// Option configures the Service.
type Option func(*Service)

// WithFinalizer adds a completion sink. Finalizers run in registration order.
func WithFinalizer(name string, f ports.Finalizer) Option {
	return func(s *Service) {
		s.finalizers = append(s.finalizers, namedFinalizer{name: name, Finalizer: f})
	}
}

// WithRecorder reports rejected inputs and failed finalizers.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides session ID issuance.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

// WithSessionTTL bounds how long a session accepts input. Zero disables the check.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithMaxMessages bounds the number of user inputs per session. Zero disables the check.
func WithMaxMessages(n int) Option {
	return func(s *Service) {
		s.maxMessages = n
	}
}

// WithMaxInputSize bounds the byte length of one input.
func WithMaxInputSize(n int) Option {
	return func(s *Service) {
		s.maxInputSize = n
	}
}

// NewService wires the engine to a session manager.
func NewService(engine *lodge.Engine, sessions *session.Manager, opts ...Option) *Service {
	s := &Service{
		engine:   engine,
		sessions: sessions,
		recorder: nopRecorder{},
		logger:   logging.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initiate starts a conversation, optionally seeded with search criteria.
func (s *Service) Initiate(ctx context.Context, req domain.InitiateRequest) (*domain.Reply, error) {
	seed, err := DecodeSeed(req.SearchCriteria)
	if err != nil {
		s.recorder.InputRejected("invalid_seed")
		return nil, err
	}

	id := s.newID()
	state, prompts := s.engine.Start(ctx, id, seed)
	now := s.now()

	sess := &domain.Session{
		ID:              id,
		UserID:          req.UserID,
		State:           state,
		InitialCriteria: req.SearchCriteria,
		Active:          true,
		CreatedAt:       now,
	}
	for _, p := range prompts {
		sess.Append(domain.BotTurn(p, now))
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.InfoContext(ctx, "session initiated",
		"session_id", id,
		"prefilled", state.Filters.Prefilled,
		"user_id", req.UserID,
	)
	return replyFor(sess, prompts), nil
}

// Submit applies one user input to the session. A terminal transition is
// saved before any finalizer runs, so a failed save never delivers a payload
// and a delivered payload can never be replayed.
func (s *Service) Submit(ctx context.Context, sessionID, text string) (*domain.Reply, error) {
	clean, err := runner.SanitizeInputLimit(text, s.maxInputSize)
	if err != nil {
		s.recorder.InputRejected("invalid_input")
		return nil, err
	}

	var (
		reply    *domain.Reply
		closed   *domain.Session
		payload  *domain.FinalizationPayload
		botTurns int
	)
	err = s.sessions.Update(ctx, sessionID, func(ctx context.Context, sess *domain.Session) error {
		now := s.now()
		if err := s.admit(sess, now); err != nil {
			return err
		}

		sess.Messages++
		sess.Append(domain.UserTurn(clean, now))

		res, err := s.engine.Submit(ctx, sessionID, sess.State, clean)
		if err != nil {
			return err
		}
		sess.State = res.State

		if res.Finalize != nil {
			sess.Active = false
			sess.ClosedAt = &now
			res.Finalize.Transcript = format.BuildCompletionSummary(sess.Transcript)
		}
		for _, p := range res.Prompts {
			sess.Append(domain.BotTurn(p, now))
		}

		reply = replyFor(sess, res.Prompts)
		if res.Finalize != nil {
			reply.Outcome = res.Finalize.Outcome
			payload = res.Finalize
			closed = sess.Clone()
			botTurns = len(res.Prompts)
		}
		return nil
	})
	if err != nil {
		s.reject(ctx, sessionID, err)
		return nil, err
	}

	if payload != nil && !s.finalize(context.WithoutCancel(ctx), closed, payload) {
		reply.Prompts = []domain.Prompt{{Text: FallbackAcknowledgement}}
		s.recordFallback(ctx, sessionID, botTurns)
	}
	return reply, nil
}

// recordFallback swaps the closing bot turns for the fallback acknowledgement
// so the stored transcript matches what the user was shown.
func (s *Service) recordFallback(ctx context.Context, sessionID string, botTurns int) {
	err := s.sessions.Update(context.WithoutCancel(ctx), sessionID, func(_ context.Context, sess *domain.Session) error {
		keep := len(sess.Transcript) - botTurns
		if keep < 0 {
			keep = 0
		}
		sess.Transcript = sess.Transcript[:keep]
		sess.Append(domain.BotTurn(domain.Prompt{Text: FallbackAcknowledgement}, s.now()))
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "fallback turn not recorded", "session_id", sessionID, "err", err)
	}
}

// Get returns a snapshot of the session.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.sessions.Load(ctx, sessionID)
}

// Edges exposes the transition table for graph endpoints.
func (s *Service) Edges() []domain.Edge {
	return s.engine.Edges()
}

func (s *Service) admit(sess *domain.Session, now time.Time) error {
	switch {
	case sess.State.Step.Terminal() || !sess.Active:
		return domain.ErrSessionCompleted
	case s.ttl > 0 && now.Sub(sess.CreatedAt) > s.ttl:
		return domain.ErrSessionExpired
	case s.maxMessages > 0 && sess.Messages >= s.maxMessages:
		return domain.ErrMessageLimit
	}
	return nil
}

// finalize calls every finalizer in registration order and reports whether
// all of them succeeded. A failure does not stop the ones after it.
func (s *Service) finalize(ctx context.Context, sess *domain.Session, payload *domain.FinalizationPayload) bool {
	ok := true
	for _, f := range s.finalizers {
		if err := f.Finalize(ctx, sess, payload); err != nil {
			ok = false
			s.recorder.FinalizerFailed(f.name)
			s.logger.ErrorContext(ctx, "finalizer failed",
				"session_id", sess.ID,
				"finalizer", f.name,
				"err", err,
			)
		}
	}
	return ok
}

func (s *Service) reject(ctx context.Context, sessionID string, err error) {
	reason := ""
	switch {
	case errors.Is(err, domain.ErrSessionCompleted):
		reason = "completed"
	case errors.Is(err, domain.ErrSessionExpired):
		reason = "expired"
	case errors.Is(err, domain.ErrMessageLimit):
		reason = "message_limit"
	case errors.Is(err, domain.ErrSessionNotFound):
		reason = "not_found"
	default:
		s.logger.ErrorContext(ctx, "submit failed", "session_id", sessionID, "err", err)
		return
	}
	s.recorder.InputRejected(reason)
	s.logger.InfoContext(ctx, "input rejected", "session_id", sessionID, "reason", reason)
}

func replyFor(sess *domain.Session, prompts []domain.Prompt) *domain.Reply {
	return &domain.Reply{
		SessionID: sess.ID,
		Step:      sess.State.Step,
		Prompts:   prompts,
		Completed: sess.State.Step.Terminal(),
	}
}

type nopRecorder struct{}

func (nopRecorder) InputRejected(string)   {}
func (nopRecorder) FinalizerFailed(string) {}

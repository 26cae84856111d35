// Package sqlstore records completed conversations in a relational database.
// It speaks to Postgres through pgx and to SQLite through modernc.org/sqlite.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/lodge/pkg/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	session_id           TEXT PRIMARY KEY,
	user_id              TEXT NOT NULL DEFAULT '',
	user_email           TEXT,
	outcome              TEXT NOT NULL,
	initial_criteria     TEXT,
	final_preferences    TEXT NOT NULL,
	conversation_summary TEXT NOT NULL,
	created_at           TIMESTAMP NOT NULL,
	closed_at            TIMESTAMP,
	is_active            BOOLEAN NOT NULL DEFAULT FALSE
)`

const upsert = `
INSERT INTO chat_sessions (
	session_id, user_id, user_email, outcome, initial_criteria,
	final_preferences, conversation_summary, created_at, closed_at, is_active
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (session_id) DO UPDATE SET
	user_email = excluded.user_email,
	outcome = excluded.outcome,
	final_preferences = excluded.final_preferences,
	conversation_summary = excluded.conversation_summary,
	closed_at = excluded.closed_at,
	is_active = excluded.is_active`

const selectOne = `
SELECT session_id, user_id, user_email, outcome, initial_criteria,
	final_preferences, conversation_summary, created_at, closed_at, is_active
FROM chat_sessions WHERE session_id = ?`

// Record is one row of chat_sessions.
type Record struct {
	SessionID           string
	UserID              string
	UserEmail           *string
	Outcome             domain.Outcome
	InitialCriteria     map[string]any
	FinalPreferences    FinalPreferences
	ConversationSummary []domain.SummaryEntry
	CreatedAt           time.Time
	ClosedAt            *time.Time
	IsActive            bool
}

// FinalPreferences is the JSON stored in final_preferences.
type FinalPreferences struct {
	Filters     domain.FinalFilters `json:"filters"`
	Preferences domain.Preferences  `json:"preferences"`
}

// Store implements ports.Finalizer over database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects with the named driver, checks connectivity and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// A single connection keeps :memory: databases alive and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := New(db, driver)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing handle.
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Migrate creates the chat_sessions table if needed.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Finalize writes the completed conversation. Repeated calls for the same
// session overwrite the row, so a retried finalize is harmless.
func (s *Store) Finalize(ctx context.Context, session *domain.Session, payload *domain.FinalizationPayload) error {
	criteria, err := marshalNullable(session.InitialCriteria)
	if err != nil {
		return fmt.Errorf("failed to encode initial criteria: %w", err)
	}
	prefs, err := json.Marshal(FinalPreferences{Filters: payload.Filters, Preferences: payload.Preferences})
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	summary, err := json.Marshal(payload.Transcript)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	closedAt := sql.NullTime{}
	if session.ClosedAt != nil {
		closedAt = sql.NullTime{Time: session.ClosedAt.UTC(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, s.rebind(upsert),
		session.ID,
		session.UserID,
		payload.ContactEmail,
		string(payload.Outcome),
		criteria,
		string(prefs),
		string(summary),
		session.CreatedAt.UTC(),
		closedAt,
		session.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to store completed session: %w", err)
	}
	return nil
}

// Get reads a completed conversation back.
func (s *Store) Get(ctx context.Context, sessionID string) (*Record, error) {
	var (
		rec      Record
		email    sql.NullString
		criteria sql.NullString
		prefs    string
		summary  string
		outcome  string
		closedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, s.rebind(selectOne), sessionID).Scan(
		&rec.SessionID, &rec.UserID, &email, &outcome, &criteria,
		&prefs, &summary, &rec.CreatedAt, &closedAt, &rec.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read completed session: %w", err)
	}

	rec.Outcome = domain.Outcome(outcome)
	if email.Valid {
		rec.UserEmail = &email.String
	}
	if closedAt.Valid {
		t := closedAt.Time
		rec.ClosedAt = &t
	}
	if criteria.Valid {
		if err := json.Unmarshal([]byte(criteria.String), &rec.InitialCriteria); err != nil {
			return nil, fmt.Errorf("failed to decode initial criteria: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(prefs), &rec.FinalPreferences); err != nil {
		return nil, fmt.Errorf("failed to decode preferences: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &rec.ConversationSummary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	return &rec, nil
}

// Ping checks connectivity, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $N for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func marshalNullable(v map[string]any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

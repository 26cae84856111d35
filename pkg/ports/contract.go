package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lodge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newSession := func(id string) *domain.Session {
		return &domain.Session{
			ID:        id,
			State:     domain.NewState(nil),
			Active:    true,
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		s := newSession(sessionID)
		s.UserID = "user-1"
		s.State.Step = domain.StepAskBedrooms
		s.State.Filters.Location = domain.Ptr("Leeds")
		s.State.Filters.Bedrooms = domain.NewRange(1, 2)
		s.State.Preferences.HasPreApprovedLoan = domain.LoanDeclined
		s.InitialCriteria = map[string]any{"location": "Leeds"}
		s.Append(domain.UserTurn("Leeds", s.CreatedAt))
		s.Messages = 1

		require.NoError(t, store.Save(ctx, s), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.StepAskBedrooms, loaded.State.Step)
		assert.Equal(t, "Leeds", *loaded.State.Filters.Location)
		assert.Equal(t, 2, *loaded.State.Filters.Bedrooms.Max)
		assert.Equal(t, domain.LoanDeclined, loaded.State.Preferences.HasPreApprovedLoan)
		assert.Equal(t, "user-1", loaded.UserID)
		assert.Equal(t, 1, loaded.Messages)
		require.Len(t, loaded.Transcript, 1)
		assert.Equal(t, "Leeds", loaded.Transcript[0].Text)
		assert.True(t, s.CreatedAt.Equal(loaded.CreatedAt))
		// JSON stores return criteria as generic values; only presence is guaranteed.
		assert.NotNil(t, loaded.InitialCriteria["location"])
	})

	t.Run("Loaded copy is isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Append(domain.UserTurn("extra", time.Now()))
		loaded.State.Step = domain.StepCompleted

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Len(t, again.Transcript, 1)
		assert.Equal(t, domain.StepAskBedrooms, again.State.Step)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newSession(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, newSession(id1))
		_ = store.Save(ctx, newSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

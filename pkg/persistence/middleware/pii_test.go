package middleware_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lodge/pkg/adapters/memory"
	"github.com/aretw0/lodge/pkg/domain"
	"github.com/aretw0/lodge/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewPIIMiddleware([]string{"phone", "email"})(underlying)
	ctx := context.Background()
	now := time.Now()

	s := &domain.Session{
		ID:    "pii",
		State: domain.NewState(nil),
		InitialCriteria: map[string]any{
			"location": "York",
			"contact": map[string]any{
				"phone_number": "07700 900000",
			},
		},
	}
	s.State.ContactEmail = domain.Ptr("jane.doe@example.com")
	s.Append(
		domain.BotTurn(domain.Prompt{Text: "Your email?"}, now),
		domain.UserTurn("it is jane.doe@example.com thanks", now),
	)

	require.NoError(t, secure.Save(ctx, s))

	assert.Equal(t, "jane.doe@example.com", *s.State.ContactEmail, "caller's session must not be modified")
	assert.Equal(t, "07700 900000", s.InitialCriteria["contact"].(map[string]any)["phone_number"])

	stored, err := underlying.Load(ctx, "pii")
	require.NoError(t, err)
	assert.Equal(t, "j***@example.com", *stored.State.ContactEmail)
	assert.Equal(t, "York", stored.InitialCriteria["location"])
	assert.Equal(t, "***", stored.InitialCriteria["contact"].(map[string]any)["phone_number"])
	assert.Equal(t, "Your email?", stored.Transcript[0].Text)
	assert.Equal(t, "it is j***@example.com thanks", stored.Transcript[1].Text)
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a***@b.co", middleware.MaskEmail("abc@b.co"))
	assert.Equal(t, "***", middleware.MaskEmail("@nolocal.com"))
	assert.Equal(t, "***", middleware.MaskEmail("plain"))
}

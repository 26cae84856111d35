package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lodge/internal/config"
	"github.com/aretw0/lodge/internal/logging"
	"github.com/aretw0/lodge/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_MemoryWithSQLFinalizer(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.URL = filepath.Join(t.TempDir(), "lodge.db")

	app, err := Build(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer app.Close()
	require.NotNil(t, app.SQL)

	ctx := context.Background()
	start, err := app.Service.Initiate(ctx, domain.InitiateRequest{UserID: "u-7"})
	require.NoError(t, err)
	reply, err := app.Service.Submit(ctx, start.SessionID, "No, thanks.")
	require.NoError(t, err)
	assert.True(t, reply.Completed)

	rec, err := app.SQL.Get(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "u-7", rec.UserID)
	assert.False(t, rec.IsActive)

	finalized := app.Recorder.Registry()
	count, err := testutil.GatherAndCount(finalized, "lodge_sessions_finalized_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBuild_RedisWithEncryption(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store = config.StoreRedis
	cfg.RedisAddr = mr.Addr()
	cfg.EncryptionKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

	app, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer app.Close()

	ctx := context.Background()
	start, err := app.Service.Initiate(ctx, domain.InitiateRequest{})
	require.NoError(t, err)
	_, err = app.Service.Submit(ctx, start.SessionID, "Yes, please!")
	require.NoError(t, err)

	raw, err := mr.Get("lodge:session:" + start.SessionID)
	require.NoError(t, err)
	assert.Contains(t, raw, "__encrypted__")
	assert.NotContains(t, raw, "EditLocation")

	sess, err := app.Service.Get(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepEditLocation, sess.State.Step)
}

func TestBuild_RedisUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Store = config.StoreRedis
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := Build(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "redis unreachable")
}

func TestRunChat_JSON(t *testing.T) {
	app, err := Build(context.Background(), config.Default(), nil)
	require.NoError(t, err)
	defer app.Close()

	var out bytes.Buffer
	reply, err := RunChat(context.Background(), app, ChatOptions{
		JSON: true,
		In:   strings.NewReader("\"No, thanks.\"\n"),
		Out:  &out,
	})
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.True(t, reply.Completed)
	assert.Contains(t, out.String(), `"completed":true`)
}

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "loud"
	_, err := NewLogger(cfg, false)
	assert.Error(t, err)

	cfg.LogLevel = "warn"
	logger, err := NewLogger(cfg, true)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), -4))
}

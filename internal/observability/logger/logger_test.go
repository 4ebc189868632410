package logger

import (
	"context"
	"testing"

	obscontext "github.com/smallbiznis/settlement/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewInstallsGlobal(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	log, err := New(nil, Config{Level: "warn", Format: "console", Debug: true})
	require.NoError(t, err)
	assert.Same(t, log, zap.L())
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestWithContextAddsStoreAndActor(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := obscontext.WithRequestID(context.Background(), "req-9")
	ctx = obscontext.WithActor(ctx, "system", "scheduler")

	WithStore(WithContext(ctx, zap.New(core)), 7).Info("settlement created")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "system", fields["actor_type"])
	assert.Equal(t, "scheduler", fields["actor_id"])
	assert.Equal(t, int64(7), fields["store_id"])
}

func TestWithContextCarriesStoreFromRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := obscontext.WithStoreID(context.Background(), "42")

	WithContext(ctx, zap.New(core)).Info("daily view")

	require.Len(t, logs.All(), 1)
	assert.Equal(t, "42", logs.All()[0].ContextMap()["store_id"])
}

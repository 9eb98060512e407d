package logging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestLogger_FieldsAndNames(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(LevelDebug)
	logger := FromZap(zap.New(core)).Named("worker").With("worker", "osutrack")

	logger.InfoContext(context.Background(), "updated player",
		"osu_id", int64(4787150),
		"wait", 2*time.Second,
		"error", errors.New("boom"),
		"dangling",
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "worker", entry.LoggerName)

	fields := entry.ContextMap()
	assert.Equal(t, "osutrack", fields["worker"])
	assert.Equal(t, int64(4787150), fields["osu_id"])
	assert.Equal(t, 2*time.Second, fields["wait"])
	assert.Equal(t, "boom", fields["error"])
	assert.Contains(t, fields, "dangling")
}

func TestLogger_NilReceiverFallsBackToDefault(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Info("nothing to see")
		_ = logger.With("k", "v")
	})
}

func TestContextWith_AddsFieldsToContextCalls(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(LevelInfo)
	logger := FromZap(zap.New(core))

	ctx := ContextWith(context.Background(), "request_id", "abc123")
	ctx = ContextWith(ctx, "user_id", int64(7))
	logger.InfoContext(ctx, "submitted matches")
	logger.Info("no context")

	entries := logs.All()
	require.Len(t, entries, 2)
	withCtx := entries[0].ContextMap()
	assert.Equal(t, "abc123", withCtx["request_id"])
	assert.Equal(t, int64(7), withCtx["user_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestContextWith_NoArgsReturnsSameContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Equal(t, ctx, ContextWith(ctx))
}

func TestLogger_LevelFiltersEntries(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(LevelWarn)
	logger := FromZap(zap.New(core))
	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.ErrorContext(context.Background(), "shown")

	assert.Equal(t, 2, logs.Len())
}

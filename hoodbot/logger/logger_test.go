package logger

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHandlerLevelFiltering(t *testing.T) {
	ctx := context.Background()

	h := NewHandlerWithLevel(slog.LevelWarn)
	assert.False(t, h.Enabled(ctx, slog.LevelDebug))
	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelWarn))
	assert.True(t, h.Enabled(ctx, slog.LevelError))

	// The default handler keeps everything.
	assert.True(t, NewHandler().Enabled(ctx, slog.LevelDebug))
}

func TestHandlerLevelSurvivesWithAttrs(t *testing.T) {
	ctx := context.Background()

	h := NewHandlerWithLevel(slog.LevelInfo).WithAttrs([]slog.Attr{slog.String("type", "sys")})
	assert.False(t, h.Enabled(ctx, slog.LevelDebug))
	assert.True(t, h.Enabled(ctx, slog.LevelInfo))
}

func TestShouldSkipLogFiltersGatewayChatter(t *testing.T) {
	noisy := slog.NewRecord(time.Now(), slog.LevelDebug, "Sending heartbeat", 0)
	assert.True(t, shouldSkipLog(&noisy))

	useful := slog.NewRecord(time.Now(), slog.LevelInfo, "Command executed", 0)
	assert.False(t, shouldSkipLog(&useful))
}

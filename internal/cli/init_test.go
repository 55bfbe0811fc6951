package cli

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPeriodicallyStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan struct{})

	go func() {
		RunPeriodically(ctx, 5*time.Millisecond, func(context.Context) { calls.Add(1) })
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPeriodically did not return after cancel")
	}
	n := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, calls.Load())
}

func TestSetupLoggerLevel(t *testing.T) {
	logger := SetupLogger("debug")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	logger = SetupLogger("error")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerScheduler_FiresUntilStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var n atomic.Int32
	h := NewTickerScheduler(ctx).Every(5*time.Millisecond, func() { n.Add(1) })

	require.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)

	h.Stop()
	h.Stop() // second stop must not panic
	time.Sleep(10 * time.Millisecond)
	stopped := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, n.Load())
}

func TestTickerScheduler_ContextCancelStopsTriggers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var n atomic.Int32
	NewTickerScheduler(ctx).Every(5*time.Millisecond, func() { n.Add(1) })
	require.Eventually(t, func() bool { return n.Load() >= 1 }, time.Second, time.Millisecond)

	cancel()
	time.Sleep(10 * time.Millisecond)
	stopped := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, n.Load())
}

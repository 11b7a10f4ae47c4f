// Package schedule provides the periodic triggers that drive a round.
// Whoever registers a trigger owns its Handle and is responsible for stopping it.
package schedule

import (
	"context"
	"sync"
	"time"
)

// Handle cancels a registered trigger. Stop is safe to call more than once.
type Handle interface {
	Stop()
}

type Scheduler interface {
	Every(interval time.Duration, fn func()) Handle
}

// TickerScheduler runs each callback on its own goroutine driven by a time.Ticker.
type TickerScheduler struct {
	ctx context.Context
}

// NewTickerScheduler ties every trigger it creates to ctx; cancelling ctx
// stops them all.
func NewTickerScheduler(ctx context.Context) *TickerScheduler {
	return &TickerScheduler{ctx: ctx}
}

func (s *TickerScheduler) Every(interval time.Duration, fn func()) Handle {
	h := &tickerHandle{stopChan: make(chan struct{})}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-h.stopChan:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return h
}

type tickerHandle struct {
	once     sync.Once
	stopChan chan struct{}
}

func (h *tickerHandle) Stop() {
	h.once.Do(func() { close(h.stopChan) })
}

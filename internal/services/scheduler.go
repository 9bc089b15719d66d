package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"papertrade/internal/logger"
)

// RefreshFunc performs one refresh cycle. It should honor ctx cancellation
// at its own suspension points.
type RefreshFunc func(ctx context.Context) error

// RefreshScheduler runs a refresh function on a fixed interval while a
// consuming view is active: refresh, wait, repeat, until stopped.
type RefreshScheduler struct {
	interval time.Duration
	refresh  RefreshFunc
	log      *zap.SugaredLogger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRefreshScheduler creates a scheduler that invokes refresh every interval.
func NewRefreshScheduler(interval time.Duration, refresh RefreshFunc) *RefreshScheduler {
	return &RefreshScheduler{
		interval: interval,
		refresh:  refresh,
		log:      logger.Named("scheduler"),
	}
}

// Start begins the periodic loop. Starting an already-running scheduler is a
// no-op: the handle to the running task is retained and checked, so a second
// concurrent loop is never spawned.
func (s *RefreshScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.loop(ctx, done)
}

// loop refreshes, then waits out the interval, until cancelled. Cancellation
// is observed at the inter-cycle wait and inside the refresh's own suspension
// points, never mid-mutation.
func (s *RefreshScheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if err := s.refresh(ctx); err != nil && ctx.Err() == nil {
			s.log.Warnw("refresh cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval):
		}
	}
}

// Stop cancels the loop and waits for it to exit. A stopped scheduler holds
// no dangling timer and may be started again.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

// Running reports whether the periodic loop is currently active.
func (s *RefreshScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// internal/app/system/workers/statecleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Cleaner removes expired documents and reports how many it removed.
// oauthstate.Store satisfies it.
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// StateCleanup is a background worker that deletes expired login states.
// MongoDB's TTL monitor does the same thing eventually; this keeps the
// collection small between monitor passes.
type StateCleanup struct {
	states   Cleaner
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewStateCleanup creates a cleanup worker that runs every interval.
func NewStateCleanup(states Cleaner, logger *zap.Logger, interval time.Duration) *StateCleanup {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &StateCleanup{
		states:   states,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *StateCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("state cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// more than once.
func (w *StateCleanup) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("state cleanup worker stopped")
	})
}

func (w *StateCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce(context.Background())
		}
	}
}

// RunOnce performs a single cleanup pass and returns the number removed.
func (w *StateCleanup) RunOnce(parent context.Context) int64 {
	ctx, cancel := timeouts.WithTimeout(parent, timeouts.Short(), w.log, "state cleanup")
	defer cancel()

	count, err := w.states.CleanupExpired(ctx)
	if err != nil {
		w.log.Error("failed to remove expired login states", zap.Error(err))
		return 0
	}
	if count > 0 {
		w.log.Info("removed expired login states", zap.Int64("count", count))
	}
	return count
}

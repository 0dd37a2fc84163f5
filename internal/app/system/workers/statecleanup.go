// internal/app/system/workers/statecleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/oauthstate"
	"go.uber.org/zap"
)

// StateCleanup is a background worker that purges expired OAuth states.
type StateCleanup struct {
	states   oauthstate.States
	log      *zap.Logger
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewStateCleanup creates a new OAuth state cleanup worker.
//
// Parameters:
//   - states: the OAuth state store
//   - logger: zap logger for logging
//   - interval: how often to run cleanup (e.g., 10 minutes)
func NewStateCleanup(states oauthstate.States, logger *zap.Logger, interval time.Duration) *StateCleanup {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &StateCleanup{
		states:   states,
		log:      logger,
		interval: interval,
		timeout:  30 * time.Second,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *StateCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("oauth state cleanup worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. It is safe
// to call more than once.
func (w *StateCleanup) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("oauth state cleanup worker stopped")
	})
}

// RunOnce performs a single cleanup pass and returns the number of states removed.
func (w *StateCleanup) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	count, err := w.states.CleanupExpired(ctx)
	if err != nil {
		w.log.Error("failed to clean up expired oauth states", zap.Error(err))
		return 0, err
	}
	if count > 0 {
		w.log.Info("removed expired oauth states", zap.Int64("count", count))
	}
	return count, nil
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
			_, _ = w.RunOnce(context.Background())
		}
	}
}

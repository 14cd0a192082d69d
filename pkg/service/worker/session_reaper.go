package worker

import (
	"context"
	"sync"
	"time"

	"github.com/lectio-dev/lectio/pkg/utils/errutil"
	"github.com/lectio-dev/lectio/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// InactiveSessionDeleter removes sessions that have been idle past their window
type InactiveSessionDeleter interface {
	DeleteInactive(ctx context.Context) (int, error)
}

// SessionReaperWorker periodically evicts idle agent sessions.
//
// Sessions whose lock is held by a running request are skipped and picked up on a later tick.
// Correctness never depends on the reaper; it only bounds memory.
type SessionReaperWorker struct {
	sessions InactiveSessionDeleter
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewSessionReaperWorker creates a reaper that runs every interval
func NewSessionReaperWorker(sessions InactiveSessionDeleter, interval time.Duration) *SessionReaperWorker {
	return &SessionReaperWorker{
		sessions: sessions,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background loop. It does not block.
func (w *SessionReaperWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("reaper interval must be positive", goerr.V("interval", w.interval))
	}

	logging.Default().Info("session reaper starting", "interval", w.interval.String())
	go w.run(ctx)
	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *SessionReaperWorker) Stop() {
	w.stopOnce.Do(func() {
		logging.Default().Info("session reaper stopping")
		close(w.stopCh)
		<-w.doneCh
		logging.Default().Info("session reaper stopped")
	})
}

func (w *SessionReaperWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.Reap(ctx); err != nil {
				_ = errutil.Handle(ctx, err, "session reap failed (will retry next interval)")
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("session reaper context cancelled")
			return
		}
	}
}

// Reap runs a single eviction cycle and returns the number of removed sessions
func (w *SessionReaperWorker) Reap(ctx context.Context) (int, error) {
	n, err := w.sessions.DeleteInactive(ctx)
	if err != nil {
		return n, goerr.Wrap(err, "failed to delete inactive sessions")
	}
	if n > 0 {
		logging.Default().Info("inactive sessions removed", "count", n)
	}
	return n, nil
}

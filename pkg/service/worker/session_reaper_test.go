package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/lectio-dev/lectio/pkg/repository/memory"
	"github.com/lectio-dev/lectio/pkg/service/worker"
	"github.com/lectio-dev/lectio/pkg/usecase"
	"github.com/m-mizutani/gt"
)

type countingDeleter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (d *countingDeleter) DeleteInactive(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return 0, d.err
}

func (d *countingDeleter) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func TestSessionReaper_RunsPeriodically(t *testing.T) {
	deleter := &countingDeleter{}
	w := worker.NewSessionReaperWorker(deleter, 10*time.Millisecond)
	gt.NoError(t, w.Start(context.Background())).Required()

	time.Sleep(55 * time.Millisecond)
	w.Stop()

	calls := deleter.callCount()
	gt.Bool(t, calls >= 2).True()

	// No further ticks after Stop
	time.Sleep(30 * time.Millisecond)
	gt.Number(t, deleter.callCount()).Equal(calls)

	// Stop is idempotent
	w.Stop()
}

func TestSessionReaper_ErrorsDoNotStopTheLoop(t *testing.T) {
	deleter := &countingDeleter{err: errors.New("store unavailable")}
	w := worker.NewSessionReaperWorker(deleter, 10*time.Millisecond)
	gt.NoError(t, w.Start(context.Background())).Required()

	time.Sleep(55 * time.Millisecond)
	w.Stop()
	gt.Bool(t, deleter.callCount() >= 2).True()
}

func TestSessionReaper_ContextCancel(t *testing.T) {
	deleter := &countingDeleter{}
	ctx, cancel := context.WithCancel(context.Background())
	w := worker.NewSessionReaperWorker(deleter, time.Hour)
	gt.NoError(t, w.Start(ctx)).Required()

	cancel()
	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancel")
	}
}

func TestSessionReaper_RejectsZeroInterval(t *testing.T) {
	w := worker.NewSessionReaperWorker(&countingDeleter{}, 0)
	gt.Error(t, w.Start(context.Background()))
}

func TestSessionReaper_Reap(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithIdleWindow(20*time.Millisecond))
	ctx := context.Background()

	lock, err := repo.Session().Lock(ctx, "idle")
	gt.NoError(t, err).Required()
	gt.NoError(t, lock.Append(model.NewExchange("q", "a")...)).Required()
	lock.Unlock()

	// Held across the idle window, so it is idle but must be skipped
	busy, err := repo.Session().Lock(ctx, "busy")
	gt.NoError(t, err).Required()

	time.Sleep(40 * time.Millisecond)

	fresh, err := repo.Session().Lock(ctx, "fresh")
	gt.NoError(t, err).Required()
	fresh.Unlock()

	w := worker.NewSessionReaperWorker(uc.Session, time.Minute)
	n, err := w.Reap(ctx)
	gt.NoError(t, err).Required()
	gt.Number(t, n).Equal(1)

	sessions, err := repo.Session().List(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, sessions).Length(2)

	busy.Unlock()
}

package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lectio-dev/lectio/pkg/domain/interfaces"
	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// sessionEntry is one conversation. owner is a one-slot semaphore giving a single holder
// exclusive access across a whole pipeline run; mu guards the fields below it for short reads.
type sessionEntry struct {
	owner chan struct{}

	mu      sync.Mutex
	session *model.Session
	deleted bool
}

func newSessionEntry(id string, now time.Time) *sessionEntry {
	return &sessionEntry{
		owner: make(chan struct{}, 1),
		session: &model.Session{
			ID:             id,
			CreatedAt:      now,
			LastActivityAt: now,
		},
	}
}

func (e *sessionEntry) acquire(ctx context.Context) error {
	select {
	case e.owner <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *sessionEntry) tryAcquire() bool {
	select {
	case e.owner <- struct{}{}:
		return true
	default:
		return false
	}
}

func (e *sessionEntry) release() {
	<-e.owner
}

// snapshot returns a copy of the session, or nil when the entry was removed
func (e *sessionEntry) snapshot() *model.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil
	}
	return e.session.Copy()
}

type sessionRepository struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
}

var _ interfaces.SessionRepository = &sessionRepository{}

func newSessionRepository() *sessionRepository {
	return &sessionRepository{
		entries: make(map[string]*sessionEntry),
	}
}

func (r *sessionRepository) entry(id string) *sessionEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id]
}

func (r *sessionRepository) entryOrCreate(id string) *sessionEntry {
	if e := r.entry(id); e != nil {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e
	}
	e := newSessionEntry(id, time.Now().UTC())
	r.entries[id] = e
	return e
}

// remove drops the entry from the map. Caller must hold the entry's owner slot.
func (r *sessionRepository) remove(id string, e *sessionEntry) {
	r.mu.Lock()
	if r.entries[id] == e {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()
}

// acquireExisting waits for exclusive access to an existing session
func (r *sessionRepository) acquireExisting(ctx context.Context, id string) (*sessionEntry, error) {
	e := r.entry(id)
	if e == nil {
		return nil, goerr.Wrap(model.ErrSessionNotFound, "session not found", goerr.V("session_id", id))
	}
	if err := e.acquire(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to acquire session", goerr.V("session_id", id))
	}

	e.mu.Lock()
	deleted := e.deleted
	e.mu.Unlock()
	if deleted {
		e.release()
		return nil, goerr.Wrap(model.ErrSessionNotFound, "session not found", goerr.V("session_id", id))
	}
	return e, nil
}

func (r *sessionRepository) Lock(ctx context.Context, sessionID string) (interfaces.SessionLock, error) {
	if sessionID == "" {
		return nil, goerr.New("session ID is required")
	}

	for {
		e := r.entryOrCreate(sessionID)
		if err := e.acquire(ctx); err != nil {
			return nil, goerr.Wrap(err, "failed to acquire session", goerr.V("session_id", sessionID))
		}

		e.mu.Lock()
		if e.deleted {
			// Removed while we were waiting; start over with a fresh entry
			e.mu.Unlock()
			e.release()
			continue
		}
		e.session.LastActivityAt = time.Now().UTC()
		e.mu.Unlock()

		return &sessionLock{entry: e}, nil
	}
}

func (r *sessionRepository) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	e := r.entry(sessionID)
	if e == nil {
		return nil, goerr.Wrap(model.ErrSessionNotFound, "session not found", goerr.V("session_id", sessionID))
	}
	s := e.snapshot()
	if s == nil {
		return nil, goerr.Wrap(model.ErrSessionNotFound, "session not found", goerr.V("session_id", sessionID))
	}
	return s, nil
}

func (r *sessionRepository) List(ctx context.Context) ([]*model.Session, error) {
	r.mu.RLock()
	entries := make([]*sessionEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sessions := make([]*model.Session, 0, len(entries))
	for _, e := range entries {
		if s := e.snapshot(); s != nil {
			sessions = append(sessions, s)
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (r *sessionRepository) Reset(ctx context.Context, sessionID string) error {
	e, err := r.acquireExisting(ctx, sessionID)
	if err != nil {
		return err
	}
	defer e.release()

	e.mu.Lock()
	e.session.Turns = nil
	e.mu.Unlock()
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, sessionID string) error {
	e, err := r.acquireExisting(ctx, sessionID)
	if err != nil {
		return err
	}
	defer e.release()

	r.remove(sessionID, e)
	return nil
}

func (r *sessionRepository) DeleteInactive(ctx context.Context, before time.Time) (int, error) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	var removed int
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return removed, goerr.Wrap(err, "session sweep interrupted", goerr.V("removed", removed))
		}

		e := r.entry(id)
		if e == nil || !e.tryAcquire() {
			continue
		}

		e.mu.Lock()
		stale := !e.deleted && e.session.LastActivityAt.Before(before)
		e.mu.Unlock()
		if stale {
			r.remove(id, e)
			removed++
		}
		e.release()
	}
	return removed, nil
}

type sessionLock struct {
	entry *sessionEntry
	once  sync.Once
}

func (l *sessionLock) Session() *model.Session {
	l.entry.mu.Lock()
	defer l.entry.mu.Unlock()
	return l.entry.session.Copy()
}

func (l *sessionLock) Append(turns ...model.Turn) error {
	l.entry.mu.Lock()
	defer l.entry.mu.Unlock()

	if l.entry.deleted {
		return goerr.Wrap(model.ErrSessionNotFound, "session was removed", goerr.V("session_id", l.entry.session.ID))
	}
	l.entry.session.Turns = append(l.entry.session.Turns, turns...)
	l.entry.session.LastActivityAt = time.Now().UTC()
	return nil
}

func (l *sessionLock) Unlock() {
	l.once.Do(l.entry.release)
}

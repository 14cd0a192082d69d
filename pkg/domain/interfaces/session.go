package interfaces

import (
	"context"
	"time"

	"github.com/lectio-dev/lectio/pkg/domain/model"
)

// SessionRepository holds conversational state keyed by caller-supplied session IDs.
// Operations on the same ID are linearized; different IDs never contend on a shared lock
// for longer than a map lookup.
type SessionRepository interface {
	// Lock acquires exclusive access to the session, creating it if it does not exist.
	// It blocks until the session is free or ctx is done.
	Lock(ctx context.Context, sessionID string) (SessionLock, error)

	// Get returns a snapshot of the session or model.ErrSessionNotFound
	Get(ctx context.Context, sessionID string) (*model.Session, error)

	// List returns snapshots of all sessions ordered by creation time
	List(ctx context.Context) ([]*model.Session, error)

	// Reset clears the turns of an existing session, keeping its ID and timestamps
	Reset(ctx context.Context, sessionID string) error

	// Delete removes an existing session
	Delete(ctx context.Context, sessionID string) error

	// DeleteInactive removes sessions whose last activity is before the given time.
	// Sessions currently locked are skipped. It returns the number of removed sessions.
	DeleteInactive(ctx context.Context, before time.Time) (int, error)
}

// SessionLock is exclusive access to one session. Unlock must be called exactly once.
type SessionLock interface {
	// Session returns a snapshot of the locked session
	Session() *model.Session

	// Append adds turns to the session and refreshes its last activity time
	Append(turns ...model.Turn) error

	Unlock()
}

package model

import (
	"time"

	"github.com/lectio-dev/lectio/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ErrSessionNotFound is returned when an operation references an unknown session ID
var ErrSessionNotFound = goerr.New("session not found")

// Turn is one message of a conversation
type Turn struct {
	Role    types.Role `json:"role"`
	Content string     `json:"content"`
}

// NewExchange returns the user/assistant pair recorded for one successful query
func NewExchange(query, answer string) []Turn {
	return []Turn{
		{Role: types.RoleUser, Content: query},
		{Role: types.RoleAssistant, Content: answer},
	}
}

// Session is the server-held conversation memory of one caller-supplied session ID
type Session struct {
	ID             string
	CreatedAt      time.Time
	LastActivityAt time.Time
	Turns          []Turn
}

// Copy returns a deep copy so callers never share the stored turn slice
func (s *Session) Copy() *Session {
	copied := &Session{
		ID:             s.ID,
		CreatedAt:      s.CreatedAt,
		LastActivityAt: s.LastActivityAt,
	}
	if s.Turns != nil {
		copied.Turns = make([]Turn, len(s.Turns))
		copy(copied.Turns, s.Turns)
	}
	return copied
}

// Status classifies the session as active while its last activity is within idleWindow of now
func (s *Session) Status(now time.Time, idleWindow time.Duration) types.SessionStatus {
	if now.Sub(s.LastActivityAt) <= idleWindow {
		return types.SessionStatusActive
	}
	return types.SessionStatusInactive
}

// SessionSummary is the externally visible description of a session
type SessionSummary struct {
	SessionID    string              `json:"session_id"`
	CreatedAt    time.Time           `json:"created_at"`
	LastActivity time.Time           `json:"last_activity"`
	MessageCount int                 `json:"message_count"`
	Status       types.SessionStatus `json:"status"`
}

// Summary builds the summary of the session at the given time
func (s *Session) Summary(now time.Time, idleWindow time.Duration) *SessionSummary {
	return &SessionSummary{
		SessionID:    s.ID,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivityAt,
		MessageCount: len(s.Turns),
		Status:       s.Status(now, idleWindow),
	}
}

package memory

import (
	"github.com/lectio-dev/lectio/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory keeps all state in process memory. Everything is lost on restart.
type Memory struct {
	session *sessionRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		session: newSessionRepository(),
	}
}

func (m *Memory) Session() interfaces.SessionRepository {
	return m.session
}

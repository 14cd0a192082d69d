package interfaces

// Repository defines the interface for process-held state
type Repository interface {
	Session() SessionRepository
}

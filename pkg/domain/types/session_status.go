package types

// SessionStatus is derived from how recently a session was used
type SessionStatus string

const (
	SessionStatusActive   SessionStatus = "active"
	SessionStatusInactive SessionStatus = "inactive"
)

// String returns the string representation of the status
func (s SessionStatus) String() string {
	return string(s)
}

// PipelineMode names the answer generation strategy
type PipelineMode string

const (
	PipelineModeRegular PipelineMode = "regular"
	PipelineModeAgentic PipelineMode = "agentic"
)

// String returns the string representation of the mode
func (m PipelineMode) String() string {
	return string(m)
}

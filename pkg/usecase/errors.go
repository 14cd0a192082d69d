package usecase

import (
	"errors"

	"github.com/lectio-dev/lectio/pkg/domain/model"
)

// Sentinel errors for use case layer. Every error leaving a pipeline matches exactly one
// of them with errors.Is, and still matches its underlying cause.
var (
	// ErrValidation rejects malformed input before any backend call
	ErrValidation = errors.New("invalid request")

	// ErrConfiguration means a required backend endpoint or credential is missing
	ErrConfiguration = errors.New("service is not configured")

	// ErrRetrievalUnavailable means the search backend failed or timed out
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrGenerationFailed means the language model failed or timed out
	ErrGenerationFailed = errors.New("generation failed")

	// ErrReasoningExhausted means the agent used up its tool invocation budget.
	// It also matches ErrGenerationFailed.
	ErrReasoningExhausted = errors.New("reasoning step limit exceeded")

	// ErrSessionNotFound is returned for operations on an unknown session ID
	ErrSessionNotFound = model.ErrSessionNotFound
)

// kindError attaches an error kind to a cause. The message is the cause's message.
type kindError struct {
	kinds []error
	cause error
}

func (e *kindError) Error() string {
	return e.cause.Error()
}

func (e *kindError) Unwrap() []error {
	return append(append([]error{}, e.kinds...), e.cause)
}

func withKind(cause error, kinds ...error) error {
	if cause == nil {
		return nil
	}
	return &kindError{kinds: kinds, cause: cause}
}

func exhausted(cause error) error {
	return withKind(cause, ErrReasoningExhausted, ErrGenerationFailed)
}

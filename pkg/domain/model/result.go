package model

import (
	"github.com/lectio-dev/lectio/pkg/domain/types"
)

// ResultStatus tags how far a pipeline got
type ResultStatus string

const (
	// ResultSuccess carries records and a generated answer
	ResultSuccess ResultStatus = "success"
	// ResultPartial carries retrieved records but no answer; Reason explains why generation failed
	ResultPartial ResultStatus = "partial"
)

// Result is the outcome of one pipeline run. Total failures are returned as errors instead.
type Result struct {
	Status  ResultStatus
	Mode    types.PipelineMode
	Records []*Record
	Answer  string
	Reason  error

	// History is the conversation after this run. For the agentic pipeline this is the
	// stored session history; for the regular pipeline it is the caller-held history.
	History   []Turn
	SessionID string

	// SessionCleaned is set when the pipeline ran on an ephemeral session and removed it
	SessionCleaned *bool
}

// HasAnswer reports whether generation succeeded
func (r *Result) HasAnswer() bool {
	return r.Status == ResultSuccess
}

// Prompt is what a generator receives for a single-pass answer
type Prompt struct {
	System string
	User   string
}

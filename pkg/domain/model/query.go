package model

import (
	"strings"

	"github.com/lectio-dev/lectio/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultTopK = 5
	MaxTopK     = 100
)

var ErrInvalidQuery = goerr.New("invalid query request")

// SearchFilter narrows retrieval to a set of authors and works. An empty filter searches the whole corpus.
type SearchFilter struct {
	Authors []string
	Works   []string
}

// IsEmpty reports whether the filter restricts nothing
func (f SearchFilter) IsEmpty() bool {
	return len(f.Authors) == 0 && len(f.Works) == 0
}

// QueryRequest is the normalized input of both pipelines
type QueryRequest struct {
	Query        string
	TopK         int
	ReturnFields []types.ReturnField
	Filter       SearchFilter
	SessionID    string

	// ConversationHistory is caller-held history, used only by the regular pipeline
	ConversationHistory []Turn
}

// Normalize trims the query and fills in defaults for TopK and ReturnFields
func (q *QueryRequest) Normalize() {
	q.Query = strings.TrimSpace(q.Query)
	q.SessionID = strings.TrimSpace(q.SessionID)
	if q.TopK == 0 {
		q.TopK = DefaultTopK
	}
	if len(q.ReturnFields) == 0 {
		q.ReturnFields = types.DefaultReturnFields()
	}
}

// Validate checks the request before any backend call is made
func (q *QueryRequest) Validate() error {
	if q.Query == "" {
		return goerr.Wrap(ErrInvalidQuery, "query is required")
	}
	if q.TopK < 1 || q.TopK > MaxTopK {
		return goerr.Wrap(ErrInvalidQuery, "top_k must be between 1 and 100", goerr.V("top_k", q.TopK))
	}
	for _, f := range q.ReturnFields {
		if !f.IsValid() {
			return goerr.Wrap(types.ErrUnsupportedReturnField, "unsupported return field '"+f.String()+"'", goerr.V("field", f))
		}
	}
	for i, t := range q.ConversationHistory {
		if !t.Role.IsValid() {
			return goerr.Wrap(ErrInvalidQuery, "invalid role in conversation_history",
				goerr.V("index", i), goerr.V("role", t.Role))
		}
	}
	return nil
}

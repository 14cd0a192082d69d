package interfaces

import (
	"context"

	"github.com/lectio-dev/lectio/pkg/domain/model"
)

// SearchClient retrieves ranked passages from the search backend
type SearchClient interface {
	// Search returns at most topK records ordered best match first.
	// The backend may return fewer records than requested.
	Search(ctx context.Context, query string, topK int, filter model.SearchFilter) ([]*model.Record, error)
}

// Generator produces a single answer from a fully rendered prompt
type Generator interface {
	Generate(ctx context.Context, prompt *model.Prompt) (string, error)
}

package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/lectio-dev/lectio/pkg/domain/interfaces"
	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// QueryUseCase runs the regular and agentic pipelines
type QueryUseCase struct {
	repo         interfaces.Repository
	searchClient interfaces.SearchClient
	generator    interfaces.Generator
	llmClient    gollem.LLMClient
	prompts      Prompts
	maxToolCalls int
	stepTimeout  time.Duration
}

func prepare(req *model.QueryRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return withKind(err, ErrValidation)
	}
	return nil
}

func (uc *QueryUseCase) requireSearch() error {
	if uc.searchClient == nil {
		return withKind(goerr.New("search backend is not configured"), ErrConfiguration)
	}
	return nil
}

func (uc *QueryUseCase) search(ctx context.Context, req *model.QueryRequest) ([]*model.Record, error) {
	records, err := uc.searchClient.Search(ctx, req.Query, req.TopK, req.Filter)
	if err != nil {
		return nil, withKind(goerr.Wrap(err, "failed to retrieve passages", goerr.V("query", req.Query)), ErrRetrievalUnavailable)
	}
	return records, nil
}

// RecordIDs runs retrieval alone and returns the record IDs in rank order.
// A zero topK passes through every record the backend produced.
func (uc *QueryUseCase) RecordIDs(ctx context.Context, query string, topK int) ([]string, error) {
	req := &model.QueryRequest{Query: strings.TrimSpace(query), TopK: topK}
	if req.Query == "" {
		return nil, withKind(goerr.Wrap(model.ErrInvalidQuery, "query is required"), ErrValidation)
	}
	if topK < 0 || topK > model.MaxTopK {
		return nil, withKind(goerr.Wrap(model.ErrInvalidQuery, "top_k must be between 1 and 100",
			goerr.V("top_k", topK)), ErrValidation)
	}
	if err := uc.requireSearch(); err != nil {
		return nil, err
	}

	records, err := uc.search(ctx, req)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.RecordID)
	}
	return ids, nil
}

package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/lectio-dev/lectio/pkg/agent/tool"
	"github.com/lectio-dev/lectio/pkg/domain/interfaces"
	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

const (
	ToolName = "search_ccel_database"

	maxTopK = 20
)

// Tool searches the passage index on behalf of the model and remembers every record it
// returned, so the pipeline can cite them or fall back to them when generation fails.
// A Tool is scoped to a single pipeline run.
type Tool struct {
	client      interfaces.SearchClient
	defaultTopK int
	filter      model.SearchFilter

	mu       sync.Mutex
	records  []*model.Record
	seen     map[string]struct{}
	searched bool
}

var _ gollem.Tool = &Tool{}

// New creates a search tool. filter is applied to every search unless the model
// narrows it with its own authors or works arguments.
func New(client interfaces.SearchClient, defaultTopK int, filter model.SearchFilter) *Tool {
	if defaultTopK <= 0 {
		defaultTopK = model.DefaultTopK
	}
	return &Tool{
		client:      client,
		defaultTopK: defaultTopK,
		filter:      filter,
		seen:        make(map[string]struct{}),
	}
}

func (t *Tool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name: ToolName,
		Description: "Search the Christian Classics Ethereal Library for theological passages relevant to the query. " +
			"Use it for questions about doctrine, church history, biblical commentary or classical Christian authors.",
		Parameters: map[string]*gollem.Parameter{
			"query": {
				Type:        gollem.TypeString,
				Description: "The theological question or topic to search for",
				Required:    true,
			},
			"top_k": {
				Type:        gollem.TypeInteger,
				Description: fmt.Sprintf("Maximum number of passages to return (default: %d)", t.defaultTopK),
			},
			"authors": {
				Type:        gollem.TypeString,
				Description: "Optional comma separated author IDs to restrict the search to",
			},
			"works": {
				Type:        gollem.TypeString,
				Description: "Optional comma separated work IDs to restrict the search to",
			},
		},
	}
}

func (t *Tool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, err := tool.String(args, "query")
	if err != nil {
		return nil, err
	}
	topK, err := tool.OptionalInt(args, "top_k", t.defaultTopK)
	if err != nil {
		return nil, err
	}
	if topK < 1 {
		topK = t.defaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	filter := t.filter
	if authors := tool.List(args, "authors"); len(authors) > 0 {
		filter.Authors = authors
	}
	if works := tool.List(args, "works"); len(works) > 0 {
		filter.Works = works
	}

	records, err := t.client.Search(ctx, query, topK, filter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search passages",
			goerr.V("query", query),
			goerr.V("top_k", topK),
		)
	}

	t.collect(records)

	passages := make([]map[string]any, len(records))
	for i, r := range records {
		passages[i] = map[string]any{
			"record_id": r.RecordID,
			"author":    r.AuthorID,
			"work":      r.WorkID,
			"text":      r.Text,
		}
	}
	if len(passages) == 0 {
		return map[string]any{
			"passages": passages,
			"message":  "No relevant passages found for this query.",
		}, nil
	}
	return map[string]any{"passages": passages}, nil
}

func (t *Tool) collect(records []*model.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.searched = true
	for _, r := range records {
		if r.RecordID != "" {
			if _, dup := t.seen[r.RecordID]; dup {
				continue
			}
			t.seen[r.RecordID] = struct{}{}
		}
		t.records = append(t.records, r)
	}
}

// Records returns every distinct record retrieved so far, in retrieval order
func (t *Tool) Records() []*model.Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*model.Record, len(t.records))
	copy(out, t.records)
	return out
}

// Searched reports whether at least one search succeeded
func (t *Tool) Searched() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.searched
}

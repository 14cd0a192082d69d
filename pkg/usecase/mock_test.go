package usecase_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/m-mizutani/gollem"
)

// mockSearchClient records calls and returns canned records
type mockSearchClient struct {
	mu       sync.Mutex
	calls    []string
	searchFn func(ctx context.Context, query string, topK int, filter model.SearchFilter) ([]*model.Record, error)
}

func (m *mockSearchClient) Search(ctx context.Context, query string, topK int, filter model.SearchFilter) ([]*model.Record, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	m.mu.Unlock()

	if m.searchFn != nil {
		return m.searchFn(ctx, query, topK, filter)
	}
	return sampleRecords(topK), nil
}

func (m *mockSearchClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func sampleRecords(n int) []*model.Record {
	records := make([]*model.Record, n)
	for i := range records {
		records[i] = &model.Record{
			RecordID:        fmt.Sprintf("ccel/a/augustine/confessions.xml:i.%d-p1", i+1),
			Text:            fmt.Sprintf("passage %d", i+1),
			AuthorID:        "augustine",
			WorkID:          "confessions",
			DocID:           int64(i + 1),
			SimilarityScore: 0.1 * float64(i+1),
		}
	}
	return records
}

// mockGenerator returns a fixed answer or error
type mockGenerator struct {
	mu      sync.Mutex
	prompts []*model.Prompt
	answer  string
	err     error
}

func (m *mockGenerator) Generate(ctx context.Context, prompt *model.Prompt) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	if m.answer == "" {
		return "Salvation is by grace through faith.", nil
	}
	return m.answer, nil
}

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// scriptedSession plays back responses step by step. Each step receives the input of that call.
type scriptedSession struct {
	mu    sync.Mutex
	steps []func(ctx context.Context, input []gollem.Input) (*gollem.Response, error)
	calls int
}

func (s *scriptedSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	s.mu.Unlock()

	if idx >= len(s.steps) {
		return nil, fmt.Errorf("unexpected step %d", idx)
	}
	return s.steps[idx](ctx, input)
}

func (s *scriptedSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *scriptedSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	return s.Generate(ctx, input)
}

func (s *scriptedSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return s.Stream(ctx, input)
}

func (s *scriptedSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *scriptedSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *scriptedSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockLLMClient hands out a new session from newSession for every run
type mockLLMClient struct {
	newSession func() gollem.Session
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return c.newSession(), nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

func textStep(text string) func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
	return func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
		return &gollem.Response{Texts: []string{text}}, nil
	}
}

func searchStep(queries ...string) func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
	return func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
		resp := &gollem.Response{}
		for i, q := range queries {
			resp.FunctionCalls = append(resp.FunctionCalls, &gollem.FunctionCall{
				ID:        fmt.Sprintf("call-%d", i),
				Name:      "search_ccel_database",
				Arguments: map[string]any{"query": q},
			})
		}
		return resp, nil
	}
}

func errorStep(err error) func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
	return func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
		return nil, err
	}
}

// agentLLM returns a client whose every session plays back the given steps
func agentLLM(steps ...func(ctx context.Context, input []gollem.Input) (*gollem.Response, error)) *mockLLMClient {
	return &mockLLMClient{newSession: func() gollem.Session {
		return &scriptedSession{steps: steps}
	}}
}

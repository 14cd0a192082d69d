package http_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/m-mizutani/gollem"
)

type mockSearchClient struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockSearchClient) Search(ctx context.Context, query string, topK int, filter model.SearchFilter) ([]*model.Record, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	records := make([]*model.Record, topK)
	for i := range records {
		records[i] = &model.Record{
			RecordID: fmt.Sprintf("ccel/c/calvin/institutes.xml:iii.%d-p1", i+1),
			Text:     fmt.Sprintf("passage %d", i+1),
			AuthorID: "calvin",
			WorkID:   "institutes",
		}
	}
	return records, nil
}

func (m *mockSearchClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockGenerator struct {
	err error
}

func (m *mockGenerator) Generate(ctx context.Context, prompt *model.Prompt) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "Salvation is by grace through faith.", nil
}

// answerSession answers every prompt directly without calling tools
type answerSession struct {
	answer string
	err    error
}

func (s *answerSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &gollem.Response{Texts: []string{s.answer}}, nil
}

func (s *answerSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *answerSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	return s.Generate(ctx, input)
}

func (s *answerSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return s.Stream(ctx, input)
}

func (s *answerSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *answerSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *answerSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

type mockLLMClient struct {
	answer string
	err    error
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return &answerSession{answer: c.answer, err: c.err}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

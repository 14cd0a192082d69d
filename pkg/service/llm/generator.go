package llm

import (
	"context"
	"strings"
	"time"

	"github.com/lectio-dev/lectio/pkg/domain/interfaces"
	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// ErrEmptyResponse is returned when the provider answered without any text
var ErrEmptyResponse = goerr.New("LLM returned an empty response")

// Generator answers a prompt with a one-shot gollem session
type Generator struct {
	client  gollem.LLMClient
	timeout time.Duration
}

var _ interfaces.Generator = &Generator{}

// Option is a functional option for Generator configuration
type Option func(*Generator)

// WithTimeout bounds a single generation. Zero means no bound beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		g.timeout = d
	}
}

// New creates a Generator backed by the given LLM client
func New(client gollem.LLMClient, opts ...Option) (*Generator, error) {
	if client == nil {
		return nil, goerr.New("LLM client is required")
	}

	g := &Generator{client: client}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate implements interfaces.Generator
func (g *Generator) Generate(ctx context.Context, prompt *model.Prompt) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var opts []gollem.SessionOption
	if prompt.System != "" {
		opts = append(opts, gollem.WithSessionSystemPrompt(prompt.System))
	}

	session, err := g.client.NewSession(ctx, opts...)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(prompt.User)})
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content from LLM")
	}

	answer := strings.TrimSpace(strings.Join(resp.Texts, "\n"))
	if answer == "" {
		return "", goerr.Wrap(ErrEmptyResponse, "no text in LLM response")
	}
	return answer, nil
}

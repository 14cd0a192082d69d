package gemini

import (
	"context"
	"strings"
	"time"

	"github.com/lectio-dev/lectio/pkg/domain/interfaces"
	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// ErrEmptyResponse is returned when the API answered without any text
var ErrEmptyResponse = goerr.New("Gemini returned an empty response")

// ContentGenerator is the part of genai.Models used by Generator
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator answers prompts through the Gemini API with an API key
type Generator struct {
	models  ContentGenerator
	model   string
	timeout time.Duration
}

var _ interfaces.Generator = &Generator{}

// Option configures a Generator
type Option func(*Generator)

// WithModel sets the model ID. Default is DefaultModel.
func WithModel(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.model = name
		}
	}
}

// WithTimeout bounds a single generation
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		g.timeout = d
	}
}

// WithContentGenerator replaces the genai models service, mainly for tests
func WithContentGenerator(m ContentGenerator) Option {
	return func(g *Generator) {
		g.models = m
	}
}

// New creates a Generator for the given API key
func New(ctx context.Context, apiKey string, opts ...Option) (*Generator, error) {
	g := &Generator{model: DefaultModel}
	for _, opt := range opts {
		opt(g)
	}

	if g.models == nil {
		if apiKey == "" {
			return nil, goerr.New("Gemini API key is required")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini API client")
		}
		g.models = client.Models
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

	config := &genai.GenerateContentConfig{}
	if prompt.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: prompt.System}},
		}
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt.User), config)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content", goerr.V("model", g.model))
	}

	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		return "", goerr.Wrap(ErrEmptyResponse, "no text in Gemini response", goerr.V("model", g.model))
	}
	return answer, nil
}

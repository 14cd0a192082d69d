package usecase

import (
	"time"

	"github.com/lectio-dev/lectio/pkg/domain/interfaces"
	"github.com/m-mizutani/gollem"
)

const (
	DefaultMaxToolCalls = 10
	DefaultIdleWindow   = 30 * time.Minute
)

type UseCases struct {
	repo         interfaces.Repository
	searchClient interfaces.SearchClient
	generator    interfaces.Generator
	llmClient    gollem.LLMClient
	prompts      Prompts
	maxToolCalls int
	idleWindow   time.Duration
	stepTimeout  time.Duration

	Query   *QueryUseCase
	Session *SessionUseCase
}

type Option func(*UseCases)

// WithSearchClient sets the retrieval backend. Without it every query fails with ErrConfiguration.
func WithSearchClient(client interfaces.SearchClient) Option {
	return func(uc *UseCases) {
		uc.searchClient = client
	}
}

// WithGenerator sets the single-pass generator used by the regular pipeline
func WithGenerator(gen interfaces.Generator) Option {
	return func(uc *UseCases) {
		uc.generator = gen
	}
}

// WithLLMClient sets the tool-calling model used by the agentic pipeline
func WithLLMClient(client gollem.LLMClient) Option {
	return func(uc *UseCases) {
		uc.llmClient = client
	}
}

// WithPrompts overrides prompt texts. Empty fields keep the defaults.
func WithPrompts(p Prompts) Option {
	return func(uc *UseCases) {
		uc.prompts = uc.prompts.merge(p)
	}
}

// WithMaxToolCalls bounds the number of tool invocations of one agentic run
func WithMaxToolCalls(n int) Option {
	return func(uc *UseCases) {
		if n > 0 {
			uc.maxToolCalls = n
		}
	}
}

// WithIdleWindow sets how long a session stays active after its last activity
func WithIdleWindow(d time.Duration) Option {
	return func(uc *UseCases) {
		if d > 0 {
			uc.idleWindow = d
		}
	}
}

// WithStepTimeout bounds each model call of the agentic loop
func WithStepTimeout(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.stepTimeout = d
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:         repo,
		prompts:      DefaultPrompts(),
		maxToolCalls: DefaultMaxToolCalls,
		idleWindow:   DefaultIdleWindow,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Query = &QueryUseCase{
		repo:         repo,
		searchClient: uc.searchClient,
		generator:    uc.generator,
		llmClient:    uc.llmClient,
		prompts:      uc.prompts,
		maxToolCalls: uc.maxToolCalls,
		stepTimeout:  uc.stepTimeout,
	}
	uc.Session = NewSessionUseCase(repo, uc.idleWindow)

	return uc
}

// IdleWindow returns the configured session idle window
func (uc *UseCases) IdleWindow() time.Duration {
	return uc.idleWindow
}

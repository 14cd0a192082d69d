package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/lectio-dev/lectio/pkg/domain/interfaces"
	"github.com/lectio-dev/lectio/pkg/service/gemini"
	"github.com/lectio-dev/lectio/pkg/service/llm"
	"github.com/lectio-dev/lectio/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/claude"
	gollemgemini "github.com/m-mizutani/gollem/llm/gemini"
	"github.com/urfave/cli/v3"
)

const (
	ProviderGemini    = "gemini"
	ProviderClaude    = "claude"
	ProviderGeminiAPI = "gemini-api"
)

// LLM holds configuration for the answer generation providers
type LLM struct {
	provider        string
	model           string
	timeout         time.Duration
	geminiProject   string
	geminiLocation  string
	geminiAPIKey    string
	anthropicAPIKey string
}

// Models returns the generation clients selected by the configuration. Either may be nil.
type Models struct {
	// Generator serves the regular pipeline
	Generator interfaces.Generator
	// Agent serves the agentic pipeline with tool calling
	Agent gollem.LLMClient
}

func (x *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Category:    "LLM",
			Usage:       "Generation provider [gemini|claude|gemini-api]",
			Value:       ProviderGemini,
			Sources:     cli.EnvVars("LECTIO_LLM_PROVIDER"),
			Destination: &x.provider,
		},
		&cli.StringFlag{
			Name:        "llm-model",
			Category:    "LLM",
			Usage:       "Model name (provider default if empty)",
			Sources:     cli.EnvVars("LECTIO_LLM_MODEL"),
			Destination: &x.model,
		},
		&cli.DurationFlag{
			Name:        "llm-timeout",
			Category:    "LLM",
			Usage:       "Timeout of a single generation call",
			Value:       60 * time.Second,
			Sources:     cli.EnvVars("LECTIO_LLM_TIMEOUT"),
			Destination: &x.timeout,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Category:    "LLM",
			Usage:       "Google Cloud project ID for Vertex AI Gemini",
			Sources:     cli.EnvVars("LECTIO_GEMINI_PROJECT"),
			Destination: &x.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Category:    "LLM",
			Usage:       "Google Cloud location for Vertex AI Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("LECTIO_GEMINI_LOCATION"),
			Destination: &x.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Category:    "LLM",
			Usage:       "Gemini API key for the gemini-api provider",
			Sources:     cli.EnvVars("LECTIO_GEMINI_API_KEY", "GOOGLE_API_KEY"),
			Destination: &x.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Category:    "LLM",
			Usage:       "Anthropic API key for the claude provider",
			Sources:     cli.EnvVars("LECTIO_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"),
			Destination: &x.anthropicAPIKey,
		},
	}
}

func (x *LLM) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("provider", x.provider),
		slog.String("model", x.model),
		slog.Duration("timeout", x.timeout),
		slog.String("gemini_project", x.geminiProject),
		slog.String("gemini_location", x.geminiLocation),
		slog.Bool("gemini_api_key", x.geminiAPIKey != ""),
		slog.Bool("anthropic_api_key", x.anthropicAPIKey != ""),
	}
}

// Configure creates the generation clients for the selected provider.
// Missing credentials are not an error: the affected pipelines answer with a configuration error.
func (x *LLM) Configure(ctx context.Context) (*Models, error) {
	if x.timeout < 0 {
		return nil, goerr.Wrap(ErrNegativeDuration, "invalid LLM timeout", goerr.V("timeout", x.timeout))
	}

	switch x.provider {
	case ProviderGemini:
		if x.geminiProject == "" {
			logging.Default().Warn("Gemini project is not configured, generation will be unavailable")
			return &Models{}, nil
		}
		var opts []gollemgemini.Option
		if x.model != "" {
			opts = append(opts, gollemgemini.WithModel(x.model))
		}
		client, err := gollemgemini.New(ctx, x.geminiProject, x.geminiLocation, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return x.gollemModels(client)

	case ProviderClaude:
		if x.anthropicAPIKey == "" {
			logging.Default().Warn("Anthropic API key is not configured, generation will be unavailable")
			return &Models{}, nil
		}
		var opts []claude.Option
		if x.model != "" {
			opts = append(opts, claude.WithModel(x.model))
		}
		client, err := claude.New(ctx, x.anthropicAPIKey, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Claude client")
		}
		return x.gollemModels(client)

	case ProviderGeminiAPI:
		if x.geminiAPIKey == "" {
			logging.Default().Warn("Gemini API key is not configured, generation will be unavailable")
			return &Models{}, nil
		}
		opts := []gemini.Option{gemini.WithTimeout(x.timeout)}
		if x.model != "" {
			opts = append(opts, gemini.WithModel(x.model))
		}
		gen, err := gemini.New(ctx, x.geminiAPIKey, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini API generator")
		}
		logging.Default().Warn("gemini-api provider has no tool calling, the agentic pipeline is unavailable")
		return &Models{Generator: gen}, nil

	default:
		return nil, goerr.Wrap(ErrUnknownProvider, "unsupported LLM provider", goerr.V(ProviderKey, x.provider))
	}
}

func (x *LLM) gollemModels(client gollem.LLMClient) (*Models, error) {
	gen, err := llm.New(client, llm.WithTimeout(x.timeout))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create generator")
	}
	return &Models{Generator: gen, Agent: client}, nil
}

// Timeout returns the per-call generation timeout
func (x *LLM) Timeout() time.Duration {
	return x.timeout
}

package config

import (
	"log/slog"
	"time"

	"github.com/lectio-dev/lectio/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Agent holds limits of the agentic reasoning loop
type Agent struct {
	maxToolCalls int
	stepTimeout  time.Duration
}

func (x *Agent) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "agent-max-tool-calls",
			Category:    "Agent",
			Usage:       "Maximum number of search tool invocations per agent query",
			Value:       usecase.DefaultMaxToolCalls,
			Sources:     cli.EnvVars("LECTIO_AGENT_MAX_TOOL_CALLS"),
			Destination: &x.maxToolCalls,
		},
		&cli.DurationFlag{
			Name:        "agent-step-timeout",
			Category:    "Agent",
			Usage:       "Timeout of each model call in the agent loop (0 uses the request deadline only)",
			Value:       60 * time.Second,
			Sources:     cli.EnvVars("LECTIO_AGENT_STEP_TIMEOUT"),
			Destination: &x.stepTimeout,
		},
	}
}

func (x *Agent) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("max_tool_calls", x.maxToolCalls),
		slog.Duration("step_timeout", x.stepTimeout),
	}
}

// Options returns the use case options of the agent limits
func (x *Agent) Options() ([]usecase.Option, error) {
	if x.maxToolCalls <= 0 {
		return nil, goerr.Wrap(ErrNonPositiveCount, "invalid agent tool call limit",
			goerr.V(FlagKey, "agent-max-tool-calls"), goerr.V("value", x.maxToolCalls))
	}
	if x.stepTimeout < 0 {
		return nil, goerr.Wrap(ErrNegativeDuration, "invalid agent step timeout", goerr.V("value", x.stepTimeout))
	}
	return []usecase.Option{
		usecase.WithMaxToolCalls(x.maxToolCalls),
		usecase.WithStepTimeout(x.stepTimeout),
	}, nil
}

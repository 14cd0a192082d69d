package cli

import (
	"context"

	"github.com/lectio-dev/lectio/pkg/cli/config"
	"github.com/lectio-dev/lectio/pkg/domain/interfaces"
	"github.com/lectio-dev/lectio/pkg/usecase"
	"github.com/lectio-dev/lectio/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// pipelineConfig groups the configuration shared by every command that runs a pipeline
type pipelineConfig struct {
	app     config.AppConfig
	search  config.Search
	llm     config.LLM
	agent   config.Agent
	session config.Session
}

func (p *pipelineConfig) flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, p.app.Flags()...)
	flags = append(flags, p.search.Flags()...)
	flags = append(flags, p.llm.Flags()...)
	flags = append(flags, p.agent.Flags()...)
	flags = append(flags, p.session.Flags()...)
	return flags
}

// buildUseCases wires backends into use cases. Unconfigured backends are left out so that
// the affected operations fail with a configuration error instead of the process failing to start.
func (p *pipelineConfig) buildUseCases(ctx context.Context, repo interfaces.Repository) (*usecase.UseCases, error) {
	prompts, err := p.app.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load configuration file")
	}

	if err := p.session.Validate(); err != nil {
		return nil, err
	}

	searchClient, err := p.search.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure search backend")
	}

	models, err := p.llm.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure LLM")
	}

	agentOpts, err := p.agent.Options()
	if err != nil {
		return nil, err
	}

	opts := []usecase.Option{
		usecase.WithPrompts(prompts),
		usecase.WithIdleWindow(p.session.IdleWindow()),
	}
	if searchClient != nil {
		opts = append(opts, usecase.WithSearchClient(searchClient))
	}
	if models.Generator != nil {
		opts = append(opts, usecase.WithGenerator(models.Generator))
	}
	if models.Agent != nil {
		opts = append(opts, usecase.WithLLMClient(models.Agent))
	}
	opts = append(opts, agentOpts...)

	logging.Default().Info("Pipelines configured",
		"search", p.search.LogAttrs(),
		"llm", p.llm.LogAttrs(),
		"agent", p.agent.LogAttrs(),
		"session", p.session.LogAttrs(),
	)

	return usecase.New(repo, opts...), nil
}

package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/lectio-dev/lectio/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// AppConfig represents the optional TOML configuration file
type AppConfig struct {
	path string

	Prompts PromptConfig `toml:"prompts"`
}

// PromptConfig overrides the embedded prompt texts. Empty values keep the defaults.
type PromptConfig struct {
	RegularSystem string `toml:"regular_system"`
	AgentSystem   string `toml:"agent_system"`
	NoSources     string `toml:"no_sources"`
}

func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML configuration file",
			Sources:     cli.EnvVars("LECTIO_CONFIG"),
			Destination: &a.path,
		},
	}
}

// ToPrompts converts the prompt section into use case prompts
func (a *AppConfig) ToPrompts() usecase.Prompts {
	return usecase.Prompts{
		RegularSystem: a.Prompts.RegularSystem,
		AgentSystem:   a.Prompts.AgentSystem,
		NoSources:     a.Prompts.NoSources,
	}
}

// Validate checks that prompt overrides render
func (a *AppConfig) Validate() error {
	if a.Prompts.AgentSystem == "" {
		return nil
	}
	if err := (usecase.Prompts{AgentSystem: a.Prompts.AgentSystem}).Validate(); err != nil {
		return goerr.Wrap(ErrInvalidTemplate, err.Error())
	}
	return nil
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("error", err.Error()))
	}
	config.path = path

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// Configure loads the file given by --config. Without the flag the defaults are used.
func (a *AppConfig) Configure() (usecase.Prompts, error) {
	if a.path == "" {
		return usecase.Prompts{}, nil
	}

	loaded, err := LoadAppConfiguration(a.path)
	if err != nil {
		return usecase.Prompts{}, err
	}
	return loaded.ToPrompts(), nil
}

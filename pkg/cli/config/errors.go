package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound   = goerr.New("configuration file not found")
	ErrInvalidConfig    = goerr.New("invalid configuration")
	ErrUnknownProvider  = goerr.New("unknown LLM provider")
	ErrInvalidLogLevel  = goerr.New("invalid log level")
	ErrInvalidLogFormat = goerr.New("invalid log format")
	ErrInvalidTemplate  = goerr.New("invalid prompt template")
	ErrNegativeDuration = goerr.New("duration must not be negative")
	ErrNonPositiveCount = goerr.New("value must be positive")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	ProviderKey   = "provider"
	FlagKey       = "flag"
)

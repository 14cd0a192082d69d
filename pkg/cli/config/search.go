package config

import (
	"log/slog"
	"time"

	"github.com/lectio-dev/lectio/pkg/domain/interfaces"
	"github.com/lectio-dev/lectio/pkg/service/manticore"
	"github.com/lectio-dev/lectio/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Search holds configuration for the Manticore search backend
type Search struct {
	url      string
	timeout  time.Duration
	cacheTTL time.Duration
}

func (x *Search) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "manticore-url",
			Category:    "Search",
			Usage:       "Manticore search endpoint URL",
			Sources:     cli.EnvVars("LECTIO_MANTICORE_URL", "MANTICORE_API_URL"),
			Destination: &x.url,
		},
		&cli.DurationFlag{
			Name:        "search-timeout",
			Category:    "Search",
			Usage:       "Timeout of a single search request",
			Value:       10 * time.Second,
			Sources:     cli.EnvVars("LECTIO_SEARCH_TIMEOUT"),
			Destination: &x.timeout,
		},
		&cli.DurationFlag{
			Name:        "search-cache-ttl",
			Category:    "Search",
			Usage:       "How long identical search results are cached (0 disables caching)",
			Value:       0,
			Sources:     cli.EnvVars("LECTIO_SEARCH_CACHE_TTL"),
			Destination: &x.cacheTTL,
		},
	}
}

func (x *Search) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("url", x.url),
		slog.Duration("timeout", x.timeout),
		slog.Duration("cache_ttl", x.cacheTTL),
	}
}

// Configure creates the search client.
// Returns nil if the URL is not configured; queries then fail with a configuration error.
func (x *Search) Configure() (interfaces.SearchClient, error) {
	if x.url == "" {
		logging.Default().Warn("Manticore URL is not configured, query endpoints will be unavailable")
		return nil, nil
	}
	if x.timeout < 0 || x.cacheTTL < 0 {
		return nil, goerr.Wrap(ErrNegativeDuration, "invalid search configuration",
			goerr.V("timeout", x.timeout), goerr.V("cache_ttl", x.cacheTTL))
	}

	opts := []manticore.Option{manticore.WithTimeout(x.timeout)}
	if x.cacheTTL > 0 {
		opts = append(opts, manticore.WithCache(x.cacheTTL))
	}

	client, err := manticore.New(x.url, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Manticore client")
	}
	return client, nil
}

package config

import (
	"log/slog"
	"time"

	"github.com/lectio-dev/lectio/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Session holds configuration of agent session lifetime
type Session struct {
	idleWindow     time.Duration
	reaperInterval time.Duration
}

func (x *Session) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "session-idle-window",
			Category:    "Session",
			Usage:       "Idle time after which a session is reported inactive",
			Value:       usecase.DefaultIdleWindow,
			Sources:     cli.EnvVars("LECTIO_SESSION_IDLE_WINDOW"),
			Destination: &x.idleWindow,
		},
		&cli.DurationFlag{
			Name:        "session-reaper-interval",
			Category:    "Session",
			Usage:       "Interval of inactive session eviction (0 disables eviction)",
			Value:       0,
			Sources:     cli.EnvVars("LECTIO_SESSION_REAPER_INTERVAL"),
			Destination: &x.reaperInterval,
		},
	}
}

func (x *Session) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Duration("idle_window", x.idleWindow),
		slog.Duration("reaper_interval", x.reaperInterval),
	}
}

func (x *Session) Validate() error {
	if x.idleWindow < 0 || x.reaperInterval < 0 {
		return goerr.Wrap(ErrNegativeDuration, "invalid session configuration",
			goerr.V("idle_window", x.idleWindow), goerr.V("reaper_interval", x.reaperInterval))
	}
	return nil
}

func (x *Session) IdleWindow() time.Duration {
	return x.idleWindow
}

// ReaperInterval returns 0 when eviction is disabled
func (x *Session) ReaperInterval() time.Duration {
	return x.reaperInterval
}

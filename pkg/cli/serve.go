package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	httpctrl "github.com/lectio-dev/lectio/pkg/controller/http"
	"github.com/lectio-dev/lectio/pkg/repository/memory"
	"github.com/lectio-dev/lectio/pkg/service/worker"
	"github.com/lectio-dev/lectio/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func cmdServe() *cli.Command {
	var addr string
	var shutdownTimeout time.Duration
	var pipelineCfg pipelineConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8000",
			Sources:     cli.EnvVars("LECTIO_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "shutdown-timeout",
			Usage:       "How long in-flight requests may run after a shutdown signal",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("LECTIO_SHUTDOWN_TIMEOUT"),
			Destination: &shutdownTimeout,
		},
	}

	// Add shared config flags
	flags = append(flags, pipelineCfg.flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			repo := memory.New()

			uc, err := pipelineCfg.buildUseCases(ctx, repo)
			if err != nil {
				return err
			}

			// Session eviction is optional and off by default
			var reaper *worker.SessionReaperWorker
			if interval := pipelineCfg.session.ReaperInterval(); interval > 0 {
				reaper = worker.NewSessionReaperWorker(uc.Session, interval)
				if err := reaper.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start session reaper")
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "failed to start server")
				}
				return nil
			})

			// Runs on a shutdown signal or when the server fails to start
			eg.Go(func() error {
				<-ctx.Done()
				logging.Default().Info("Shutting down HTTP server")

				if reaper != nil {
					reaper.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			})

			return eg.Wait()
		},
	}
}

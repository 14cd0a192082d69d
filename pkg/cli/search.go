package cli

import (
	"context"
	"fmt"

	"github.com/lectio-dev/lectio/pkg/cli/config"
	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/lectio-dev/lectio/pkg/repository/memory"
	"github.com/lectio-dev/lectio/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdSearch() *cli.Command {
	var topK int
	var searchCfg config.Search

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "top-k",
			Aliases:     []string{"k"},
			Usage:       "Number of records to return",
			Value:       model.DefaultTopK,
			Destination: &topK,
		},
	}
	flags = append(flags, searchCfg.Flags()...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Print the record IDs matching a query",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return goerr.New("query argument is required")
			}

			client, err := searchCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure search backend")
			}
			if client == nil {
				return goerr.New("--manticore-url is required for search")
			}

			uc := usecase.New(memory.New(), usecase.WithSearchClient(client))
			ids, err := uc.Query.RecordIDs(ctx, joinArgs(c), topK)
			if err != nil {
				return err
			}

			for _, id := range ids {
				fmt.Fprintln(c.Root().Writer, id)
			}
			return nil
		},
	}
}

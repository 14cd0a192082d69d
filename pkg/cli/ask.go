package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/lectio-dev/lectio/pkg/repository/memory"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdAsk() *cli.Command {
	var agentic bool
	var topK int
	var authors []string
	var works []string
	var pipelineCfg pipelineConfig

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "agent",
			Aliases:     []string{"a"},
			Usage:       "Use the agentic pipeline instead of the single-pass pipeline",
			Destination: &agentic,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Aliases:     []string{"k"},
			Usage:       "Number of passages to retrieve",
			Value:       model.DefaultTopK,
			Destination: &topK,
		},
		&cli.StringSliceFlag{
			Name:        "author",
			Usage:       "Restrict retrieval to an author ID (repeatable)",
			Destination: &authors,
		},
		&cli.StringSliceFlag{
			Name:        "work",
			Usage:       "Restrict retrieval to a work ID (repeatable)",
			Destination: &works,
		},
	}
	flags = append(flags, pipelineCfg.flags()...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer a single question and print it with its sources",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return goerr.New("question argument is required")
			}

			uc, err := pipelineCfg.buildUseCases(ctx, memory.New())
			if err != nil {
				return err
			}

			req := &model.QueryRequest{
				Query:  joinArgs(c),
				TopK:   topK,
				Filter: model.SearchFilter{Authors: authors, Works: works},
			}

			run := uc.Query.Regular
			if agentic {
				run = uc.Query.Agentic
			}
			result, err := run(ctx, req)
			if err != nil {
				return err
			}

			return printResult(c.Root().Writer, result)
		},
	}
}

func joinArgs(c *cli.Command) string {
	return strings.Join(c.Args().Slice(), " ")
}

func printResult(w io.Writer, result *model.Result) error {
	if result.HasAnswer() {
		if _, err := fmt.Fprintf(w, "%s\n", result.Answer); err != nil {
			return goerr.Wrap(err, "failed to write answer")
		}
	} else {
		if _, err := fmt.Fprintf(w, "No answer could be generated (%v). Retrieved passages follow.\n", result.Reason); err != nil {
			return goerr.Wrap(err, "failed to write fallback notice")
		}
	}

	sources := model.NewSources(result.Records)
	if len(sources) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "\nSources:"); err != nil {
		return goerr.Wrap(err, "failed to write sources")
	}
	for _, s := range sources {
		line := "- " + s.RecordID
		if s.CitationText != "" {
			line += " (" + s.CitationText + ")"
		}
		if s.Link != "" {
			line += " " + s.Link
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return goerr.Wrap(err, "failed to write sources")
		}
	}
	return nil
}

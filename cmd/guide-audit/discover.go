//nolint:wrapcheck
package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"guide-a11y/internal/analyzer"
)

func discoverCommand() *cli.Command {
	return &cli.Command{
		Name:      "discover",
		Usage:     "List the pages of the guide a page belongs to",
		ArgsUsage: "<url>",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:  "file",
				Usage: "Read the page from this file instead of fetching the url",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			pageURL, err := singleArg(cmd, "guide page url")
			if err != nil {
				return err
			}

			logger := newLogger(cmd)

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var body []byte

			if file := cmd.String("file"); file != "" {
				body, _, err = readLocal(file)
			} else {
				body, err = analyzer.NewFetcher(cfg.FetchOptions(nil)).Fetch(ctx, logger, pageURL)
			}

			if err != nil {
				return err
			}

			doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("failed to parse document: %w", err)
			}

			pages, err := analyzer.Discover(ctx, logger, doc, pageURL)
			if err != nil {
				if len(pages) == 0 {
					return err
				}

				logger.WarnContext(ctx, "Some navigation links could not be parsed", slog.Any("error", err))
			}

			lines := make([]any, 0, len(pages))
			for i, p := range pages {
				lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, p.Title, p.URL))
			}

			return printAll(cmd.String("format"), []*format.Data{{
				Object: pageURL,
				Meta: map[string]any{
					"count": len(pages),
					"pages": lines,
				},
			}})
		},
	}
}

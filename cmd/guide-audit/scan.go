//nolint:wrapcheck
package main

import (
	"context"
	"fmt"

	"github.com/farcloser/primordium/fault"
	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"guide-a11y/internal/analyzer"
)

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Scan a single page for accessibility issues",
		ArgsUsage: "<url | file | ->",
		Flags: append(commonFlags(),
			&cli.BoolFlag{
				Name:  "fail-on-issues",
				Usage: "Exit with an error when the page has fixable issues",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			source, err := singleArg(cmd, "page url, html file or \"-\" for stdin")
			if err != nil {
				return err
			}

			svc, logger, err := newService(ctx, cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			var result analyzer.ScanResult

			if isRemote(source) {
				result = svc.Scanner.ScanPage(ctx, logger, analyzer.PageDescriptor{URL: source})
			} else {
				body, pageURL, err := readLocal(source)
				if err != nil {
					return err
				}

				result = svc.Scanner.ScanDocument(ctx, logger, analyzer.PageDescriptor{URL: pageURL}, body)
			}

			page := svc.Reports.Page(result)

			if err := printAll(cmd.String("format"), []*format.Data{{Object: source, Meta: page.Meta()}}); err != nil {
				return err
			}

			if page.Failed() {
				return fmt.Errorf("%w: %s", fault.ErrReadFailure, page.Error)
			}

			if cmd.Bool("fail-on-issues") && len(page.Fixable) > 0 {
				return fmt.Errorf("%w: %d fixable issues", fault.ErrCommandFailure, len(page.Fixable))
			}

			return nil
		},
	}
}

func guideCommand() *cli.Command {
	return &cli.Command{
		Name:      "guide",
		Usage:     "Discover every page of a guide, scan them and score the guide",
		ArgsUsage: "<url>",
		Flags:     commonFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			startURL, err := singleArg(cmd, "guide page url")
			if err != nil {
				return err
			}

			svc, logger, err := newService(ctx, cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			audit, err := svc.Scanner.AuditGuide(ctx, logger, startURL)
			if err != nil {
				return err
			}

			guide := svc.Reports.Guide(audit)

			data := []*format.Data{{Object: startURL, Meta: guide.Meta()}}
			for _, page := range guide.Pages {
				data = append(data, &format.Data{Object: page.Page.URL, Meta: page.Meta()})
			}

			return printAll(cmd.String("format"), data)
		},
	}
}

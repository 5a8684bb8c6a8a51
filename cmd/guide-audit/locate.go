//nolint:wrapcheck
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/farcloser/primordium/fault"
	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"guide-a11y/internal/analyzer"
)

func locateCommand() *cli.Command {
	return &cli.Command{
		Name:      "locate",
		Usage:     "Find the elements a reported selector points at",
		ArgsUsage: "<url | file> <selector>",
		Flags:     commonFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("%w: expected a page and a selector, got %d arguments", fault.ErrMissingRequirements, cmd.NArg())
			}

			source, selector := cmd.Args().Get(0), cmd.Args().Get(1)

			svc, logger, err := newService(ctx, cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			var refs []analyzer.ElementRef

			if isRemote(source) {
				refs, err = svc.Scanner.LocatePage(ctx, logger, source, selector)
			} else {
				refs, err = locateLocal(source, selector)
			}

			meta := map[string]any{"selector": selector}

			switch {
			case errors.Is(err, analyzer.ErrSelectorNotFound):
				meta["found"] = false
				meta["matches"] = 0
			case err != nil:
				return err
			default:
				snippets := make([]any, 0, len(refs))
				for _, ref := range refs {
					snippets = append(snippets, ref.Snippet)
				}

				meta["found"] = true
				meta["matches"] = len(refs)
				meta["elements"] = snippets
			}

			return printAll(cmd.String("format"), []*format.Data{{Object: source, Meta: meta}})
		},
	}
}

func locateLocal(source, selector string) ([]analyzer.ElementRef, error) {
	body, _, err := readLocal(source)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	nodes, err := analyzer.Locate(doc.Get(0), selector)
	if err != nil {
		return nil, err
	}

	resolver := analyzer.NewResolver(doc.Get(0))
	refs := make([]analyzer.ElementRef, 0, len(nodes))

	for _, n := range nodes {
		refs = append(refs, resolver.Ref(n, analyzer.IDPolicyTrust))
	}

	return refs, nil
}

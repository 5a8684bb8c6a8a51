//nolint:wrapcheck
package main

import (
	"context"
	"fmt"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"guide-a11y/internal/analyzer"
)

func rulesCommand() *cli.Command {
	return &cli.Command{
		Name:  "rules",
		Usage: "List the rules and their remediation guidance",
		Flags: commonFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			catalog := analyzer.NewCatalog(cfg.Catalog.SupportContact)

			heuristics := make(map[string]bool)
			for _, id := range analyzer.DefaultRuleSet().IDs() {
				heuristics[id] = true
			}

			data := make([]*format.Data, 0)

			for _, e := range catalog.Entries() {
				source := "engine"
				if heuristics[e.RuleID] {
					source = "heuristic"
				}

				data = append(data, &format.Data{
					Object: e.RuleID,
					Meta: map[string]any{
						"title":    e.Title,
						"priority": string(e.Priority),
						"fixable":  string(e.Fixable),
						"source":   source,
						"summary":  fmt.Sprintf("%s: %s", e.Title, e.Plain),
					},
				})
			}

			return printAll(cmd.String("format"), data)
		},
	}
}

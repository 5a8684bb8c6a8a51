package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"guide-a11y/version"
)

func main() {
	ctx := context.Background()

	appl := &cli.Command{
		Name:    version.Name(),
		Usage:   "Accessibility audit for LibGuides pages and guides",
		Version: version.Version() + " " + version.Commit(),
		Commands: []*cli.Command{
			scanCommand(),
			guideCommand(),
			discoverCommand(),
			locateCommand(),
			rulesCommand(),
		},
	}

	if err := appl.Run(ctx, os.Args); err != nil {
		slog.Error("failed to run", "error", err)
		os.Exit(1)
	}
}

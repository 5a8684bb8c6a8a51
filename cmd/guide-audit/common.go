//nolint:wrapcheck
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/farcloser/primordium/fault"
	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"guide-a11y/internal/config"
	"guide-a11y/internal/service"
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a TOML configuration file (default: $" + config.EnvPath + ")",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: console, json, markdown",
			Value:   "console",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
			Value: "warn",
		},
	}
}

func newLogger(cmd *cli.Command) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: service.ParseLevel(cmd.String("log-level")),
	}))
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	return config.Load(config.PathFromEnv(cmd.String("config")))
}

func newService(ctx context.Context, cmd *cli.Command) (*service.Service, *slog.Logger, error) {
	logger := newLogger(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	return service.New(ctx, logger, cfg), logger, nil
}

func printAll(formatName string, data []*format.Data) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	return formatter.PrintAll(data, os.Stdout)
}

func isRemote(source string) bool {
	u, err := url.Parse(source)

	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// readLocal reads an HTML document from a file or, for "-", from stdin.
func readLocal(source string) ([]byte, string, error) {
	if source == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("%w: reading stdin: %w", fault.ErrReadFailure, err)
		}

		return data, "stdin", nil
	}

	data, err := os.ReadFile(source) //nolint:gosec // CLI tool opens user-specified documents
	if err != nil {
		return nil, "", fmt.Errorf("%w: cannot access %s: %w", fault.ErrReadFailure, source, err)
	}

	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}

	return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), "file://" + filepath.ToSlash(abs), nil
}

func singleArg(cmd *cli.Command, usage string) (string, error) {
	if cmd.NArg() != 1 {
		return "", fmt.Errorf("%w: expected exactly one argument: %s, got %d", fault.ErrMissingRequirements, usage, cmd.NArg())
	}

	return strings.TrimSpace(cmd.Args().First()), nil
}

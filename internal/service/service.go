// Package service assembles the scanner, catalog and report builder from configuration.
package service

import (
	"context"
	"log/slog"
	"strings"

	"guide-a11y/internal/analyzer"
	"guide-a11y/internal/cache"
	"guide-a11y/internal/config"
	"guide-a11y/internal/engine"
	"guide-a11y/internal/report"
)

type Service struct {
	Config  *config.Config
	Scanner *analyzer.Scanner
	Catalog *analyzer.Catalog
	Reports *report.Builder

	cache cache.Backend
}

func New(ctx context.Context, logger *slog.Logger, cfg *config.Config) *Service {
	pages := cache.New(ctx, logger, cfg.Cache)

	var pageCache analyzer.PageCache
	if pages != nil {
		pageCache = pages
	}

	scanner := analyzer.NewScanner(analyzer.ScannerOptions{
		Engine:       engine.Guard{Engine: engine.NewBaseline(logger)},
		RunOptions:   cfg.RunOptions(),
		Rules:        analyzer.DefaultRuleSet(),
		Suppressions: analyzer.DefaultSuppressions(),
		Thresholds:   cfg.Thresholds(),
		Styles:       cfg.Styles(),
		Policy:       cfg.ScorePolicy(),
		Fetcher:      analyzer.NewFetcher(cfg.FetchOptions(pageCache)),
		Concurrency:  cfg.Scan.Concurrency,
		PageTimeout:  cfg.Scan.PageTimeout.Duration,
	})

	catalog := analyzer.NewCatalog(cfg.Catalog.SupportContact)

	return &Service{
		Config:  cfg,
		Scanner: scanner,
		Catalog: catalog,
		Reports: report.NewBuilder(catalog, scanner.Policy()),
		cache:   pages,
	}
}

func (s *Service) Close() error {
	if s.cache == nil {
		return nil
	}

	return s.cache.Close()
}

// ParseLevel maps debug, info, warn and error to a slog level. Anything else is info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

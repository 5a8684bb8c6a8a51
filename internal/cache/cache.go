package cache

import (
	"context"
	"io"
	"log/slog"

	"guide-a11y/internal/analyzer"
	"guide-a11y/internal/config"
)

// Backend is a page cache that owns resources.
type Backend interface {
	analyzer.PageCache
	io.Closer
}

// New builds the backend named in cfg. A Redis backend that cannot be reached
// falls back to memory. It returns nil when caching is disabled.
func New(ctx context.Context, logger *slog.Logger, cfg config.Cache) Backend {
	switch cfg.Backend {
	case "none":
		logger.InfoContext(ctx, "Page cache disabled")
		return nil
	case "redis":
		logger.InfoContext(ctx, "Initializing Redis page cache")

		r, err := NewRedis(ctx, cfg.RedisURL, cfg.Prefix)
		if err == nil {
			return r
		}

		logger.WarnContext(ctx, "Redis connection failed, using memory cache", slog.Any("error", err))
	}

	logger.InfoContext(ctx, "Initializing in-memory page cache")

	return NewMemory(cfg.TTL.Duration)
}

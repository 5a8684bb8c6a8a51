package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/farcloser/primordium/fault"
	"golang.org/x/sync/singleflight"
)

const (
	defaultRetries      = 3
	defaultBackoff      = 1 * time.Second
	defaultFetchTimeout = 10 * time.Second
	defaultMaxBodyBytes = 5 << 20
	defaultUserAgent    = "guide-a11y/1.0 (+accessibility audit)"
)

var ErrUnexpectedStatus = errors.New("unexpected status")

// PageCache stores fetched page bodies.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type FetchOptions struct {
	Timeout      time.Duration
	Retries      int
	Backoff      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Cache        PageCache
	CacheTTL     time.Duration
}

type Fetcher struct {
	client  *http.Client
	opts    FetchOptions
	flights singleflight.Group
}

func NewFetcher(opts FetchOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultFetchTimeout
	}

	if opts.Retries <= 0 {
		opts.Retries = defaultRetries
	}

	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}

	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	return &Fetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

// Fetch returns the body of pageURL. Concurrent fetches of the same URL share
// one request; the caller's context still bounds how long it waits.
func (f *Fetcher) Fetch(ctx context.Context, logger *slog.Logger, pageURL string) ([]byte, error) {
	logger = logger.With(slog.String("fetching_page", pageURL))

	if f.opts.Cache != nil {
		body, ok, err := f.opts.Cache.Get(ctx, pageURL)
		if err != nil {
			logger.WarnContext(ctx, "Page cache lookup failed", slog.Any("error", err))
		} else if ok {
			logger.DebugContext(ctx, "Page served from cache", slog.Int("bytes", len(body)))
			return body, nil
		}
	}

	if ctx.Err() != nil {
		return nil, contextError(ctx)
	}

	// The shared request outlives any single caller.
	ch := f.flights.DoChan(pageURL, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.flightBudget())
		defer cancel()

		return f.load(flightCtx, logger, pageURL)
	})

	select {
	case <-ctx.Done():
		return nil, contextError(ctx)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		if res.Shared {
			logger.DebugContext(ctx, "Shared in-flight page fetch")
		}

		return res.Val.([]byte), nil
	}
}

// flightBudget covers every attempt and the backoff between them.
func (f *Fetcher) flightBudget() time.Duration {
	budget := time.Duration(f.opts.Retries) * f.opts.Timeout

	backoff := f.opts.Backoff
	for i := 1; i < f.opts.Retries; i++ {
		budget += backoff
		backoff *= 2
	}

	return budget
}

func (f *Fetcher) load(ctx context.Context, logger *slog.Logger, pageURL string) ([]byte, error) {
	var lastErr error

	backoff := f.opts.Backoff

	for i := 0; i < f.opts.Retries; i++ {
		attempt := i + 1
		logger.DebugContext(ctx, "Attempting to fetch page", slog.Int("attempt", attempt))

		body, retry, err := f.attempt(ctx, pageURL)
		if err == nil {
			logger.InfoContext(ctx, "Successfully fetched page",
				slog.Int("attempt", attempt),
				slog.Int("bytes", len(body)),
			)

			f.store(ctx, logger, pageURL, body)

			return body, nil
		}

		lastErr = err

		if !retry || attempt == f.opts.Retries {
			break
		}

		logger.WarnContext(ctx, "Fetch attempt failed, retrying...",
			slog.Int("attempt", attempt),
			slog.Any("error", err),
			slog.Duration("backoff_duration", backoff),
		)

		select {
		case <-ctx.Done():
			return nil, contextError(ctx)
		case <-time.After(backoff):
		}

		backoff *= 2
	}

	logger.ErrorContext(ctx, "Failed to fetch page", slog.Any("last_error", lastErr))

	return nil, lastErr
}

// attempt performs one request. retry reports whether another attempt may help.
func (f *Fetcher) attempt(ctx context.Context, pageURL string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, contextError(ctx)
		}

		return nil, true, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryable := resp.StatusCode >= 500 ||
			resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusRequestTimeout

		return nil, retryable, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	return body, false, nil
}

func (f *Fetcher) store(ctx context.Context, logger *slog.Logger, pageURL string, body []byte) {
	if f.opts.Cache == nil {
		return
	}

	if err := f.opts.Cache.Set(ctx, pageURL, body, f.opts.CacheTTL); err != nil {
		logger.WarnContext(ctx, "Page cache write failed", slog.Any("error", err))
	}
}

func contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", fault.ErrTimeout, ctx.Err())
	}

	return ctx.Err()
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/farcloser/primordium/fault"

	"guide-a11y/internal/analyzer"
)

// EnvPath names the environment variable holding the config file path.
const EnvPath = "GUIDE_A11Y_CONFIG"

var ErrInvalidConfig = errors.New("invalid configuration")

//go:embed default.toml
var defaultConfig []byte

// Duration decodes TOML strings such as "10s" or "1m30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	d.Duration = parsed

	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Server      Server      `toml:"server"`
	Fetch       Fetch       `toml:"fetch"`
	Scan        Scan        `toml:"scan"`
	Score       Score       `toml:"score"`
	LayoutTable LayoutTable `toml:"layout_table"`
	AltText     AltText     `toml:"alt_text"`
	Cache       Cache       `toml:"cache"`
	Catalog     Catalog     `toml:"catalog"`
}

type Server struct {
	Addr     string `toml:"addr"`
	Template string `toml:"template"`
}

type Fetch struct {
	Timeout      Duration `toml:"timeout"`
	Retries      int      `toml:"retries"`
	Backoff      Duration `toml:"backoff"`
	UserAgent    string   `toml:"user_agent"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
}

type Scan struct {
	Concurrency  int      `toml:"concurrency"`
	PageTimeout  Duration `toml:"page_timeout"`
	InlineStyles bool     `toml:"inline_styles"`
	Categories   []string `toml:"categories"`
}

type Score struct {
	Floor   int            `toml:"floor"`
	Weights map[string]int `toml:"weights"`
	Caps    map[string]int `toml:"caps"`
}

type LayoutTable struct {
	MaxRows          int     `toml:"max_rows"`
	ComplexCellRatio float64 `toml:"complex_cell_ratio"`
}

type AltText struct {
	MaxLength        int `toml:"max_length"`
	AllCapsMinLength int `toml:"all_caps_min_length"`
}

type Cache struct {
	Backend  string   `toml:"backend"`
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`
	Prefix   string   `toml:"prefix"`
}

type Catalog struct {
	SupportContact string `toml:"support_contact"`
}

// Load reads the embedded defaults and overlays the file at path, if any.
// An explicit path that cannot be read is an error.
func Load(path string) (*Config, error) {
	var cfg Config

	if err := toml.Unmarshal(defaultConfig, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse default config: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: config file %s: %w", fault.ErrReadFailure, path, err)
		}

		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to parse TOML config %s: %w", ErrInvalidConfig, path, err)
		}
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDefault returns the embedded configuration.
func LoadDefault() (*Config, error) {
	return Load("")
}

// PathFromEnv returns flagValue, or the EnvPath variable when the flag is empty.
func PathFromEnv(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	return os.Getenv(EnvPath)
}

func setDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}

	if cfg.Scan.Concurrency == 0 {
		cfg.Scan.Concurrency = 3
	}

	if cfg.Scan.PageTimeout.Duration == 0 {
		cfg.Scan.PageTimeout.Duration = 15 * time.Second
	}

	if len(cfg.Scan.Categories) == 0 {
		cfg.Scan.Categories = analyzer.DefaultRunOptions().Categories
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}

	if cfg.Catalog.SupportContact == "" {
		cfg.Catalog.SupportContact = analyzer.DefaultSupportContact
	}
}

var cacheBackends = []string{"memory", "redis", "none"}

func (c *Config) Validate() error {
	var errs []error

	if c.Scan.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("scan.concurrency must be at least 1, got %d", c.Scan.Concurrency))
	}

	if c.Fetch.Retries < 1 {
		errs = append(errs, fmt.Errorf("fetch.retries must be at least 1, got %d", c.Fetch.Retries))
	}

	if c.Score.Floor < 0 || c.Score.Floor > 100 {
		errs = append(errs, fmt.Errorf("score.floor must be within 0-100, got %d", c.Score.Floor))
	}

	for section, table := range map[string]map[string]int{"score.weights": c.Score.Weights, "score.caps": c.Score.Caps} {
		for key, value := range table {
			if _, err := analyzer.ParseSeverity(key); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", section, err))
			}

			if value < 0 {
				errs = append(errs, fmt.Errorf("%s.%s must not be negative, got %d", section, key, value))
			}
		}
	}

	if c.LayoutTable.ComplexCellRatio < 0 || c.LayoutTable.ComplexCellRatio > 1 {
		errs = append(errs, fmt.Errorf("layout_table.complex_cell_ratio must be within 0-1, got %g", c.LayoutTable.ComplexCellRatio))
	}

	if !slices.Contains(cacheBackends, c.Cache.Backend) {
		errs = append(errs, fmt.Errorf("cache.backend must be one of %v, got %q", cacheBackends, c.Cache.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	return nil
}

// ScorePolicy builds the scoring policy. Severities missing from the tables
// keep their default weight and cap.
func (c *Config) ScorePolicy() analyzer.ScorePolicy {
	policy := analyzer.DefaultScorePolicy()
	policy.Floor = c.Score.Floor

	for key, value := range c.Score.Weights {
		if sev, err := analyzer.ParseSeverity(key); err == nil {
			policy.Weights[sev] = value
		}
	}

	for key, value := range c.Score.Caps {
		if sev, err := analyzer.ParseSeverity(key); err == nil {
			policy.Caps[sev] = value
		}
	}

	return policy
}

func (c *Config) Thresholds() analyzer.Thresholds {
	return analyzer.Thresholds{
		LayoutTableMaxRows:      c.LayoutTable.MaxRows,
		LayoutTableComplexRatio: c.LayoutTable.ComplexCellRatio,
		AltTextMaxLength:        c.AltText.MaxLength,
		AltTextAllCapsMinLength: c.AltText.AllCapsMinLength,
	}
}

func (c *Config) RunOptions() analyzer.RunOptions {
	opts := analyzer.DefaultRunOptions()
	opts.Categories = slices.Clone(c.Scan.Categories)

	return opts
}

// FetchOptions builds fetcher options around an optional page cache.
func (c *Config) FetchOptions(cache analyzer.PageCache) analyzer.FetchOptions {
	return analyzer.FetchOptions{
		Timeout:      c.Fetch.Timeout.Duration,
		Retries:      c.Fetch.Retries,
		Backoff:      c.Fetch.Backoff.Duration,
		UserAgent:    c.Fetch.UserAgent,
		MaxBodyBytes: c.Fetch.MaxBodyBytes,
		Cache:        cache,
		CacheTTL:     c.Cache.TTL.Duration,
	}
}

// Styles returns the style resolver for style-dependent rules, or nil when disabled.
func (c *Config) Styles() analyzer.StyleResolver {
	if !c.Scan.InlineStyles {
		return nil
	}

	return analyzer.InlineStyles{}
}

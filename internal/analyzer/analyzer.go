package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

const (
	defaultConcurrency = 3
	defaultPageTimeout = 15 * time.Second
)

type ScannerOptions struct {
	// Engine is optional. Without one only the heuristics run.
	Engine       Engine
	RunOptions   RunOptions
	Rules        *RuleSet
	Suppressions Suppressions
	Thresholds   Thresholds
	// Styles enables style-dependent rules. Nil means they are skipped and reported.
	Styles      StyleResolver
	Policy      ScorePolicy
	Fetcher     *Fetcher
	Concurrency int
	PageTimeout time.Duration
}

// Scanner runs the engine and the heuristics over guide pages. It holds no
// per-page state, so one Scanner may scan many pages at once.
type Scanner struct {
	opts ScannerOptions
}

func NewScanner(opts ScannerOptions) *Scanner {
	if opts.Rules == nil {
		opts.Rules = DefaultRuleSet()
	}

	if opts.Suppressions == nil {
		opts.Suppressions = DefaultSuppressions()
	}

	if opts.Policy.Weights == nil || opts.Policy.Caps == nil {
		opts.Policy = DefaultScorePolicy()
	}

	if len(opts.RunOptions.Categories) == 0 {
		opts.RunOptions = DefaultRunOptions()
	}

	if opts.Fetcher == nil {
		opts.Fetcher = NewFetcher(FetchOptions{})
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}

	if opts.PageTimeout <= 0 {
		opts.PageTimeout = defaultPageTimeout
	}

	opts.Thresholds.applyDefaults()

	return &Scanner{opts: opts}
}

func (s *Scanner) Policy() ScorePolicy {
	return s.opts.Policy
}

// AnalyzeDocument scans one parsed document. An engine failure is logged and
// the heuristic findings are returned alone.
func (s *Scanner) AnalyzeDocument(ctx context.Context, logger *slog.Logger, doc *goquery.Document) ([]Finding, []string) {
	root := contentRoot(ctx, logger, doc)
	resolver := NewResolver(doc.Get(0))

	var external []Finding

	if s.opts.Engine != nil {
		res, err := s.opts.Engine.Run(ctx, root, s.opts.RunOptions)
		if err != nil {
			logger.WarnContext(ctx, "Rule engine failed, continuing with heuristics only", slog.Any("error", err))
		} else {
			external = res.Violations
			logger.DebugContext(ctx, "Rule engine finished", slog.Int("violations", len(external)))
		}
	}

	rc := NewRuleContext(root, resolver, s.opts.Styles, s.opts.Thresholds)
	heuristic, skipped := s.opts.Rules.Run(ctx, logger, rc)

	return Aggregate(external, heuristic, s.opts.Suppressions), skipped
}

// ScanDocument parses body and scans it as page.
func (s *Scanner) ScanDocument(ctx context.Context, logger *slog.Logger, page PageDescriptor, body []byte) ScanResult {
	result := ScanResult{Page: page, Findings: []Finding{}}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to parse HTML document", slog.Any("error", err))
		result.Error = fmt.Sprintf("failed to parse document: %v", err)

		return result
	}

	result.Info = readPageInfo(ctx, logger, doc)

	if result.Page.Title == "" {
		result.Page.Title = result.Info.Title
	}

	findings, skipped := s.AnalyzeDocument(ctx, logger, doc)
	if findings != nil {
		result.Findings = findings
	}

	result.Skipped = skipped

	return result
}

// ScanPage fetches and scans one page within the page timeout. Failures are
// recorded on the result, never returned.
func (s *Scanner) ScanPage(ctx context.Context, logger *slog.Logger, page PageDescriptor) (result ScanResult) {
	logger = logger.With(slog.String("scanning_page", page.URL))
	logger.DebugContext(ctx, "Starting page scan")

	ctx, cancel := context.WithTimeout(ctx, s.opts.PageTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Page scan panicked",
				slog.Any("panic", r),
				slog.String("trace", string(debug.Stack())),
			)

			result = ScanResult{Page: page, Findings: []Finding{}, Error: "unexpected error while scanning page"}
		}
	}()

	body, err := s.opts.Fetcher.Fetch(ctx, logger, page.URL)
	if err != nil {
		logger.WarnContext(ctx, "Page could not be fetched", slog.Any("error", err))
		return ScanResult{Page: page, Findings: []Finding{}, Error: err.Error()}
	}

	result = s.ScanDocument(ctx, logger, page, body)

	logger.InfoContext(ctx, "Page scan complete",
		slog.Group("results",
			slog.Int("findings", len(result.Findings)),
			slog.Int("skipped_rules", len(result.Skipped)),
			slog.Bool("failed", result.Failed()),
		),
	)

	return result
}

type pageJob struct {
	index int
	page  PageDescriptor
}

func (s *Scanner) scanWorker(ctx context.Context, logger *slog.Logger, wg *sync.WaitGroup, jobs <-chan pageJob, results []ScanResult) {
	defer wg.Done()

	for job := range jobs {
		results[job.index] = s.ScanPage(ctx, logger, job.page)
	}
}

// ScanGuide scans pages with a bounded pool of workers. Results are in the
// order of pages whatever order the scans finish in.
func (s *Scanner) ScanGuide(ctx context.Context, logger *slog.Logger, pages []PageDescriptor) []ScanResult {
	results := make([]ScanResult, len(pages))
	if len(pages) == 0 {
		logger.InfoContext(ctx, "No pages to scan, skipping process.")
		return results
	}

	logger.InfoContext(ctx, "Starting to scan pages", slog.Int("total_pages", len(pages)))

	jobs := make(chan pageJob, len(pages))

	var wg sync.WaitGroup

	for w := 0; w < min(s.opts.Concurrency, len(pages)); w++ {
		wg.Add(1)

		go s.scanWorker(ctx, logger, &wg, jobs, results)
	}

	for i, page := range pages {
		jobs <- pageJob{index: i, page: page}
	}
	close(jobs)

	wg.Wait()

	failed := 0

	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}

	logger.InfoContext(ctx, "Finished scanning all pages",
		slog.Int("total_pages_scanned", len(pages)),
		slog.Int("failed_pages", failed),
	)

	return results
}

// AuditGuide discovers the guide startURL belongs to, scans every page and
// scores the guide. Only a failure to load the start page is returned as an
// error; every other page failure is recorded on its result.
func (s *Scanner) AuditGuide(ctx context.Context, logger *slog.Logger, startURL string) (*GuideReport, error) {
	report := &GuideReport{ID: uuid.New().String()}

	logger = logger.With(slog.String("audit_id", report.ID), slog.String("start_url", startURL))
	logger.DebugContext(ctx, "Starting guide audit")

	body, err := s.opts.Fetcher.Fetch(ctx, logger, startURL)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load start page", slog.Any("error", err))
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to parse start page", slog.Any("error", err))
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	pages, err := Discover(ctx, logger, doc, startURL)
	if err != nil {
		if len(pages) == 0 {
			return nil, err
		}

		logger.WarnContext(ctx, "Some navigation links could not be parsed", slog.Any("error", err))
	}

	first := s.ScanDocument(ctx, logger, pages[0], body)
	report.Pages = append([]ScanResult{first}, s.ScanGuide(ctx, logger, pages[1:])...)
	report.Overall, report.Scored, report.Failed = Overall(report.Pages, s.opts.Policy)

	logger.InfoContext(ctx, "Guide audit complete",
		slog.Group("results",
			slog.Int("pages", len(report.Pages)),
			slog.Int("scored_pages", report.Scored),
			slog.Int("failed_pages", report.Failed),
			slog.Int("overall", report.Overall),
		),
	)

	return report, nil
}

// LocatePage fetches pageURL and re-acquires the elements selector points at.
// Zero matches is reported as ErrSelectorNotFound.
func (s *Scanner) LocatePage(ctx context.Context, logger *slog.Logger, pageURL, selector string) ([]ElementRef, error) {
	logger = logger.With(slog.String("locating_on", pageURL), slog.String("selector", selector))

	body, err := s.opts.Fetcher.Fetch(ctx, logger, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	nodes, err := Locate(doc.Get(0), selector)
	if err != nil {
		if errors.Is(err, ErrSelectorNotFound) {
			logger.InfoContext(ctx, "Selector matched nothing")
		}

		return nil, err
	}

	resolver := NewResolver(doc.Get(0))
	refs := make([]ElementRef, 0, len(nodes))

	for _, n := range nodes {
		refs = append(refs, resolver.Ref(n, IDPolicyTrust))
	}

	logger.DebugContext(ctx, "Selector located", slog.Int("matches", len(refs)))

	return refs, nil
}

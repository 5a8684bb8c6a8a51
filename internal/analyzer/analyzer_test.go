package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFunc func(ctx context.Context, root *goquery.Selection, opts RunOptions) (EngineResult, error)

func (f engineFunc) Run(ctx context.Context, root *goquery.Selection, opts RunOptions) (EngineResult, error) {
	return f(ctx, root, opts)
}

const guideNav = `<ul id="s-lg-guide-tabs">
	<li><a href="/chem">Home</a></li>
	<li><a href="/chem/articles">Articles</a></li>
	<li><a href="/chem/gone">Gone</a></li>
</ul>`

// newGuideServer serves a three page guide whose last page is missing.
func newGuideServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/chem", func(w http.ResponseWriter, _ *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}

		fmt.Fprint(w, `<html><head><title>Chemistry</title></head><body>`+guideNav+
			`<div id="s-lg-guide-main"><h1>Chemistry</h1><p>Welcome</p></div></body></html>`)
	})
	mux.HandleFunc("/chem/articles", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>Articles</title></head><body>`+guideNav+
			`<div id="s-lg-guide-main"><img src="a.png"><img src="b.png"></div></body></html>`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func newTestScanner(opts ScannerOptions) *Scanner {
	if opts.Fetcher == nil {
		opts.Fetcher = fastFetcher(FetchOptions{Retries: 1})
	}

	return NewScanner(opts)
}

func TestScanGuide_FailedPageKeepsItsSlot(t *testing.T) {
	server := newGuideServer(t, nil)

	pages := []PageDescriptor{
		{Title: "Home", URL: server.URL + "/chem"},
		{Title: "Articles", URL: server.URL + "/chem/articles"},
		{Title: "Gone", URL: server.URL + "/chem/gone"},
	}

	results := newTestScanner(ScannerOptions{Concurrency: 3}).ScanGuide(context.Background(), newTestLogger(), pages)

	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, pages[i], r.Page, "result %d is out of order", i)
		assert.NotNil(t, r.Findings)
	}

	assert.False(t, results[0].Failed())
	assert.Empty(t, results[0].Findings)

	assert.False(t, results[1].Failed())
	require.Len(t, results[1].Findings, 1)
	assert.Equal(t, "image-no-alt", results[1].Findings[0].RuleID)
	assert.Len(t, results[1].Findings[0].Elements, 2)

	assert.True(t, results[2].Failed())
	assert.NotEmpty(t, results[2].Error)
	assert.Empty(t, results[2].Findings)
}

func TestScanGuide_Empty(t *testing.T) {
	results := newTestScanner(ScannerOptions{}).ScanGuide(context.Background(), newTestLogger(), nil)

	assert.Empty(t, results)
}

func TestAuditGuide(t *testing.T) {
	var hits int32

	server := newGuideServer(t, &hits)

	report, err := newTestScanner(ScannerOptions{}).AuditGuide(context.Background(), newTestLogger(), server.URL+"/chem")
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	require.Len(t, report.Pages, 3)
	assert.Equal(t, "Chemistry", report.Pages[0].Page.Title)
	assert.Equal(t, server.URL+"/chem/articles", report.Pages[1].Page.URL)
	assert.True(t, report.Pages[2].Failed())

	// (100 + 80) / 2, the missing page is left out.
	assert.Equal(t, 90, report.Overall)
	assert.Equal(t, 2, report.Scored)
	assert.Equal(t, 1, report.Failed)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "the start page is fetched once")
}

func TestAuditGuide_StartPageFailure(t *testing.T) {
	server := newGuideServer(t, nil)

	report, err := newTestScanner(ScannerOptions{}).AuditGuide(context.Background(), newTestLogger(), server.URL+"/chem/gone")

	require.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Nil(t, report)
}

func TestAnalyzeDocument_Engine(t *testing.T) {
	doc := mustParse(t, `<html><body><div id="s-lg-guide-main"><img src="a.png"><a href="/x"></a></div></body></html>`)

	t.Run("Engine findings come first and owned rules are suppressed", func(t *testing.T) {
		var sawRoot string

		eng := engineFunc(func(_ context.Context, root *goquery.Selection, _ RunOptions) (EngineResult, error) {
			sawRoot = root.AttrOr("id", "")

			return EngineResult{Violations: []Finding{
				{RuleID: "image-alt", Severity: SeverityViolation, Source: SourceEngine},
				{RuleID: "link-name", Severity: SeverityWarning, Source: SourceEngine},
			}}, nil
		})

		findings, _ := newTestScanner(ScannerOptions{Engine: eng}).AnalyzeDocument(context.Background(), newTestLogger(), doc)

		assert.Equal(t, "s-lg-guide-main", sawRoot)
		require.Len(t, findings, 2)
		assert.Equal(t, "link-name", findings[0].RuleID)
		assert.Equal(t, SourceEngine, findings[0].Source)
		assert.Equal(t, "image-no-alt", findings[1].RuleID)
	})

	t.Run("Engine failure leaves the heuristics", func(t *testing.T) {
		eng := engineFunc(func(context.Context, *goquery.Selection, RunOptions) (EngineResult, error) {
			return EngineResult{}, errors.New("engine exploded")
		})

		findings, skipped := newTestScanner(ScannerOptions{Engine: eng}).AnalyzeDocument(context.Background(), newTestLogger(), doc)

		require.Len(t, findings, 1)
		assert.Equal(t, "image-no-alt", findings[0].RuleID)
		assert.Equal(t, []string{"link-not-distinguished"}, skipped)
	})
}

func TestScanPage_RecoversPanics(t *testing.T) {
	server := newGuideServer(t, nil)

	eng := engineFunc(func(context.Context, *goquery.Selection, RunOptions) (EngineResult, error) {
		panic("boom")
	})

	page := PageDescriptor{URL: server.URL + "/chem"}
	result := newTestScanner(ScannerOptions{Engine: eng}).ScanPage(context.Background(), newTestLogger(), page)

	assert.Equal(t, page, result.Page)
	assert.Equal(t, "unexpected error while scanning page", result.Error)
	assert.NotNil(t, result.Findings)
	assert.Empty(t, result.Findings)
}

func TestScanPage_Timeout(t *testing.T) {
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	scanner := newTestScanner(ScannerOptions{PageTimeout: 50 * time.Millisecond})
	result := scanner.ScanPage(context.Background(), newTestLogger(), PageDescriptor{URL: server.URL})

	assert.True(t, result.Failed())
	assert.Empty(t, result.Findings)
}

func TestScanDocument(t *testing.T) {
	body := []byte(`<!DOCTYPE html><html><head><title>Citing Sources</title></head><body><h1>Cite</h1><h2>APA</h2></body></html>`)

	result := newTestScanner(ScannerOptions{Styles: InlineStyles{}}).
		ScanDocument(context.Background(), newTestLogger(), PageDescriptor{URL: "file:///tmp/cite.html"}, body)

	assert.False(t, result.Failed())
	assert.Equal(t, "Citing Sources", result.Page.Title)
	assert.NotNil(t, result.Findings)
	assert.Empty(t, result.Skipped)
	require.NotNil(t, result.Info)
	assert.Equal(t, "HTML5", result.Info.HTMLVersion)
	assert.Equal(t, map[string]int{"h1": 1, "h2": 1}, result.Info.Headings)
}

func TestLocatePage(t *testing.T) {
	server := newGuideServer(t, nil)
	scanner := newTestScanner(ScannerOptions{})

	refs, err := scanner.LocatePage(context.Background(), newTestLogger(), server.URL+"/chem/articles", "#s-lg-guide-main > img")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Contains(t, refs[0].Snippet, "a.png")
	assert.Contains(t, refs[1].Snippet, "b.png")

	_, err = scanner.LocatePage(context.Background(), newTestLogger(), server.URL+"/chem/articles", "table")
	require.ErrorIs(t, err, ErrSelectorNotFound)
}

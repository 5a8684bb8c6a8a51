package analyzer

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustParse(t *testing.T, content string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Failed to parse HTML: %v", err)
	}

	return doc
}

func TestHTMLVersion(t *testing.T) {
	testCases := []struct {
		name        string
		htmlContent string
		wantVersion string
	}{
		{
			name:        "HTML5",
			htmlContent: `<!DOCTYPE html><html><head></head><body></body></html>`,
			wantVersion: "HTML5",
		},
		{
			name:        "XHTML 1.0 Transitional",
			htmlContent: `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd"><html><head></head><body></body></html>`,
			wantVersion: "XHTML 1.0",
		},
		{
			name:        "HTML 4.01 Strict",
			htmlContent: `<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 4.01//EN" "http://www.w3.org/TR/html4/strict.dtd"><html><head></head><body></body></html>`,
			wantVersion: "HTML 4.01",
		},
		{
			name:        "Unknown Pre-HTML5",
			htmlContent: `<!DOCTYPE HTML PUBLIC "-//IETF//DTD HTML 2.0//EN"><html><head></head><body></body></html>`,
			wantVersion: "Unknown (Pre-HTML5)",
		},
		{
			name:        "No Doctype",
			htmlContent: `<html><head></head><body><h1>Hello</h1></body></html>`,
			wantVersion: "Unknown or No Doctype",
		},
		{
			name:        "Empty Document",
			htmlContent: ``,
			wantVersion: "Unknown or No Doctype",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if version := htmlVersion(mustParse(t, tc.htmlContent)); version != tc.wantVersion {
				t.Errorf("htmlVersion() = %q, want %q", version, tc.wantVersion)
			}
		})
	}
}

func TestReadPageInfo(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	testCases := []struct {
		name         string
		htmlContent  string
		wantTitle    string
		wantHeadings map[string]int
	}{
		{
			name:         "Mixed headings",
			htmlContent:  `<html><head><title> Chemistry: Home </title></head><body><h1>A</h1><h2>B</h2><h2>C</h2><h6>D</h6></body></html>`,
			wantTitle:    "Chemistry: Home",
			wantHeadings: map[string]int{"h1": 1, "h2": 2, "h6": 1},
		},
		{
			name:         "No headings",
			htmlContent:  `<html><head><title>Empty</title></head><body><p>text</p></body></html>`,
			wantTitle:    "Empty",
			wantHeadings: map[string]int{},
		},
		{
			name:         "No title",
			htmlContent:  `<html><body><h3>Only</h3></body></html>`,
			wantTitle:    "",
			wantHeadings: map[string]int{"h3": 1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			info := readPageInfo(ctx, logger, mustParse(t, tc.htmlContent))

			if info.Title != tc.wantTitle {
				t.Errorf("Title = %q, want %q", info.Title, tc.wantTitle)
			}

			if !reflect.DeepEqual(info.Headings, tc.wantHeadings) {
				t.Errorf("Headings = %v, want %v", info.Headings, tc.wantHeadings)
			}
		})
	}
}

func TestContentRoot(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	testCases := []struct {
		name        string
		htmlContent string
		wantID      string
		wantWhole   bool
	}{
		{
			name:        "Guide main wins over boxes",
			htmlContent: `<body><div id="s-lg-box-1"></div><div id="s-lg-guide-main"><div id="s-lg-box-2"></div></div></body>`,
			wantID:      "s-lg-guide-main",
		},
		{
			name:        "Content area",
			htmlContent: `<body><header>nav</header><div id="s-lg-content">x</div></body>`,
			wantID:      "s-lg-content",
		},
		{
			name:        "First box when nothing else matches",
			htmlContent: `<body><div id="s-lg-box-7">a</div><div id="s-lg-box-8">b</div></body>`,
			wantID:      "s-lg-box-7",
		},
		{
			name:        "Falls back to the whole document",
			htmlContent: `<body><main id="main">plain page</main></body>`,
			wantWhole:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustParse(t, tc.htmlContent)
			root := contentRoot(ctx, logger, doc)

			if tc.wantWhole {
				if root.Get(0) != doc.Get(0) {
					t.Errorf("expected the document root, got <%s>", goquery.NodeName(root))
				}

				return
			}

			if id := root.AttrOr("id", ""); id != tc.wantID {
				t.Errorf("content root id = %q, want %q", id, tc.wantID)
			}
		})
	}
}

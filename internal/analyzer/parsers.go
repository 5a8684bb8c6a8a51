package analyzer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

var contentContainers = []cascadia.Selector{
	cascadia.MustCompile("#s-lg-guide-main"),
	cascadia.MustCompile("#s-lg-content"),
	cascadia.MustCompile(".s-lg-guide-body"),
	cascadia.MustCompile("#s-lg-public-main"),
	cascadia.MustCompile(`[id^="s-lg-box"]`),
}

// contentRoot narrows a guide page to its content area, falling back to the
// whole document for pages outside the LibGuides template.
func contentRoot(ctx context.Context, logger *slog.Logger, doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentContainers {
		if found := doc.FindMatcher(sel).First(); found.Length() > 0 {
			logger.DebugContext(ctx, "Scoped scan to content container", slog.String("id", found.AttrOr("id", "")))
			return found
		}
	}

	logger.DebugContext(ctx, "No content container found, scanning whole document")

	return doc.Selection
}

func readPageInfo(ctx context.Context, logger *slog.Logger, doc *goquery.Document) *PageInfo {
	info := &PageInfo{
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		HTMLVersion: htmlVersion(doc),
		Headings:    make(map[string]int),
	}

	for _, tag := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
		if count := doc.Find(tag).Length(); count > 0 {
			info.Headings[tag] = count
		}
	}

	logger.DebugContext(ctx, "Read page metadata",
		slog.String("title", info.Title),
		slog.String("html_version", info.HTMLVersion),
		slog.Any("heading_counts", info.Headings),
	)

	return info
}

func htmlVersion(doc *goquery.Document) string {
	for _, root := range doc.Nodes {
		for n := root.FirstChild; n != nil; n = n.NextSibling {
			if n.Type != html.DoctypeNode {
				continue
			}

			if n.Data == "html" && len(n.Attr) == 0 {
				return "HTML5"
			}

			public := strings.ToLower(attr(n, "public"))

			switch {
			case strings.Contains(public, "xhtml 1.0"):
				return "XHTML 1.0"
			case strings.Contains(public, "html 4.01"):
				return "HTML 4.01"
			default:
				return "Unknown (Pre-HTML5)"
			}
		}
	}

	return "Unknown or No Doctype"
}

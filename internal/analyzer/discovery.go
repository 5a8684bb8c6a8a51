package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// ErrNoCollection is returned when a URL carries neither a guide id nor a guide slug.
var ErrNoCollection = errors.New("no guide id or slug in url")

// Navigation containers, most specific first.
var navContainers = []cascadia.Selector{
	cascadia.MustCompile("#s-lg-guide-tabs"),
	cascadia.MustCompile(".s-lg-tabs-side"),
	cascadia.MustCompile("#s-lg-tabs-container"),
	cascadia.MustCompile(".s-lg-guide-nav"),
	cascadia.MustCompile(`nav[role="navigation"]`),
	cascadia.MustCompile("nav"),
}

var systemPaths = map[string]bool{
	"c.php":        true,
	"az.php":       true,
	"sb.php":       true,
	"srch.php":     true,
	"friendly.php": true,
	"prf.php":      true,
	"content.php":  true,
	"ld.php":       true,
}

var boilerplatePrefixes = []string{"skip to", "next:", "previous:", "jump to"}

// collection identifies a guide either by its numeric id (?g=) or by the
// first path segment of a friendly URL.
type collection struct {
	id   string
	slug string
}

func collectionOf(u *url.URL) (collection, error) {
	if id := strings.TrimSpace(u.Query().Get("g")); id != "" {
		return collection{id: id}, nil
	}

	segment, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if segment != "" && !systemPaths[strings.ToLower(segment)] {
		return collection{slug: segment}, nil
	}

	return collection{}, fmt.Errorf("%w: %s", ErrNoCollection, u.String())
}

func (c collection) String() string {
	if c.id != "" {
		return "g=" + c.id
	}

	return "/" + c.slug
}

func (c collection) strict(u *url.URL) bool {
	if c.id != "" {
		return u.Query().Get("g") == c.id
	}

	segment, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")

	return strings.EqualFold(segment, c.slug)
}

func (c collection) loose(u *url.URL) bool {
	if c.id != "" {
		return strings.Contains(u.RawQuery, "g="+c.id)
	}

	return strings.Contains(strings.ToLower(u.Path), "/"+strings.ToLower(c.slug))
}

// pageKey is the dedupe key of a page: the absolute URL without its fragment.
func pageKey(u *url.URL) string {
	stripped := *u
	stripped.Fragment = ""
	stripped.RawFragment = ""

	return stripped.String()
}

func isBoilerplate(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}

	return false
}

// Discover lists the pages of the guide currentURL belongs to, current page first.
// A URL with no recognisable guide yields just the current page. Anchors whose
// href cannot be parsed are skipped and reported through the joined error; the
// pages found are still returned.
func Discover(ctx context.Context, logger *slog.Logger, doc *goquery.Document, currentURL string) ([]PageDescriptor, error) {
	logger = logger.With(slog.String("discovering_from", currentURL))
	logger.DebugContext(ctx, "Starting page discovery")

	base, err := url.Parse(currentURL)
	if err != nil {
		return nil, fmt.Errorf("could not parse current url: %w", err)
	}

	current := PageDescriptor{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		URL:   pageKey(base),
	}

	coll, err := collectionOf(base)
	if err != nil {
		logger.InfoContext(ctx, "No guide id or slug in url, scanning current page only")
		return []PageDescriptor{current}, nil
	}

	logger = logger.With(slog.String("collection", coll.String()))

	var (
		found []PageDescriptor
		errs  []error
	)

	for _, sel := range navContainers {
		nav := doc.FindMatcher(sel)
		if nav.Length() == 0 {
			continue
		}

		found, errs = collectPages(ctx, logger, nav.Find("a[href]"), base, coll.strict)
		if len(found) > 0 {
			logger.DebugContext(ctx, "Pages found in navigation", slog.Int("pages", len(found)))
			break
		}
	}

	if len(found) == 0 {
		logger.DebugContext(ctx, "Navigation yielded no pages, falling back to all anchors")
		found, errs = collectPages(ctx, logger, doc.Find("a[href]"), base, coll.loose)
	}

	pages := []PageDescriptor{current}

	for _, p := range found {
		if p.URL == current.URL {
			if current.Title == "" {
				pages[0].Title = p.Title
			}

			continue
		}

		pages = append(pages, p)
	}

	logger.InfoContext(ctx, "Finished page discovery",
		slog.Int("pages_found", len(pages)),
		slog.Int("parsing_errors", len(errs)),
	)

	if len(errs) > 0 {
		return pages, errors.Join(errs...)
	}

	return pages, nil
}

func collectPages(ctx context.Context, logger *slog.Logger, anchors *goquery.Selection, base *url.URL, member func(*url.URL) bool) ([]PageDescriptor, []error) {
	var (
		pages []PageDescriptor
		errs  []error
	)

	seen := make(map[string]bool)

	anchors.Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		text := normalizedText(s)
		if isBoilerplate(text) {
			logger.DebugContext(ctx, "Skipping navigation boilerplate", slog.String("text", text))
			return
		}

		linkURL, err := url.Parse(href)
		if err != nil {
			logger.WarnContext(ctx, "Failed to parse link href", slog.String("href", href), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("failed to parse href '%s': %w", href, err))

			return
		}

		abs := base.ResolveReference(linkURL)
		if abs.Host != base.Host || !member(abs) {
			return
		}

		key := pageKey(abs)
		if seen[key] {
			return
		}

		seen[key] = true

		if text == "" {
			text = key
		}

		pages = append(pages, PageDescriptor{Title: text, URL: key})
	})

	return pages, errs
}

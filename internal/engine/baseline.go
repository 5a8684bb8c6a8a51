package engine

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"guide-a11y/internal/analyzer"
)

// scope is what a baseline check sees: the scanned subtree and the document it belongs to.
type scope struct {
	root *goquery.Selection
	doc  *goquery.Selection
}

type check struct {
	id          string
	impact      string
	tags        []string
	help        string
	description string
	run         func(sc scope) []*html.Node
}

// Baseline is a small offline rule engine reporting axe-core rule ids.
// It keeps no state between runs.
type Baseline struct {
	logger *slog.Logger
	checks []check
}

func NewBaseline(logger *slog.Logger) *Baseline {
	return &Baseline{
		logger: logger,
		checks: []check{
			imageAlt,
			linkName,
			buttonName,
			formLabel,
			emptyHeading,
			headingOrder,
			pageHasHeadingOne,
			documentTitle,
			htmlHasLang,
			landmarkOneMain,
			region,
		},
	}
}

// IDs lists the rule ids the engine can report.
func (b *Baseline) IDs() []string {
	ids := make([]string, 0, len(b.checks))
	for _, c := range b.checks {
		ids = append(ids, c.id)
	}

	return ids
}

func (b *Baseline) Run(ctx context.Context, root *goquery.Selection, opts analyzer.RunOptions) (analyzer.EngineResult, error) {
	var result analyzer.EngineResult

	if root == nil || root.Length() == 0 {
		return result, nil
	}

	if !slices.Contains(opts.ResultKinds, "violations") {
		return result, nil
	}

	docNode := analyzer.DocumentOf(root.Get(0))
	sc := scope{
		root: root,
		doc:  goquery.NewDocumentFromNode(docNode).Selection,
	}
	resolver := analyzer.NewResolver(docNode)

	for _, c := range b.checks {
		if err := ctx.Err(); err != nil {
			return analyzer.EngineResult{}, err
		}

		if !selected(c.tags, opts.Categories) {
			continue
		}

		nodes := c.run(sc)
		if len(nodes) == 0 {
			continue
		}

		severity, err := analyzer.ParseSeverity(c.impact)
		if err != nil {
			return analyzer.EngineResult{}, err
		}

		finding := analyzer.Finding{
			RuleID:      c.id,
			Severity:    severity,
			Help:        c.help,
			Description: c.description,
			Source:      analyzer.SourceEngine,
			Elements:    make([]analyzer.ElementRef, 0, len(nodes)),
		}

		for _, n := range nodes {
			finding.Elements = append(finding.Elements, resolver.Ref(n, analyzer.IDPolicyTrust))
		}

		result.Violations = append(result.Violations, finding)
	}

	b.logger.DebugContext(ctx, "Baseline engine finished", slog.Int("violations", len(result.Violations)))

	return result, nil
}

func selected(tags, categories []string) bool {
	for _, tag := range tags {
		if slices.Contains(categories, tag) {
			return true
		}
	}

	return false
}

func nodesWhere(sel *goquery.Selection, keep func(*goquery.Selection) bool) []*html.Node {
	var nodes []*html.Node

	sel.Each(func(_ int, s *goquery.Selection) {
		if keep(s) {
			nodes = append(nodes, s.Nodes...)
		}
	})

	return nodes
}

func hasText(s *goquery.Selection) bool {
	return strings.TrimSpace(s.Text()) != ""
}

// byID matches on the attribute value, so ids that are not valid CSS identifiers still resolve.
func byID(doc *goquery.Selection, id string) *goquery.Selection {
	return doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("id", "") == id
	})
}

// hasARIAName reports a non-empty aria-label, aria-labelledby pointing at text, or title.
func hasARIAName(sc scope, s *goquery.Selection) bool {
	if strings.TrimSpace(s.AttrOr("aria-label", "")) != "" {
		return true
	}

	if strings.TrimSpace(s.AttrOr("title", "")) != "" {
		return true
	}

	for _, id := range strings.Fields(s.AttrOr("aria-labelledby", "")) {
		if hasText(byID(sc.doc, id)) {
			return true
		}
	}

	return false
}

var imageAlt = check{
	id:          "image-alt",
	impact:      "critical",
	tags:        []string{"wcag2a"},
	help:        "Images must have alternate text",
	description: "Ensures <img> elements have alternate text or a role of none or presentation",
	run: func(sc scope) []*html.Node {
		return nodesWhere(sc.root.Find("img"), func(s *goquery.Selection) bool {
			if _, ok := s.Attr("alt"); ok {
				return false
			}

			role := s.AttrOr("role", "")

			return role != "presentation" && role != "none" && !hasARIAName(sc, s)
		})
	},
}

var linkName = check{
	id:          "link-name",
	impact:      "serious",
	tags:        []string{"wcag2a"},
	help:        "Links must have discernible text",
	description: "Ensures links have discernible text",
	run: func(sc scope) []*html.Node {
		return nodesWhere(sc.root.Find("a[href]"), func(s *goquery.Selection) bool {
			if hasText(s) || hasARIAName(sc, s) {
				return false
			}

			named := false

			s.Find("img[alt]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
				named = strings.TrimSpace(img.AttrOr("alt", "")) != ""
				return !named
			})

			return !named
		})
	},
}

var buttonName = check{
	id:          "button-name",
	impact:      "critical",
	tags:        []string{"wcag2a"},
	help:        "Buttons must have discernible text",
	description: "Ensures buttons have discernible text",
	run: func(sc scope) []*html.Node {
		return nodesWhere(sc.root.Find(`button, [role="button"], input[type="button"]`), func(s *goquery.Selection) bool {
			if goquery.NodeName(s) == "input" {
				return strings.TrimSpace(s.AttrOr("value", "")) == "" && !hasARIAName(sc, s)
			}

			return !hasText(s) && !hasARIAName(sc, s)
		})
	},
}

var unlabelledInputTypes = []string{"hidden", "submit", "reset", "button", "image"}

var formLabel = check{
	id:          "label",
	impact:      "critical",
	tags:        []string{"wcag2a"},
	help:        "Form elements must have labels",
	description: "Ensures every form element has a label",
	run: func(sc scope) []*html.Node {
		return nodesWhere(sc.root.Find("input, select, textarea"), func(s *goquery.Selection) bool {
			if slices.Contains(unlabelledInputTypes, strings.ToLower(s.AttrOr("type", ""))) {
				return false
			}

			if hasARIAName(sc, s) || s.Closest("label").Length() > 0 {
				return false
			}

			if id := s.AttrOr("id", ""); id != "" {
				labelled := false

				sc.doc.Find("label[for]").EachWithBreak(func(_ int, l *goquery.Selection) bool {
					labelled = l.AttrOr("for", "") == id && hasText(l)
					return !labelled
				})

				return !labelled
			}

			return true
		})
	},
}

var emptyHeading = check{
	id:          "empty-heading",
	impact:      "minor",
	tags:        []string{"best-practice"},
	help:        "Headings should not be empty",
	description: "Ensures headings have discernible text",
	run: func(sc scope) []*html.Node {
		return nodesWhere(sc.root.Find("h1, h2, h3, h4, h5, h6"), func(s *goquery.Selection) bool {
			return !hasText(s) && !hasARIAName(sc, s)
		})
	},
}

func headingLevel(n *html.Node) int {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level, _ := strconv.Atoi(n.Data[1:])
		return level
	}

	return 0
}

var headingOrder = check{
	id:          "heading-order",
	impact:      "moderate",
	tags:        []string{"best-practice"},
	help:        "Heading levels should only increase by one",
	description: "Ensures the order of headings is semantically correct",
	run: func(sc scope) []*html.Node {
		var (
			nodes []*html.Node
			prev  int
		)

		sc.root.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
			level := headingLevel(s.Get(0))
			if prev > 0 && level > prev+1 {
				nodes = append(nodes, s.Get(0))
			}

			prev = level
		})

		return nodes
	},
}

var pageHasHeadingOne = check{
	id:          "page-has-heading-one",
	impact:      "moderate",
	tags:        []string{"best-practice"},
	help:        "Page should contain a level-one heading",
	description: "Ensure that the page, or at least one of its frames, contains a level-one heading",
	run: func(sc scope) []*html.Node {
		if sc.doc.Find(`h1, [role="heading"][aria-level="1"]`).Length() > 0 {
			return nil
		}

		return sc.doc.Find("html").Nodes
	},
}

var documentTitle = check{
	id:          "document-title",
	impact:      "serious",
	tags:        []string{"wcag2a"},
	help:        "Documents must have <title> element to aid in navigation",
	description: "Ensures each HTML document contains a non-empty <title> element",
	run: func(sc scope) []*html.Node {
		if hasText(sc.doc.Find("head title").First()) {
			return nil
		}

		return sc.doc.Find("html").Nodes
	},
}

// The page language comes from the LibGuides template, so authors cannot fix it.
var htmlHasLang = check{
	id:          "html-has-lang",
	impact:      "system",
	tags:        []string{"wcag2a"},
	help:        "<html> element must have a lang attribute",
	description: "Ensures every HTML document has a lang attribute",
	run: func(sc scope) []*html.Node {
		return nodesWhere(sc.doc.Find("html"), func(s *goquery.Selection) bool {
			return strings.TrimSpace(s.AttrOr("lang", "")) == "" && strings.TrimSpace(s.AttrOr("xml:lang", "")) == ""
		})
	},
}

var landmarkOneMain = check{
	id:          "landmark-one-main",
	impact:      "system",
	tags:        []string{"best-practice"},
	help:        "Document should have one main landmark",
	description: "Ensures the document has a main landmark",
	run: func(sc scope) []*html.Node {
		mains := sc.doc.Find(`main, [role="main"]`)

		switch mains.Length() {
		case 1:
			return nil
		case 0:
			return sc.doc.Find("html").Nodes
		default:
			return mains.Nodes
		}
	},
}

const landmarkSelector = `header, nav, main, footer, aside, form[aria-label], section[aria-label], ` +
	`[role="banner"], [role="navigation"], [role="main"], [role="contentinfo"], ` +
	`[role="complementary"], [role="region"], [role="search"], [role="form"]`

var region = check{
	id:          "region",
	impact:      "system",
	tags:        []string{"best-practice"},
	help:        "All page content should be contained by landmarks",
	description: "Ensures all page content is contained by landmarks",
	run: func(sc scope) []*html.Node {
		return nodesWhere(sc.doc.Find("body").Children(), func(s *goquery.Selection) bool {
			switch goquery.NodeName(s) {
			case "script", "style", "noscript", "template", "link", "meta":
				return false
			}

			if s.Is(landmarkSelector) || s.Find(landmarkSelector).Length() > 0 {
				return false
			}

			if s.Is(`a[href^="#"]`) {
				return false
			}

			return hasText(s)
		})
	},
}

package analyzer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Thresholds tunes the coarser heuristics.
type Thresholds struct {
	LayoutTableMaxRows      int
	LayoutTableComplexRatio float64
	AltTextMaxLength        int
	AltTextAllCapsMinLength int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		LayoutTableMaxRows:      2,
		LayoutTableComplexRatio: 0.5,
		AltTextMaxLength:        250,
		AltTextAllCapsMinLength: 10,
	}
}

func (t *Thresholds) applyDefaults() {
	defaults := DefaultThresholds()

	if t.LayoutTableMaxRows <= 0 {
		t.LayoutTableMaxRows = defaults.LayoutTableMaxRows
	}

	if t.LayoutTableComplexRatio <= 0 {
		t.LayoutTableComplexRatio = defaults.LayoutTableComplexRatio
	}

	if t.AltTextMaxLength <= 0 {
		t.AltTextMaxLength = defaults.AltTextMaxLength
	}

	if t.AltTextAllCapsMinLength <= 0 {
		t.AltTextAllCapsMinLength = defaults.AltTextAllCapsMinLength
	}
}

// RuleContext is what a rule sees: the subtree under inspection and the
// per-document helpers. Rules never look outside Root.
type RuleContext struct {
	Root       *goquery.Selection
	Resolver   *Resolver
	Styles     StyleResolver
	Thresholds Thresholds
}

func NewRuleContext(root *goquery.Selection, resolver *Resolver, styles StyleResolver, thresholds Thresholds) *RuleContext {
	thresholds.applyDefaults()

	return &RuleContext{
		Root:       root,
		Resolver:   resolver,
		Styles:     styles,
		Thresholds: thresholds,
	}
}

type Rule struct {
	ID          string
	Severity    Severity
	Help        string
	Description string
	// NeedsStyles marks rules that only make sense on a styled document.
	NeedsStyles bool
	IDPolicy    IDPolicy
	SnippetLen  int
	Check       func(rc *RuleContext) []*html.Node
}

func (r Rule) finding(resolver *Resolver, nodes []*html.Node) Finding {
	limit := r.SnippetLen
	if limit == 0 {
		limit = snippetLength
	}

	elements := make([]ElementRef, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, ElementRef{
			Selector: resolver.Resolve(n, r.IDPolicy),
			Snippet:  snippet(n, limit),
		})
	}

	return Finding{
		RuleID:      r.ID,
		Severity:    r.Severity,
		Help:        r.Help,
		Description: r.Description,
		Source:      SourceHeuristic,
		Elements:    elements,
	}
}

type RuleSet struct {
	rules []Rule
}

func NewRuleSet(rules ...Rule) *RuleSet {
	return &RuleSet{rules: rules}
}

// DefaultRuleSet returns every heuristic in declaration order.
func DefaultRuleSet() *RuleSet {
	return NewRuleSet(
		decorativeImageRole,
		linkURLOnlyText,
		imageNoAlt,
		imageAltQuality,
		emptyHeadingImageOnly,
		emptyHeadingWhitespace,
		emptyHeadingLibGuidesBox,
		headingWithLink,
		duplicateID,
		scopeAttrValid,
		frameTitle,
		emptyContainer,
		thHasDataCells,
		tableSemanticMarkup,
		linkNewWindow,
		iframeUniqueName,
		labelContentNameMismatch,
		linkNotDistinguished,
		layoutTable,
	)
}

func (rs *RuleSet) Rules() []Rule {
	return rs.rules
}

func (rs *RuleSet) IDs() []string {
	ids := make([]string, 0, len(rs.rules))
	for _, r := range rs.rules {
		ids = append(ids, r.ID)
	}

	return ids
}

// Run evaluates every rule against the context. It returns one finding per
// triggered rule and the ids of rules that were skipped because they need
// computed styles and none are available.
func (rs *RuleSet) Run(ctx context.Context, logger *slog.Logger, rc *RuleContext) ([]Finding, []string) {
	var (
		findings []Finding
		skipped  []string
	)

	for _, rule := range rs.rules {
		if rule.NeedsStyles && rc.Styles == nil {
			logger.DebugContext(ctx, "Skipping style-dependent rule", slog.String("rule", rule.ID))
			skipped = append(skipped, rule.ID)

			continue
		}

		nodes := rule.Check(rc)
		if len(nodes) == 0 {
			continue
		}

		logger.DebugContext(ctx, "Rule triggered", slog.String("rule", rule.ID), slog.Int("elements", len(nodes)))
		findings = append(findings, rule.finding(rc.Resolver, nodes))
	}

	logger.InfoContext(ctx, "Heuristic rules finished",
		slog.Int("rules", len(rs.rules)),
		slog.Int("findings", len(findings)),
		slog.Int("skipped", len(skipped)),
	)

	return findings, skipped
}

func collect(sel *goquery.Selection, keep func(*goquery.Selection) bool) []*html.Node {
	var nodes []*html.Node

	sel.Each(func(_ int, s *goquery.Selection) {
		if keep == nil || keep(s) {
			nodes = append(nodes, s.Nodes...)
		}
	})

	return nodes
}

func normalizedText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func trimmedAttr(s *goquery.Selection, name string) string {
	return strings.TrimSpace(s.AttrOr(name, ""))
}

// insideSubtree reports whether an ancestor of n, up to and including the
// context root, matches the predicate.
func insideSubtree(rc *RuleContext, n *html.Node, match func(*html.Node) bool) bool {
	roots := make(map[*html.Node]bool, len(rc.Root.Nodes))
	for _, r := range rc.Root.Nodes {
		roots[r] = true
	}

	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && match(cur) {
			return true
		}

		if roots[cur] {
			break
		}
	}

	return false
}

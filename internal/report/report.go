// Package report turns scan results into what people read: explained issues,
// a score with its label, and remediation rendered from Markdown.
package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gonum.org/v1/gonum/stat"

	"guide-a11y/internal/analyzer"
)

// Issue is a finding paired with its explanation.
type Issue struct {
	analyzer.Finding
	Explanation  analyzer.Explanation `json:"explanation"`
	HowToFixHTML template.HTML        `json:"-"`
	Deduction    int                  `json:"deduction"`
}

type Page struct {
	Page    analyzer.PageDescriptor `json:"page"`
	Score   int                     `json:"score"`
	Label   string                  `json:"label"`
	Fixable []Issue                 `json:"fixable"`
	System  []Issue                 `json:"system"`
	Skipped []string                `json:"skipped,omitempty"`
	Error   string                  `json:"error,omitempty"`
	Info    *analyzer.PageInfo      `json:"info,omitempty"`
}

func (p Page) Failed() bool {
	return p.Error != ""
}

type Guide struct {
	ID      string  `json:"id"`
	Overall int     `json:"overall"`
	Label   string  `json:"label"`
	Scored  int     `json:"scored_pages"`
	Failed  int     `json:"failed_pages"`
	// Spread is the standard deviation of the scored pages' scores.
	Spread  float64 `json:"spread"`
	Pages   []Page  `json:"pages"`
}

type Builder struct {
	catalog   *analyzer.Catalog
	policy    analyzer.ScorePolicy
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

func NewBuilder(catalog *analyzer.Catalog, policy analyzer.ScorePolicy) *Builder {
	return &Builder{
		catalog:   catalog,
		policy:    policy,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.Linkify)),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// RenderMarkdown converts remediation Markdown to sanitized HTML.
func (b *Builder) RenderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := b.markdown.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source)) //nolint:gosec // escaped above
	}

	return template.HTML(b.sanitizer.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized above
}

// Page explains every finding of result. Issues authors cannot fix in the
// guide editor are listed apart from the ones they can.
func (b *Builder) Page(result analyzer.ScanResult) Page {
	page := Page{
		Page:    result.Page,
		Fixable: []Issue{},
		System:  []Issue{},
		Skipped: result.Skipped,
		Error:   result.Error,
		Info:    result.Info,
	}

	if result.Failed() {
		page.Label = "Unavailable"
		return page
	}

	page.Score = b.policy.Score(result.Findings)
	page.Label = analyzer.Label(page.Score)

	deductions := b.policy.Deductions(result.Findings)

	for _, f := range result.Findings {
		exp := b.catalog.Lookup(f.RuleID)
		issue := Issue{
			Finding:      f,
			Explanation:  exp,
			HowToFixHTML: b.RenderMarkdown(exp.HowToFix),
			Deduction:    deductions[f.RuleID],
		}

		if isSystem(f, exp) {
			page.System = append(page.System, issue)
		} else {
			page.Fixable = append(page.Fixable, issue)
		}
	}

	return page
}

func isSystem(f analyzer.Finding, exp analyzer.Explanation) bool {
	return f.Severity == analyzer.SeveritySystem ||
		exp.Priority == analyzer.PrioritySystem ||
		exp.Fixable == analyzer.NotFixable
}

func (b *Builder) Guide(report *analyzer.GuideReport) Guide {
	guide := Guide{
		ID:      report.ID,
		Overall: report.Overall,
		Scored:  report.Scored,
		Failed:  report.Failed,
		Pages:   make([]Page, 0, len(report.Pages)),
	}

	if report.Scored == 0 {
		guide.Label = "Unavailable"
	} else {
		guide.Label = analyzer.Label(report.Overall)
	}

	var scores []float64

	for _, r := range report.Pages {
		page := b.Page(r)
		if !page.Failed() {
			scores = append(scores, float64(page.Score))
		}

		guide.Pages = append(guide.Pages, page)
	}

	if len(scores) > 1 {
		guide.Spread = stat.StdDev(scores, nil)
	}

	return guide
}

// Meta flattens a page for the console, json and markdown printers.
func (p Page) Meta() map[string]any {
	meta := map[string]any{
		"title": p.Page.Title,
		"url":   p.Page.URL,
	}

	if p.Failed() {
		meta["error"] = p.Error
		return meta
	}

	meta["score"] = fmt.Sprintf("%d/100 (%s)", p.Score, p.Label)
	meta["summary"] = fmt.Sprintf("%d fixable issues, %d system issues", len(p.Fixable), len(p.System))

	if len(p.Fixable) > 0 {
		meta["fixable"] = issueLines(p.Fixable)
	}

	if len(p.System) > 0 {
		meta["system"] = issueLines(p.System)
	}

	if len(p.Skipped) > 0 {
		meta["skipped_rules"] = p.Skipped
	}

	if p.Info != nil {
		meta["html_version"] = p.Info.HTMLVersion
	}

	return meta
}

func issueLines(issues []Issue) []any {
	lines := make([]any, 0, len(issues))

	for _, issue := range issues {
		elements := make([]any, 0, len(issue.Elements))
		for _, el := range issue.Elements {
			elements = append(elements, el.Selector)
		}

		lines = append(lines, map[string]any{
			"rule":       issue.RuleID,
			"title":      issue.Explanation.Title,
			"severity":   issue.Severity.String(),
			"priority":   string(issue.Explanation.Priority),
			"instances":  len(issue.Elements),
			"deduction":  issue.Deduction,
			"how_to_fix": issue.Explanation.HowToFix,
			"elements":   elements,
		})
	}

	return lines
}

// Meta summarises the guide. Per-page details are printed separately.
func (g Guide) Meta() map[string]any {
	pages := make([]any, 0, len(g.Pages))

	for _, p := range g.Pages {
		line := fmt.Sprintf("%s - %s", p.Page.Title, p.Page.URL)
		if p.Failed() {
			line += " (failed: " + p.Error + ")"
		} else {
			line += fmt.Sprintf(" (%d, %s)", p.Score, p.Label)
		}

		pages = append(pages, line)
	}

	meta := map[string]any{
		"id":     g.ID,
		"pages":  pages,
		"scored": g.Scored,
		"failed": g.Failed,
	}

	if g.Scored == 0 {
		meta["overall"] = "unavailable: no page could be scanned"
	} else {
		meta["overall"] = fmt.Sprintf("%d/100 (%s)", g.Overall, g.Label)
		meta["spread"] = fmt.Sprintf("%.1f", g.Spread)
	}

	return meta
}

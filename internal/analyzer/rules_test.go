package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRules(t *testing.T, content string, styles StyleResolver) ([]Finding, []string) {
	t.Helper()

	doc := mustParse(t, content)
	rc := NewRuleContext(doc.Selection, NewResolver(doc.Get(0)), styles, Thresholds{})

	return DefaultRuleSet().Run(context.Background(), newTestLogger(), rc)
}

func byRule(findings []Finding) map[string]Finding {
	out := make(map[string]Finding, len(findings))
	for _, f := range findings {
		out[f.RuleID] = f
	}

	return out
}

func TestRules_ImageWithoutAlt(t *testing.T) {
	findings, _ := runRules(t, `<html><body><img src="a.png"></body></html>`, nil)

	require.Len(t, findings, 1)
	assert.Equal(t, "image-no-alt", findings[0].RuleID)
	assert.Equal(t, SeverityViolation, findings[0].Severity)
	assert.Equal(t, SourceHeuristic, findings[0].Source)
	require.Len(t, findings[0].Elements, 1)
	assert.Contains(t, findings[0].Elements[0].Snippet, `<img src="a.png"`)
}

func TestRules_DuplicateIDUsesPaths(t *testing.T) {
	content := `<html><body><div id="x">a</div><div id="x">b</div></body></html>`
	findings, _ := runRules(t, content, nil)

	require.Len(t, findings, 1)

	found := byRule(findings)
	require.Contains(t, found, "duplicate-id")

	elements := found["duplicate-id"].Elements
	require.Len(t, elements, 2)

	root := mustParse(t, content).Get(0)

	for i, el := range elements {
		assert.False(t, strings.Contains(el.Selector, "#x"), "selector %q relies on the duplicated id", el.Selector)

		nodes, err := Locate(root, el.Selector)
		require.NoError(t, err)
		require.Len(t, nodes, 1, "selector %d must select exactly one element", i)
	}

	assert.NotEqual(t, elements[0].Selector, elements[1].Selector)
}

func TestRules_DuplicateIDOnBody(t *testing.T) {
	content := `<html><body id="x"><div id="x">text</div></body></html>`
	findings, _ := runRules(t, content, nil)

	f, ok := byRule(findings)["duplicate-id"]
	require.True(t, ok)
	require.Len(t, f.Elements, 2)

	root := mustParse(t, content).Get(0)

	for _, el := range f.Elements {
		require.NotEmpty(t, el.Selector, "element %q has no selector", el.Snippet)

		nodes, err := Locate(root, el.Selector)
		require.NoError(t, err)
		assert.Len(t, nodes, 1, "selector %q", el.Selector)
	}
}

func TestRules(t *testing.T) {
	testCases := []struct {
		name        string
		htmlContent string
		rule        string
		wantCount   int
	}{
		// Images
		{"Empty alt without presentation role", `<img src="a.png" alt="">`, "decorative-image-role", 1},
		{"Empty alt with presentation role", `<img src="a.png" alt="" role="presentation">`, "decorative-image-role", 0},
		{"Alt text starting with image of", `<img src="a.png" alt="Image of the library">`, "image-alt-quality", 1},
		{"Alt text that is a filename", `<img src="a.png" alt="banner.PNG">`, "image-alt-quality", 1},
		{"Alt text in capitals", `<img src="a.png" alt="UNIVERSITY LIBRARY">`, "image-alt-quality", 1},
		{"Short capital acronym", `<img src="a.png" alt="JSTOR">`, "image-alt-quality", 0},
		{"Overlong alt text", `<img src="a.png" alt="` + strings.Repeat("a", 251) + `">`, "image-alt-quality", 1},
		{"Good alt text", `<img src="a.png" alt="Reading room with long tables">`, "image-alt-quality", 0},

		// Headings
		{"Heading with only an icon", `<h2><i class="fa fa-book"></i></h2>`, "empty-heading-image-only", 1},
		{"Heading with only an image", `<h3><img src="a.png" alt=""></h3>`, "empty-heading-image-only", 1},
		{"Whitespace heading", "<h2>  \n </h2>", "empty-heading-whitespace", 1},
		{"Whitespace heading is not image only", "<h2>  \n </h2>", "empty-heading-image-only", 0},
		{"Empty heading inside a box", `<div class="s-lg-box"><h2> </h2></div>`, "empty-heading-libguides-box", 1},
		{"Empty heading inside a box is not whitespace", `<div id="s-lg-box-12"><h2></h2></div>`, "empty-heading-whitespace", 0},
		{"Heading with text", `<h2>Find books</h2>`, "empty-heading-whitespace", 0},
		{"Heading that is a link", `<h2><a href="/db">Databases</a></h2>`, "heading-with-link", 1},
		{"Heading that contains a link", `<h2>See <a href="/db">Databases</a></h2>`, "heading-with-link", 0},

		// Links
		{"URL as link text", `<a href="https://example.org">https://example.org</a>`, "link-url-only-text", 1},
		{"Descriptive link text", `<a href="https://example.org">Example site</a>`, "link-url-only-text", 0},
		{"New window without warning", `<a href="/x" target="_blank">Catalog</a>`, "link-new-window", 1},
		{"New window warned in text", `<a href="/x" target="_blank">Catalog (opens in new window)</a>`, "link-new-window", 0},
		{"New window warned by icon", `<a href="/x" target="_blank">Catalog <i class="fa fa-external-link"></i></a>`, "link-new-window", 0},
		{"New window warned by image alt", `<a href="/x" target="_blank">Catalog <img src="i.png" alt="new tab"></a>`, "link-new-window", 0},
		{"Aria label hides visible text", `<button aria-label="Close dialog">Submit</button>`, "label-content-name-mismatch", 1},
		{"Aria label contains visible text", `<button aria-label="Submit form">Submit</button>`, "label-content-name-mismatch", 0},
		{"Input value mismatch", `<input type="submit" value="Go" aria-label="Search catalog">`, "label-content-name-mismatch", 1},

		// Structure
		{"Iframes sharing a name", `<iframe name="v" title="a"></iframe><iframe name="v" title="b"></iframe>`, "iframe-unique-name", 2},
		{"Iframes with distinct names", `<iframe name="a" title="a"></iframe><iframe name="b" title="b"></iframe>`, "iframe-unique-name", 0},
		{"Iframe without a title", `<iframe src="https://example.org"></iframe>`, "frame-title", 1},
		{"Iframe labelled by aria", `<iframe src="https://example.org" aria-label="Video"></iframe>`, "frame-title", 0},
		{"Empty section", `<section>  </section>`, "empty-container", 1},
		{"Empty box content", `<div class="s-lg-box-content"></div>`, "empty-container", 1},
		{"Section with only media", `<section><img src="a.png" alt="Map"></section>`, "empty-container", 0},
		{"Section with only a form control", `<section><input type="text"></section>`, "empty-container", 0},

		// Tables
		{"Scope on a data cell", `<table><tr><th>h</th></tr><tr><td scope="col">a</td></tr></table>`, "scope-attr-valid", 1},
		{"Table without header cells", `<table><tr><td>a</td><td>b</td></tr></table>`, "th-has-data-cells", 1},
		{"Table with header cells", `<table><tr><th>a</th></tr><tr><td>b</td></tr></table>`, "th-has-data-cells", 0},
		{"Table without rows or sections", `<table></table>`, "table-semantic-markup", 1},
		{"Parsed rows get an implied tbody", `<table><tr><td>a</td></tr></table>`, "table-semantic-markup", 0},
		{"Table with a caption", `<table><caption>Hours</caption></table>`, "table-semantic-markup", 0},
		{"Short table without headers", `<table><tr><td>a</td><td>b</td></tr></table>`, "layout-table", 1},
		{"Presentation table", `<table role="presentation"><tr><td>a</td></tr></table>`, "layout-table", 0},
		{"Data table with headers", `<table><tr><th>a</th></tr><tr><td>1</td></tr><tr><td>2</td></tr></table>`, "layout-table", 0},
		{
			"Tall table of block content",
			`<table><tr><td><div>a</div></td><td><p>b</p></td></tr><tr><td><div>c</div></td><td><p>d</p></td></tr><tr><td><div>e</div></td><td>f</td></tr></table>`,
			"layout-table", 1,
		},
		{
			"Tall table of plain text",
			`<table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr><tr><td>e</td><td>f</td></tr></table>`,
			"layout-table", 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			findings, _ := runRules(t, "<html><body>"+tc.htmlContent+"</body></html>", nil)

			f, ok := byRule(findings)[tc.rule]
			if tc.wantCount == 0 {
				assert.False(t, ok, "rule %s should not trigger, got %+v", tc.rule, f.Elements)

				return
			}

			require.True(t, ok, "rule %s should trigger", tc.rule)
			assert.Len(t, f.Elements, tc.wantCount)
		})
	}
}

func TestRules_DeclarationOrder(t *testing.T) {
	findings, _ := runRules(t, `<html><body>
		<table></table>
		<img src="a.png">
		<a href="https://example.org">https://example.org</a>
	</body></html>`, nil)

	ids := make([]string, 0, len(findings))
	for _, f := range findings {
		ids = append(ids, f.RuleID)
	}

	assert.Equal(t, []string{"link-url-only-text", "image-no-alt", "table-semantic-markup", "layout-table"}, ids)
}

func TestRules_StayInsideRoot(t *testing.T) {
	doc := mustParse(t, `<html><body>
		<header><img src="logo.png"></header>
		<div id="s-lg-guide-main"><img src="inside.png"></div>
	</body></html>`)

	rc := NewRuleContext(doc.Find("#s-lg-guide-main"), NewResolver(doc.Get(0)), nil, Thresholds{})
	findings, _ := DefaultRuleSet().Run(context.Background(), newTestLogger(), rc)

	require.Len(t, findings, 1)
	require.Len(t, findings[0].Elements, 1)
	assert.Contains(t, findings[0].Elements[0].Snippet, "inside.png")
}

func TestRules_LinkColor(t *testing.T) {
	content := `<html><body>
		<p style="color: #333">Read the <a href="/guide" style="text-decoration: none; color: #333333">research guide</a>.</p>
		<p style="color: #333">Or the <a href="/faq" style="color: #333">FAQ</a>.</p>
		<p>Visit <a href="/hours">hours</a>.</p>
		<p style="color:black">Try <a href="/chat" style="text-decoration:none;color:#000;border-bottom:1px solid">chat</a>.</p>
	</body></html>`

	t.Run("Skipped without styles", func(t *testing.T) {
		findings, skipped := runRules(t, content, nil)

		assert.Equal(t, []string{"link-not-distinguished"}, skipped)
		assert.NotContains(t, byRule(findings), "link-not-distinguished")
	})

	t.Run("Evaluated with inline styles", func(t *testing.T) {
		findings, skipped := runRules(t, content, InlineStyles{})

		assert.Empty(t, skipped)

		f, ok := byRule(findings)["link-not-distinguished"]
		require.True(t, ok)
		require.Len(t, f.Elements, 1)
		assert.Contains(t, f.Elements[0].Snippet, "/guide")
	})
}

func TestNormalizeColor(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"#333", "#333333"},
		{"#ABCDEF", "#abcdef"},
		{"black", "#000000"},
		{"White", "#ffffff"},
		{"rgb(0, 0, 0)", "rgb(0,0,0)"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, normalizeColor(tc.in), tc.in)
	}
}

func TestRuleSet_IDs(t *testing.T) {
	ids := DefaultRuleSet().IDs()

	assert.Len(t, ids, 19)

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate rule id %s", id)
		seen[id] = true
	}
}

package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func findByMarker(t *testing.T, root *html.Node, marker string) *html.Node {
	t.Helper()

	var found *html.Node

	walkElements(root, func(n *html.Node) {
		if found == nil && attr(n, "data-t") == marker {
			found = n
		}
	})

	require.NotNil(t, found, "no element with data-t=%q", marker)

	return found
}

func TestResolve(t *testing.T) {
	testCases := []struct {
		name        string
		htmlContent string
		policy      IDPolicy
		want        string
	}{
		{
			name:        "Unique id is trusted",
			htmlContent: `<div><p id="intro" data-t="x">hi</p><p>other</p></div>`,
			policy:      IDPolicyTrust,
			want:        "#intro",
		},
		{
			name:        "Duplicated id falls back to a path",
			htmlContent: `<div id="x" data-t="x">a</div><div id="x">b</div>`,
			policy:      IDPolicyTrust,
			want:        "div:nth-child(1)",
		},
		{
			name:        "Ignore policy forces a path",
			htmlContent: `<section><p id="intro" data-t="x">hi</p></section>`,
			policy:      IDPolicyIgnore,
			want:        "section > p",
		},
		{
			name:        "Unique ancestor id anchors the path",
			htmlContent: `<div id="wrap"><p><span data-t="x">x</span></p></div>`,
			policy:      IDPolicyTrust,
			want:        "#wrap > p > span",
		},
		{
			name:        "Only the first two classes are used",
			htmlContent: `<p class="a b c" data-t="x">x</p>`,
			policy:      IDPolicyTrust,
			want:        "p.a.b",
		},
		{
			name:        "Position only among several element siblings",
			htmlContent: `<ul><li>1</li><li data-t="x">2</li></ul>`,
			policy:      IDPolicyTrust,
			want:        "ul > li:nth-child(2)",
		},
		{
			name:        "Path is capped at five levels",
			htmlContent: `<div><div><div><div><div><div><div><span data-t="x">deep</span></div></div></div></div></div></div></div>`,
			policy:      IDPolicyTrust,
			want:        "div > div > div > div > span",
		},
		{
			name:        "Body without a usable id",
			htmlContent: `<html><body class="guide" data-t="x"><p>x</p></body></html>`,
			policy:      IDPolicyIgnore,
			want:        "body",
		},
		{
			name:        "Body sharing its id with a child",
			htmlContent: `<html><body id="x" data-t="x"><div id="x">text</div></body></html>`,
			policy:      IDPolicyTrust,
			want:        "body",
		},
		{
			name:        "Special characters in ids are escaped",
			htmlContent: `<p id="a:b" data-t="x">x</p>`,
			policy:      IDPolicyTrust,
			want:        `#a\:b`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustParse(t, tc.htmlContent)
			root := doc.Get(0)
			n := findByMarker(t, root, "x")

			got := NewResolver(root).Resolve(n, tc.policy)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveRoundTrip(t *testing.T) {
	doc := mustParse(t, `<html><body>
		<div id="s-lg-box-1" class="s-lg-box">
			<h2 class="s-lg-box-title">Find articles</h2>
			<ul><li><a href="/a">A</a></li><li><a href="/b">B</a></li></ul>
			<img src="logo.png">
			<p id="dup">one</p><p id="dup">two</p>
			<p id="1st">digits</p>
		</div>
		<div class="s-lg-box"><table><tr><td>x</td><td><img src="cell.png"></td></tr></table></div>
	</body></html>`)

	root := doc.Get(0)
	resolver := NewResolver(root)

	walkElements(root, func(n *html.Node) {
		for _, policy := range []IDPolicy{IDPolicyTrust, IDPolicyIgnore} {
			selector := resolver.Resolve(n, policy)
			require.NotEmpty(t, selector, "no selector for <%s>", n.Data)

			nodes, err := Locate(root, selector)
			require.NoError(t, err, "selector %q", selector)
			assert.Contains(t, nodes, n, "selector %q does not select its element", selector)
		}
	})
}

func TestLocate(t *testing.T) {
	doc := mustParse(t, `<div class="box"><p>a</p><p>b</p></div>`)
	root := doc.Get(0)

	nodes, err := Locate(root, "div.box > p")
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	_, err = Locate(root, "#missing")
	require.ErrorIs(t, err, ErrSelectorNotFound)

	_, err = Locate(root, "div[")
	require.ErrorIs(t, err, ErrInvalidSelector)
}

func TestDuplicateIDs(t *testing.T) {
	doc := mustParse(t, `<p id="a"></p><p id="a"></p><p id="b"></p><p id=""></p>`)

	assert.Equal(t, map[string]bool{"a": true}, NewResolver(doc.Get(0)).DuplicateIDs())
}

func TestSnippet(t *testing.T) {
	doc := mustParse(t, `<p data-t="x">`+strings.Repeat("é", 300)+`</p>`)
	n := findByMarker(t, doc.Get(0), "x")

	got := snippet(n, snippetLength)
	assert.Equal(t, snippetLength, len([]rune(got)))
	assert.True(t, strings.HasPrefix(got, `<p data-t="x">`))
}

package analyzer

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

type RunOptions struct {
	Categories  []string
	ResultKinds []string
}

func DefaultRunOptions() RunOptions {
	return RunOptions{
		Categories:  []string{"wcag2a", "wcag2aa", "best-practice"},
		ResultKinds: []string{"violations"},
	}
}

type EngineResult struct {
	Violations []Finding
}

// Engine is an accessibility rules engine run alongside the heuristics.
// Implementations must not keep state between runs: pages are scanned concurrently.
type Engine interface {
	Run(ctx context.Context, root *goquery.Selection, opts RunOptions) (EngineResult, error)
}

// Ref builds an element reference with the default snippet length.
func (r *Resolver) Ref(n *html.Node, policy IDPolicy) ElementRef {
	return ElementRef{
		Selector: r.Resolve(n, policy),
		Snippet:  snippet(n, snippetLength),
	}
}

// DocumentOf returns the top of the tree n belongs to.
func DocumentOf(n *html.Node) *html.Node {
	for n != nil && n.Parent != nil {
		n = n.Parent
	}

	return n
}

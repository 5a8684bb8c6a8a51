package analyzer

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IDPolicy controls whether an element's own id may stand in for its path.
type IDPolicy int

const (
	// IDPolicyTrust returns #id when the id is unique within the document.
	IDPolicyTrust IDPolicy = iota
	// IDPolicyIgnore forces a path-based selector. Elements reported for
	// sharing an id must use it, otherwise #id would match all of them.
	IDPolicyIgnore
)

const (
	maxSelectorDepth = 5
	snippetLength    = 100
	linkSnippetLen   = 150
)

var (
	ErrSelectorNotFound = errors.New("selector matched no elements")
	ErrInvalidSelector  = errors.New("invalid selector")
)

// Resolver produces best-effort unique CSS selectors for elements of one document.
// Selectors are not guaranteed unique or stable across re-renders.
type Resolver struct {
	ids map[string]int
}

func NewResolver(root *html.Node) *Resolver {
	r := &Resolver{ids: make(map[string]int)}

	walkElements(root, func(n *html.Node) {
		if id := attr(n, "id"); id != "" {
			r.ids[id]++
		}
	})

	return r
}

// DuplicateIDs returns the ids carried by more than one element.
func (r *Resolver) DuplicateIDs() map[string]bool {
	dups := make(map[string]bool)

	for id, count := range r.ids {
		if count > 1 {
			dups[id] = true
		}
	}

	return dups
}

func (r *Resolver) uniqueID(n *html.Node) string {
	id := attr(n, "id")
	if id == "" || r.ids[id] != 1 {
		return ""
	}

	return id
}

func (r *Resolver) Resolve(n *html.Node, policy IDPolicy) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}

	if policy == IDPolicyTrust {
		if id := r.uniqueID(n); id != "" {
			return "#" + cssEscape(id)
		}
	}

	// body is unique in a parsed document.
	if n.DataAtom == atom.Body {
		return "body"
	}

	var path []string

	for cur := n; cur != nil && cur.Type == html.ElementNode && cur.DataAtom != atom.Body; cur = cur.Parent {
		if cur != n {
			if id := r.uniqueID(cur); id != "" {
				path = append(path, "#"+cssEscape(id))
				break
			}
		}

		path = append(path, pathFragment(cur))
		if len(path) >= maxSelectorDepth {
			break
		}
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return strings.Join(path, " > ")
}

func pathFragment(n *html.Node) string {
	var b strings.Builder

	b.WriteString(strings.ToLower(n.Data))

	classes := strings.Fields(attr(n, "class"))
	if len(classes) > 2 {
		classes = classes[:2]
	}

	for _, class := range classes {
		b.WriteByte('.')
		b.WriteString(cssEscape(class))
	}

	if n.Parent != nil {
		index, total := 0, 0

		for sib := n.Parent.FirstChild; sib != nil; sib = sib.NextSibling {
			if sib.Type != html.ElementNode {
				continue
			}

			total++
			if sib == n {
				index = total
			}
		}

		if total > 1 {
			b.WriteString(":nth-child(")
			b.WriteString(strconv.Itoa(index))
			b.WriteByte(')')
		}
	}

	return b.String()
}

// Locate re-acquires the elements a stored selector points at.
func Locate(root *html.Node, selector string) ([]*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSelector, selector, err)
	}

	nodes := sel.MatchAll(root)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSelectorNotFound, selector)
	}

	return nodes, nil
}

func cssEscape(ident string) string {
	var b strings.Builder

	for i, r := range ident {
		switch {
		case r == 0:
			b.WriteRune('�')
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, "\\%x ", r)
		case r >= '0' && r <= '9' && (i == 0 || (i == 1 && ident[0] == '-')):
			fmt.Fprintf(&b, "\\%x ", r)
		case r >= 0x80, r == '-', r == '_',
			r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}

	return b.String()
}

func snippet(n *html.Node, limit int) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}

	runes := []rune(buf.String())
	if len(runes) > limit {
		runes = runes[:limit]
	}

	return string(runes)
}

func attr(n *html.Node, key string) string {
	val, _ := lookupAttr(n, key)

	return val
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}

	return "", false
}

func walkElements(n *html.Node, fn func(*html.Node)) {
	if n == nil {
		return
	}

	if n.Type == html.ElementNode {
		fn(n)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkElements(c, fn)
	}
}

package analyzer

import (
	"strings"

	"github.com/gorilla/css/scanner"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	defaultTextColor = "#000000"
	defaultLinkColor = "#0000ee"
)

type Style struct {
	Color     string
	Underline bool
	Border    bool
}

// StyleResolver supplies computed styles. Offline-parsed documents have
// none, and rules that need one are skipped.
type StyleResolver interface {
	Compute(n *html.Node) Style
}

// InlineStyles approximates computed styles from inline style attributes and
// user-agent defaults. Stylesheets are not evaluated.
type InlineStyles struct{}

func (InlineStyles) Compute(n *html.Node) Style {
	if n == nil || n.Type != html.ElementNode {
		return Style{Color: defaultTextColor}
	}

	decls := parseDeclarations(attr(n, "style"))
	isLink := n.DataAtom == atom.A

	style := Style{Underline: isLink}

	switch color, ok := decls["color"]; {
	case ok && color != "inherit":
		style.Color = normalizeColor(color)
	case isLink && !ok:
		style.Color = defaultLinkColor
	default:
		style.Color = InlineStyles{}.Compute(n.Parent).Color
	}

	for _, prop := range []string{"text-decoration", "text-decoration-line"} {
		if v, ok := decls[prop]; ok {
			style.Underline = strings.Contains(v, "underline")
		}
	}

	for _, prop := range []string{"border", "border-bottom"} {
		if v, ok := decls[prop]; ok {
			style.Border = !borderless(v)
		}
	}

	return style
}

func borderless(v string) bool {
	v = strings.TrimSpace(v)

	return v == "" || v == "0" || strings.Contains(v, "none") || strings.HasPrefix(v, "0 ") || strings.HasPrefix(v, "0px")
}

func normalizeColor(v string) string {
	v = strings.ToLower(strings.Join(strings.Fields(v), ""))

	switch v {
	case "black":
		return "#000000"
	case "white":
		return "#ffffff"
	}

	if len(v) == 4 && v[0] == '#' {
		return string([]byte{'#', v[1], v[1], v[2], v[2], v[3], v[3]})
	}

	return v
}

// parseDeclarations tokenizes an inline style attribute into lowercase
// property names and their raw values, without !important.
func parseDeclarations(style string) map[string]string {
	decls := make(map[string]string)
	if strings.TrimSpace(style) == "" {
		return decls
	}

	var (
		prop    string
		value   strings.Builder
		inValue bool
	)

	flush := func() {
		if inValue && prop != "" {
			v := strings.TrimSpace(value.String())
			v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
			decls[prop] = strings.ToLower(v)
		}

		prop = ""
		inValue = false
		value.Reset()
	}

	s := scanner.New(style)

	for {
		tok := s.Next()
		if tok.Type == scanner.TokenEOF || tok.Type == scanner.TokenError {
			break
		}

		switch {
		case tok.Type == scanner.TokenComment:
		case tok.Type == scanner.TokenChar && tok.Value == ";":
			flush()
		case !inValue && tok.Type == scanner.TokenIdent:
			prop = strings.ToLower(tok.Value)
		case !inValue && tok.Type == scanner.TokenChar && tok.Value == ":":
			inValue = prop != ""
		case inValue && tok.Type == scanner.TokenS:
			value.WriteByte(' ')
		case inValue:
			value.WriteString(tok.Value)
		}
	}

	flush()

	return decls
}

package analyzer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	newWindowWords = []string{"new window", "new tab", "opens in", "external"}
	newWindowIcon  = `[class*="external"], [class*="new-window"]`
)

var linkURLOnlyText = Rule{
	ID:          "link-url-only-text",
	Severity:    SeverityViolation,
	Help:        "Links Should Not Use URLs as Link Text",
	Description: "Links with URLs as text are not descriptive.",
	SnippetLen:  linkSnippetLen,
	Check: func(rc *RuleContext) []*html.Node {
		return collect(rc.Root.Find("a"), func(s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())

			return strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")
		})
	},
}

var linkNewWindow = Rule{
	ID:          "link-new-window",
	Severity:    SeverityWarning,
	Help:        "Links Opening a New Window Should Say So",
	Description: `Links with target="_blank" should warn users that a new window or tab will open.`,
	SnippetLen:  linkSnippetLen,
	Check: func(rc *RuleContext) []*html.Node {
		return collect(rc.Root.Find(`a[target="_blank"]`), func(s *goquery.Selection) bool {
			return !warnsOfNewWindow(s)
		})
	},
}

func warnsOfNewWindow(s *goquery.Selection) bool {
	label := strings.ToLower(strings.Join([]string{
		s.Text(),
		s.AttrOr("aria-label", ""),
		s.AttrOr("title", ""),
	}, " "))

	if containsAny(label, newWindowWords) {
		return true
	}

	if s.Find(newWindowIcon).Length() > 0 {
		return true
	}

	warned := false

	s.Find("img[alt]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		warned = containsAny(strings.ToLower(img.AttrOr("alt", "")), newWindowWords)

		return !warned
	})

	return warned
}

var labelContentNameMismatch = Rule{
	ID:          "label-content-name-mismatch",
	Severity:    SeverityViolation,
	Help:        "Accessible Name Must Match Visible Label",
	Description: "The aria-label of this control does not contain its visible text, so voice-control users cannot activate it by what they see.",
	Check: func(rc *RuleContext) []*html.Node {
		candidates := rc.Root.Find(`a, button, [role="button"], [role="link"], input[type="button"], input[type="submit"], input[type="reset"]`)

		return collect(candidates, func(s *goquery.Selection) bool {
			label := strings.ToLower(strings.Join(strings.Fields(s.AttrOr("aria-label", "")), " "))

			var visible string
			if goquery.NodeName(s) == "input" {
				visible = strings.Join(strings.Fields(s.AttrOr("value", "")), " ")
			} else {
				visible = normalizedText(s)
			}

			visible = strings.ToLower(visible)

			if label == "" || visible == "" {
				return false
			}

			return !strings.Contains(label, visible) && !strings.Contains(visible, label)
		})
	},
}

var linkNotDistinguished = Rule{
	ID:          "link-not-distinguished",
	Severity:    SeverityViolation,
	Help:        "Links Must Be Distinguishable Without Color",
	Description: "This link has no underline or border and uses the same text color as the surrounding text.",
	NeedsStyles: true,
	SnippetLen:  linkSnippetLen,
	Check: func(rc *RuleContext) []*html.Node {
		return collect(rc.Root.Find("a[href]"), func(s *goquery.Selection) bool {
			n := s.Nodes[0]
			if n.Parent == nil || n.Parent.Type != html.ElementNode {
				return false
			}

			link := rc.Styles.Compute(n)
			if link.Underline || link.Border {
				return false
			}

			return link.Color != "" && link.Color == rc.Styles.Compute(n.Parent).Color
		})
	},
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}

	return false
}

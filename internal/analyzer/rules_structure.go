package analyzer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	containerSelector   = ".s-lg-box-content, section, article, aside"
	mediaSelector       = "img, svg, video, audio, iframe, object, embed, canvas, picture"
	interactiveSelector = "a[href], button, input, select, textarea, [tabindex]"
)

var duplicateID = Rule{
	ID:          "duplicate-id",
	Severity:    SeverityViolation,
	Help:        "IDs Must Be Unique",
	Description: "More than one element uses the same id, which breaks labels, skip links and ARIA references.",
	IDPolicy:    IDPolicyIgnore,
	Check: func(rc *RuleContext) []*html.Node {
		return sharedAttrValue(rc.Root.Find("[id]"), "id")
	},
}

var iframeUniqueName = Rule{
	ID:          "iframe-unique-name",
	Severity:    SeverityViolation,
	Help:        "Frames Must Have Unique Names",
	Description: "Two or more iframes share the same name attribute.",
	Check: func(rc *RuleContext) []*html.Node {
		return sharedAttrValue(rc.Root.Find("iframe[name]"), "name")
	},
}

// sharedAttrValue returns every element whose non-empty attribute value is
// carried by at least one other element in the selection, in document order.
func sharedAttrValue(sel *goquery.Selection, name string) []*html.Node {
	counts := make(map[string]int)

	sel.Each(func(_ int, s *goquery.Selection) {
		if v := s.AttrOr(name, ""); v != "" {
			counts[v]++
		}
	})

	return collect(sel, func(s *goquery.Selection) bool {
		v := s.AttrOr(name, "")

		return v != "" && counts[v] > 1
	})
}

var frameTitle = Rule{
	ID:          "frame-title",
	Severity:    SeverityViolation,
	Help:        "Frames Must Have a Title",
	Description: "Embedded frames need a title so screen reader users know what the frame contains.",
	Check: func(rc *RuleContext) []*html.Node {
		return collect(rc.Root.Find("iframe"), func(s *goquery.Selection) bool {
			return trimmedAttr(s, "title") == "" &&
				trimmedAttr(s, "aria-label") == "" &&
				trimmedAttr(s, "aria-labelledby") == ""
		})
	},
}

var emptyContainer = Rule{
	ID:          "empty-container",
	Severity:    SeverityWarning,
	Help:        "Remove Empty Content Sections",
	Description: "This box or section has no text, media or interactive content.",
	Check: func(rc *RuleContext) []*html.Node {
		return collect(rc.Root.Find(containerSelector), func(s *goquery.Selection) bool {
			return strings.TrimSpace(s.Text()) == "" &&
				s.Find(mediaSelector).Length() == 0 &&
				s.Find(interactiveSelector).Length() == 0
		})
	},
}

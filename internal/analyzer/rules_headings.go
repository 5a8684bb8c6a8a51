package analyzer

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

const headingSelector = "h1, h2, h3, h4, h5, h6"

type emptyHeadingKind int

const (
	headingKindText emptyHeadingKind = iota
	headingKindImageOnly
	headingKindBox
	headingKindWhitespace
)

var (
	mediaIconSelector = `img, svg, i, picture, video, canvas, [class*="icon"], [class*="fa-"]`
	libGuidesBox      = cascadia.MustCompile(`.s-lg-box, [id^="s-lg-box"]`)
)

func classifyEmptyHeading(rc *RuleContext, s *goquery.Selection) emptyHeadingKind {
	if normalizedText(s) != "" {
		return headingKindText
	}

	if s.Find(mediaIconSelector).Length() > 0 {
		return headingKindImageOnly
	}

	if insideSubtree(rc, s.Nodes[0], libGuidesBox.Match) {
		return headingKindBox
	}

	return headingKindWhitespace
}

func emptyHeadings(kind emptyHeadingKind) func(rc *RuleContext) []*html.Node {
	return func(rc *RuleContext) []*html.Node {
		return collect(rc.Root.Find(headingSelector), func(s *goquery.Selection) bool {
			return classifyEmptyHeading(rc, s) == kind
		})
	}
}

var emptyHeadingImageOnly = Rule{
	ID:          "empty-heading-image-only",
	Severity:    SeverityViolation,
	Help:        "Headings Must Not Contain Only Images or Icons",
	Description: "This heading has no text. It only contains an image or icon, so screen readers announce an empty heading.",
	Check:       emptyHeadings(headingKindImageOnly),
}

var emptyHeadingWhitespace = Rule{
	ID:          "empty-heading-whitespace",
	Severity:    SeverityViolation,
	Help:        "Headings Must Not Be Empty",
	Description: "This heading contains only whitespace.",
	Check:       emptyHeadings(headingKindWhitespace),
}

var emptyHeadingLibGuidesBox = Rule{
	ID:          "empty-heading-libguides-box",
	Severity:    SeverityViolation,
	Help:        "Box Titles Must Not Be Empty",
	Description: "A content box was saved without a title, which leaves an empty heading in the box header.",
	Check:       emptyHeadings(headingKindBox),
}

var headingWithLink = Rule{
	ID:          "heading-with-link",
	Severity:    SeverityViolation,
	Help:        "Headings Should Not Be Entirely a Link",
	Description: "The whole heading text is a single link, which mixes navigation into the page outline.",
	Check: func(rc *RuleContext) []*html.Node {
		return collect(rc.Root.Find(headingSelector), func(s *goquery.Selection) bool {
			links := s.Find("a")
			if links.Length() != 1 {
				return false
			}

			text := normalizedText(s)

			return text != "" && normalizedText(links) == text
		})
	},
}

package analyzer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	altFilenamePattern = regexp.MustCompile(`\.(jpg|jpeg|png|gif|svg|webp|bmp)$`)
	altRedundantPrefix = []string{"image of", "picture of", "photo of", "graphic of", "screenshot of"}
)

var decorativeImageRole = Rule{
	ID:          "decorative-image-role",
	Severity:    SeverityBestPractice,
	Help:        `Decorative Images Should Have role="presentation"`,
	Description: `Images with empty alt text should explicitly be marked as decorative with role="presentation"`,
	Check: func(rc *RuleContext) []*html.Node {
		return collect(rc.Root.Find(`img[alt=""]`), func(s *goquery.Selection) bool {
			return s.AttrOr("role", "") != "presentation"
		})
	},
}

var imageNoAlt = Rule{
	ID:          "image-no-alt",
	Severity:    SeverityViolation,
	Help:        "Images Must Have Alt Attributes",
	Description: "All images must have an alt attribute, even if empty for decorative images.",
	Check: func(rc *RuleContext) []*html.Node {
		return collect(rc.Root.Find("img:not([alt])"), nil)
	},
}

var imageAltQuality = Rule{
	ID:          "image-alt-quality",
	Severity:    SeverityWarning,
	Help:        "Alt Text Quality Issues",
	Description: `Alt text should be concise (<250 chars), avoid phrases like "image of", and not be filenames or all caps.`,
	Check: func(rc *RuleContext) []*html.Node {
		return collect(rc.Root.Find("img[alt]"), func(s *goquery.Selection) bool {
			return poorAltText(s.AttrOr("alt", ""), rc.Thresholds)
		})
	},
}

func poorAltText(alt string, t Thresholds) bool {
	if alt == "" {
		return false
	}

	lower := strings.ToLower(alt)

	for _, prefix := range altRedundantPrefix {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}

	if altFilenamePattern.MatchString(lower) {
		return true
	}

	length := utf8.RuneCountInString(alt)
	if length > t.AltTextMaxLength {
		return true
	}

	return length > t.AltTextAllCapsMinLength && isAllCaps(alt)
}

func isAllCaps(s string) bool {
	hasUpper := false

	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}

		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}

	return hasUpper
}

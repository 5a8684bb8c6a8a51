package analyzer

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const complexCellContent = "img, div, p, table, ul, ol, dl, blockquote, section, h1, h2, h3, h4, h5, h6"

var scopeAttrValid = Rule{
	ID:          "scope-attr-valid",
	Severity:    SeverityViolation,
	Help:        "Only Header Cells May Carry scope or headers",
	Description: "Data cells (<td>) use a scope or headers attribute that belongs on header cells (<th>).",
	Check: func(rc *RuleContext) []*html.Node {
		return collect(rc.Root.Find("td[scope], td[headers]"), nil)
	},
}

var thHasDataCells = Rule{
	ID:          "th-has-data-cells",
	Severity:    SeverityViolation,
	Help:        "Data Tables Need Header Cells",
	Description: "This table has data cells but no header cells, so screen readers cannot announce what each column means.",
	Check: func(rc *RuleContext) []*html.Node {
		return collect(rc.Root.Find("table"), func(s *goquery.Selection) bool {
			return s.Find("td").Length() > 0 && s.Find("th").Length() == 0
		})
	},
}

var tableSemanticMarkup = Rule{
	ID:          "table-semantic-markup",
	Severity:    SeverityWarning,
	Help:        "Tables Should Use Semantic Structure",
	Description: "This table has no <thead>, <tbody> or <caption>.",
	Check: func(rc *RuleContext) []*html.Node {
		return collect(rc.Root.Find("table"), func(s *goquery.Selection) bool {
			return s.ChildrenFiltered("thead, tbody, caption").Length() == 0
		})
	},
}

var layoutTable = Rule{
	ID:          "layout-table",
	Severity:    SeverityWarning,
	Help:        "Tables Should Not Be Used for Layout",
	Description: "This table appears to position content rather than present data.",
	Check: func(rc *RuleContext) []*html.Node {
		return collect(rc.Root.Find("table"), func(s *goquery.Selection) bool {
			return looksLikeLayoutTable(s, rc.Thresholds)
		})
	},
}

func looksLikeLayoutTable(table *goquery.Selection, t Thresholds) bool {
	if table.AttrOr("role", "") == "presentation" {
		return false
	}

	if table.Find("th").Length() > 0 {
		return false
	}

	rows := tableRows(table)
	if rows.Length() <= t.LayoutTableMaxRows {
		return true
	}

	cells := rows.ChildrenFiltered("td")
	if cells.Length() == 0 {
		return false
	}

	complexCells := cells.FilterFunction(func(_ int, cell *goquery.Selection) bool {
		return cell.Find(complexCellContent).Length() > 0
	}).Length()

	return float64(complexCells)/float64(cells.Length()) > t.LayoutTableComplexRatio
}

// tableRows returns the rows that belong to the table itself, not to nested tables.
func tableRows(table *goquery.Selection) *goquery.Selection {
	return table.ChildrenFiltered("thead, tbody, tfoot").ChildrenFiltered("tr").
		AddSelection(table.ChildrenFiltered("tr"))
}

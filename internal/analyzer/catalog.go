package analyzer

import (
	"sort"
	"strings"
)

type Priority string

const (
	PriorityCritical  Priority = "critical"
	PriorityImportant Priority = "important"
	PriorityModerate  Priority = "moderate"
	PriorityMinor     Priority = "minor"
	PrioritySystem    Priority = "system"
)

type Fixability string

const (
	Fixable       Fixability = "yes"
	NotFixable    Fixability = "no"
	PartlyFixable Fixability = "partial"
)

type Explanation struct {
	RuleID   string     `json:"rule_id"`
	Title    string     `json:"title"`
	Plain    string     `json:"plain"`
	HowToFix string     `json:"how_to_fix"`
	Priority Priority   `json:"priority"`
	Fixable  Fixability `json:"fixable"`
}

const DefaultSupportContact = "library-web-support@umich.edu"

// Catalog maps every known rule id to remediation guidance. Lookups are exact;
// unknown ids get the generic entry.
type Catalog struct {
	entries map[string]Explanation
}

func NewCatalog(supportContact string) *Catalog {
	if supportContact == "" {
		supportContact = DefaultSupportContact
	}

	contact := "[" + supportContact + "](mailto:" + supportContact + ")"

	entries := make(map[string]Explanation, len(catalogEntries))
	for _, e := range catalogEntries {
		e.HowToFix = strings.ReplaceAll(e.HowToFix, "{contact}", contact)
		entries[e.RuleID] = e
	}

	return &Catalog{entries: entries}
}

func (c *Catalog) Lookup(ruleID string) Explanation {
	if e, ok := c.entries[ruleID]; ok {
		return e
	}

	return Explanation{
		RuleID:   ruleID,
		Title:    "Accessibility Issue",
		Plain:    "This element has an accessibility problem.",
		HowToFix: "Review the technical description below for details.",
		Priority: PriorityImportant,
		Fixable:  Fixable,
	}
}

func (c *Catalog) Has(ruleID string) bool {
	_, ok := c.entries[ruleID]

	return ok
}

// Entries returns the catalog sorted by rule id.
func (c *Catalog) Entries() []Explanation {
	out := make([]Explanation, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].RuleID < out[j].RuleID })

	return out
}

//nolint:gochecknoglobals // configuration data, effectively const
var catalogEntries = []Explanation{
	// Images
	{
		RuleID:   "image-alt",
		Title:    "Images Missing Descriptions",
		Plain:    "Images need alternative text so screen readers can describe them to blind users.",
		HowToFix: `In LibGuides editor: Click the image → Properties → Add description in "Alternative Text" field. Describe what the image shows.`,
		Priority: PriorityCritical,
		Fixable:  Fixable,
	},
	{
		RuleID:   "image-no-alt",
		Title:    "Images Missing Alt Attribute",
		Plain:    "These images have no alt attribute at all. Every image must have alt=\"\" (if decorative) or descriptive alt text.",
		HowToFix: `In LibGuides editor: Click image → Properties → Add alt text describing the image, or use alt="" if purely decorative.`,
		Priority: PriorityCritical,
		Fixable:  Fixable,
	},
	{
		RuleID:   "decorative-image-role",
		Title:    `Decorative Image Needs role="presentation"`,
		Plain:    `This image has empty alt text (decorative), but should be explicitly marked with role="presentation" for screen readers.`,
		HowToFix: `In LibGuides editor: Click image → Properties → In the "Advanced" tab, add Attribute: role="presentation". Or add descriptive alt text if the image isn't decorative.`,
		Priority: PriorityMinor,
		Fixable:  Fixable,
	},
	{
		RuleID:   "image-alt-quality",
		Title:    "Alt Text Quality Issues",
		Plain:    `Alt text contains problematic patterns: starts with phrases like "image of", is a filename, too long, or all caps.`,
		HowToFix: `Revise alt text. Remove leading phrases like "image of". Keep under 250 characters.`,
		Priority: PriorityModerate,
		Fixable:  Fixable,
	},

	// Links
	{
		RuleID:   "link-url-only-text",
		Title:    "Links Use URLs as Text",
		Plain:    `These links display the full URL (like "http://proxy.lib...") instead of descriptive text. Screen reader users hear the entire URL read aloud.`,
		HowToFix: `In LibGuides editor: Highlight the link → Change the visible text to something descriptive like "View in ProQuest Database" while keeping the URL in the link target.`,
		Priority: PriorityImportant,
		Fixable:  Fixable,
	},
	{
		RuleID:   "link-name",
		Title:    "Links Without Descriptive Text",
		Plain:    `Links need text that describes where they go. Avoid "click here" or "read more".`,
		HowToFix: `Change link text to be specific: "View Chemistry Guide" instead of "click here".`,
		Priority: PriorityImportant,
		Fixable:  Fixable,
	},
	{
		RuleID:   "link-new-window",
		Title:    "Links Open a New Window Without Warning",
		Plain:    "These links open in a new tab or window, which disorients screen reader and keyboard users when they are not told.",
		HowToFix: `In LibGuides editor: Add "(opens in new window)" to the link text, or edit the link and set Target to "Current Window".`,
		Priority: PriorityModerate,
		Fixable:  Fixable,
	},
	{
		RuleID:   "link-not-distinguished",
		Title:    "Links Look Like Regular Text",
		Plain:    "These links have no underline and the same color as the text around them, so users who cannot see color differences cannot find them.",
		HowToFix: "Remove custom styling from the link so the default underline returns, or ask for a template fix at {contact}.",
		Priority: PriorityImportant,
		Fixable:  PartlyFixable,
	},
	{
		RuleID:   "link-in-text-block",
		Title:    "Links Look Like Regular Text",
		Plain:    "Links inside paragraphs must be distinguishable without relying on color.",
		HowToFix: "Remove custom link colors, or ask for a template fix at {contact}.",
		Priority: PriorityImportant,
		Fixable:  PartlyFixable,
	},
	{
		RuleID:   "label-content-name-mismatch",
		Title:    "Button or Link Label Does Not Match Its Text",
		Plain:    "The hidden label read by assistive technology differs from the visible text, so voice control users cannot say what they see.",
		HowToFix: "Edit the HTML of the item and make the aria-label start with the visible text, or remove the aria-label.",
		Priority: PriorityImportant,
		Fixable:  Fixable,
	},

	// Headings
	{
		RuleID:   "empty-heading",
		Title:    "Empty Headings",
		Plain:    "Headings must contain text. Empty headings confuse screen readers.",
		HowToFix: "Add text to the heading or delete it.",
		Priority: PriorityCritical,
		Fixable:  Fixable,
	},
	{
		RuleID:   "empty-heading-image-only",
		Title:    "Headings Containing Only an Image or Icon",
		Plain:    "This heading shows an image or icon but has no text, so screen readers announce an empty heading.",
		HowToFix: "Add heading text next to the image, or give the image alt text and move it out of the heading.",
		Priority: PriorityCritical,
		Fixable:  Fixable,
	},
	{
		RuleID:   "empty-heading-whitespace",
		Title:    "Empty Headings",
		Plain:    "This heading contains only spaces or line breaks.",
		HowToFix: "In LibGuides editor: Open the Source view, find the empty heading tag and delete it or add text.",
		Priority: PriorityCritical,
		Fixable:  Fixable,
	},
	{
		RuleID:   "empty-heading-libguides-box",
		Title:    "Box Without a Title",
		Plain:    "A content box has no name, so its header is an empty heading.",
		HowToFix: "In LibGuides editor: Click the box's Edit (pencil) icon → Name → give the box a short title.",
		Priority: PriorityCritical,
		Fixable:  Fixable,
	},
	{
		RuleID:   "heading-with-link",
		Title:    "Headings That Are Entirely Links",
		Plain:    "The whole heading is a link. Screen reader users browsing by headings hear a link instead of a section title.",
		HowToFix: "Keep the heading as plain text and place the link in the box content below it.",
		Priority: PriorityImportant,
		Fixable:  Fixable,
	},
	{
		RuleID:   "heading-order",
		Title:    "Heading Structure Problems",
		Plain:    "Headings should go in order (H1 → H2 → H3), not skip levels.",
		HowToFix: "Change heading level in editor to correct sequence.",
		Priority: PriorityImportant,
		Fixable:  Fixable,
	},
	{
		RuleID:   "page-has-heading-one",
		Title:    "Missing Main Page Title (H1)",
		Plain:    "Pages should have one H1 heading that describes the main content.",
		HowToFix: "Check that your page title is set. Edit Page → Page Title field.",
		Priority: PriorityImportant,
		Fixable:  Fixable,
	},

	// Forms and controls
	{
		RuleID:   "label",
		Title:    "Form Fields Missing Labels",
		Plain:    "Search boxes and input fields need visible labels so users know what to enter.",
		HowToFix: "Add a text label above the field, or contact {contact} if it's a widget.",
		Priority: PriorityCritical,
		Fixable:  Fixable,
	},
	{
		RuleID:   "button-name",
		Title:    "Buttons Without Labels",
		Plain:    "Buttons need text or labels that describe what they do.",
		HowToFix: "Add text inside the button, or remove empty buttons.",
		Priority: PriorityCritical,
		Fixable:  Fixable,
	},
	{
		RuleID:   "color-contrast",
		Title:    "Text Hard to Read (Low Contrast)",
		Plain:    "Text color doesn't stand out enough from background.",
		HowToFix: "Use darker text colors or default styling.",
		Priority: PriorityImportant,
		Fixable:  Fixable,
	},

	// Tables
	{
		RuleID:   "scope-attr-valid",
		Title:    "Data Cells Using Header Attributes",
		Plain:    "Regular table cells carry scope or headers attributes that only header cells may use.",
		HowToFix: "In LibGuides editor: Select the first row → Table Properties → set Headers to \"First Row\" so those cells become header cells.",
		Priority: PriorityImportant,
		Fixable:  Fixable,
	},
	{
		RuleID:   "td-headers-attr",
		Title:    "Table Cells Point at Missing Headers",
		Plain:    "A cell's headers attribute refers to header cells that do not exist in the table.",
		HowToFix: "Remove the headers attribute and mark the first row as headers in Table Properties.",
		Priority: PriorityImportant,
		Fixable:  Fixable,
	},
	{
		RuleID:   "th-has-data-cells",
		Title:    "Tables Without Header Cells",
		Plain:    "Data tables need header cells so screen readers can announce what each column or row means.",
		HowToFix: `In LibGuides editor: Click in the table → Table Properties → Headers → "First Row".`,
		Priority: PriorityImportant,
		Fixable:  Fixable,
	},
	{
		RuleID:   "table-semantic-markup",
		Title:    "Tables Missing Structure",
		Plain:    "This table has no caption, header section or body section.",
		HowToFix: "In LibGuides editor: Table Properties → add a Caption and set Headers to \"First Row\".",
		Priority: PriorityModerate,
		Fixable:  Fixable,
	},
	{
		RuleID:   "layout-table",
		Title:    "Table Used for Page Layout",
		Plain:    "This table positions content side by side instead of presenting data. Screen readers announce it as a data table.",
		HowToFix: "Use separate boxes or columns for layout instead of a table. If the table must stay, add role=\"presentation\" to it.",
		Priority: PriorityModerate,
		Fixable:  Fixable,
	},

	// Frames and structure
	{
		RuleID:   "frame-title",
		Title:    "Embedded Content Without a Title",
		Plain:    "Embedded videos, maps and forms need a title so screen reader users know what the frame is.",
		HowToFix: `In LibGuides editor: Edit the embed code and add title="Short description" to the <iframe> tag.`,
		Priority: PriorityImportant,
		Fixable:  Fixable,
	},
	{
		RuleID:   "iframe-unique-name",
		Title:    "Embedded Frames Sharing a Name",
		Plain:    "Two or more embedded frames use the same name, so assistive technology cannot tell them apart.",
		HowToFix: "Edit the embed code and give each <iframe> a different name, or remove the name attribute.",
		Priority: PriorityImportant,
		Fixable:  Fixable,
	},
	{
		RuleID:   "duplicate-id",
		Title:    "Repeated Element IDs",
		Plain:    "Several elements share the same id. Labels, skip links and ARIA references may point at the wrong one.",
		HowToFix: "Open the Source view of the affected content and rename the repeated ids, usually left over from copy-pasted content.",
		Priority: PriorityImportant,
		Fixable:  Fixable,
	},
	{
		RuleID:   "empty-container",
		Title:    "Empty Boxes or Sections",
		Plain:    "This box or section has nothing in it. Screen reader users land on an empty region.",
		HowToFix: "Delete the empty box or add content to it.",
		Priority: PriorityModerate,
		Fixable:  Fixable,
	},
	{
		RuleID:   "document-title",
		Title:    "Page Without a Title",
		Plain:    "The page has no title, which is what browser tabs and screen readers announce first.",
		HowToFix: "Edit Page → Page Title field.",
		Priority: PriorityImportant,
		Fixable:  Fixable,
	},
	{
		RuleID:   "html-has-lang",
		Title:    "Page Language Not Set",
		Plain:    "The page does not declare its language, so screen readers may use the wrong pronunciation.",
		HowToFix: "SYSTEM ISSUE: Contact {contact}.",
		Priority: PrioritySystem,
		Fixable:  NotFixable,
	},
	{
		RuleID:   "landmark-one-main",
		Title:    "Multiple Main Content Areas",
		Plain:    `Page has multiple "main" regions. This is usually a LibGuides template issue.`,
		HowToFix: "SYSTEM ISSUE: Contact {contact}.",
		Priority: PrioritySystem,
		Fixable:  NotFixable,
	},
	{
		RuleID:   "landmark-banner-is-top-level",
		Title:    "Banner Structure Issue",
		Plain:    "Page header structure problem - usually a LibGuides system issue.",
		HowToFix: "SYSTEM ISSUE: You can ignore this or contact {contact}.",
		Priority: PrioritySystem,
		Fixable:  NotFixable,
	},
	{
		RuleID:   "region",
		Title:    "Content Not in Proper Sections",
		Plain:    "Some content isn't inside proper page sections.",
		HowToFix: "Put main content in center content boxes. May be partially a template issue.",
		Priority: PriorityMinor,
		Fixable:  PartlyFixable,
	},
}

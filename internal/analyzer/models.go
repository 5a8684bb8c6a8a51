package analyzer

import (
	"fmt"
	"strings"
)

// Severity is the scoring class of a finding.
type Severity int

const (
	SeverityViolation Severity = iota
	SeverityWarning
	SeverityBestPractice
	SeveritySystem
)

func (s Severity) String() string {
	switch s {
	case SeverityViolation:
		return "violation"
	case SeverityWarning:
		return "warning"
	case SeverityBestPractice:
		return "best-practice"
	case SeveritySystem:
		return "system"
	}

	return "unknown"
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// ParseSeverity accepts both the scoring classes and the impact levels
// reported by rule engines (critical, serious, moderate, minor).
func ParseSeverity(raw string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "violation", "critical", "serious":
		return SeverityViolation, nil
	case "warning", "moderate":
		return SeverityWarning, nil
	case "best-practice", "minor":
		return SeverityBestPractice, nil
	case "system":
		return SeveritySystem, nil
	default:
		return 0, fmt.Errorf("unknown severity %q (valid: violation, warning, best-practice, system)", raw)
	}
}

type Source string

const (
	SourceEngine    Source = "engine"
	SourceHeuristic Source = "heuristic"
)

type ElementRef struct {
	Selector string `json:"selector"`
	Snippet  string `json:"snippet"`
}

type Finding struct {
	RuleID      string       `json:"rule_id"`
	Severity    Severity     `json:"severity"`
	Help        string       `json:"help"`
	Description string       `json:"description"`
	Source      Source       `json:"source"`
	Elements    []ElementRef `json:"elements"`
}

type PageDescriptor struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type PageInfo struct {
	Title       string         `json:"title"`
	HTMLVersion string         `json:"html_version"`
	Headings    map[string]int `json:"headings,omitempty"`
}

type ScanResult struct {
	Page     PageDescriptor `json:"page"`
	Findings []Finding      `json:"findings"`
	Error    string         `json:"error,omitempty"`
	Skipped  []string       `json:"skipped,omitempty"`
	Info     *PageInfo      `json:"info,omitempty"`
}

// Failed reports whether the page could not be fetched or parsed.
func (r ScanResult) Failed() bool {
	return r.Error != ""
}

type GuideReport struct {
	ID      string       `json:"id"`
	Pages   []ScanResult `json:"pages"`
	Overall int          `json:"overall"`
	Scored  int          `json:"scored_pages"`
	Failed  int          `json:"failed_pages"`
}

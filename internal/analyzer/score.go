package analyzer

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ScorePolicy holds the deduction tables. Rules declare a severity, the
// policy decides what that severity costs.
type ScorePolicy struct {
	Weights map[Severity]int
	Caps    map[Severity]int
	Floor   int
}

func DefaultScorePolicy() ScorePolicy {
	return ScorePolicy{
		Weights: map[Severity]int{
			SeverityViolation:    10,
			SeverityWarning:      5,
			SeverityBestPractice: 2,
			SeveritySystem:       0,
		},
		Caps: map[Severity]int{
			SeverityViolation:    30,
			SeverityWarning:      20,
			SeverityBestPractice: 10,
			SeveritySystem:       0,
		},
		Floor: 15,
	}
}

// Deductions returns the capped deduction per rule id.
func (p ScorePolicy) Deductions(findings []Finding) map[string]int {
	instances := make(map[string]int)
	severity := make(map[string]Severity)

	for _, f := range findings {
		if _, seen := severity[f.RuleID]; !seen {
			severity[f.RuleID] = f.Severity
		}

		instances[f.RuleID] += len(f.Elements)
	}

	deductions := make(map[string]int, len(instances))
	for ruleID, count := range instances {
		sev := severity[ruleID]
		deductions[ruleID] = min(count*p.Weights[sev], p.Caps[sev])
	}

	return deductions
}

// Score turns findings into a 0-100 quality score clamped at the policy floor.
func (p ScorePolicy) Score(findings []Finding) int {
	score := 100
	for _, d := range p.Deductions(findings) {
		score -= d
	}

	return max(p.Floor, min(score, 100))
}

func Label(score int) string {
	switch {
	case score >= 95:
		return "Excellent"
	case score >= 80:
		return "Good"
	case score >= 60:
		return "Needs Work"
	default:
		return "Poor"
	}
}

// Overall averages the scores of pages that were scanned successfully.
// Failed pages are excluded from the mean and counted separately.
func Overall(results []ScanResult, policy ScorePolicy) (overall, scored, failed int) {
	scores := make([]float64, 0, len(results))

	for _, r := range results {
		if r.Failed() {
			failed++

			continue
		}

		scores = append(scores, float64(policy.Score(r.Findings)))
	}

	if len(scores) == 0 {
		return 0, 0, failed
	}

	return int(math.Floor(stat.Mean(scores, nil))), len(scores), failed
}

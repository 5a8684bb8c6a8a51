package analyzer

// Suppressions lists engine rule ids owned by a finer-grained heuristic.
// It must follow the heuristic set: dropping a heuristic means dropping its entry.
type Suppressions map[string]bool

func DefaultSuppressions() Suppressions {
	return Suppressions{
		// empty-heading-image-only / -whitespace / -libguides-box
		"empty-heading": true,
		// image-no-alt / image-alt-quality
		"image-alt": true,
	}
}

// Aggregate concatenates engine findings and heuristic findings, engine first,
// without deduplication across the two sources.
func Aggregate(external, heuristic []Finding, suppress Suppressions) []Finding {
	merged := make([]Finding, 0, len(external)+len(heuristic))

	for _, f := range external {
		if suppress[f.RuleID] {
			continue
		}

		merged = append(merged, f)
	}

	return append(merged, heuristic...)
}

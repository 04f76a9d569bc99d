package rules

import (
	"github.com/ashita-ai/shinrai/internal/model"
)

// maxActualLen bounds the echoed field value in failure results so a
// pathological payload cannot bloat ledger snapshots.
const maxActualLen = 120

// Evaluate runs the registry's pack for the decision type against the
// submission payload. Results preserve pack order. Pure function: no side
// effects, deterministic for identical inputs.
func Evaluate(reg *Registry, decisionType string, submission map[string]any) []model.RuleResult {
	pack := reg.Pack(decisionType)
	payload := NewPayload(submission)

	results := make([]model.RuleResult, 0, len(pack.Rules))
	for _, rule := range pack.Rules {
		res := model.RuleResult{
			RuleID:   rule.ID,
			Severity: rule.Severity,
			Field:    rule.FieldPath,
			Passed:   rule.Check(payload, rule.FieldPath),
		}
		if !res.Passed {
			res.Message = rule.FailureMessage
			res.Expected = rule.Expected
			if actual := payload.String(rule.FieldPath); actual != "" {
				if len(actual) > maxActualLen {
					actual = actual[:maxActualLen]
				}
				res.Actual = actual
			}
		}
		results = append(results, res)
	}
	return results
}

package rules

import (
	"github.com/ashita-ai/shinrai/internal/model"
)

// Predicate decides whether the submission satisfies one rule. Predicates
// must be total: they return a boolean for any payload shape, including an
// entirely empty map, and never panic.
type Predicate func(p Payload, field string) bool

// Rule is one deterministic validation check over a submission field.
type Rule struct {
	ID             string
	Title          string
	Severity       model.RuleSeverity
	Weight         float64
	FieldPath      string
	Check          Predicate
	FailureMessage string
	// Expected optionally describes the passing condition for display.
	Expected string
}

// RulePack is the ordered rule set for one decision type.
type RulePack struct {
	DecisionType string
	Rules        []Rule
}

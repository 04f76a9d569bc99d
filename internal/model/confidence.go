package model

// RuleSeverity classifies how damaging a rule failure is to confidence.
type RuleSeverity string

const (
	RuleSeverityCritical RuleSeverity = "critical"
	RuleSeverityMedium   RuleSeverity = "medium"
	RuleSeverityLow      RuleSeverity = "low"
)

// ConfidenceBand buckets a score for display and routing.
type ConfidenceBand string

const (
	BandHigh   ConfidenceBand = "high"
	BandMedium ConfidenceBand = "medium"
	BandLow    ConfidenceBand = "low"
)

// RuleResult is the outcome of evaluating one rule against a submission.
// Message, Expected and Actual are populated only for failures.
type RuleResult struct {
	RuleID   string       `json:"rule_id"`
	Passed   bool         `json:"passed"`
	Severity RuleSeverity `json:"severity"`
	Field    string       `json:"field,omitempty"`
	Message  string       `json:"message,omitempty"`
	Expected string       `json:"expected,omitempty"`
	Actual   string       `json:"actual,omitempty"`
}

// ConfidenceResult is the scored outcome of one rule evaluation pass.
// Every point deducted is traceable to an entry in FailedRules.
type ConfidenceResult struct {
	Score       float64        `json:"score"` // 5.0–100.0
	Band        ConfidenceBand `json:"band"`
	RulesTotal  int            `json:"rules_total"`
	RulesPassed int            `json:"rules_passed"`
	RawScore    float64        `json:"raw_score"`             // before caps and floor
	CapApplied  string         `json:"cap_applied,omitempty"` // id of the cap tier that bound, if any
	FailedRules []RuleResult   `json:"failed_rules"`
}

// ExplanationFactor is one contribution in the score reconstruction.
// Factors with nonzero impact sum from a zero baseline to the final score.
type ExplanationFactor struct {
	Factor string  `json:"factor"`
	Impact float64 `json:"impact"`
	Detail string  `json:"detail"`
}

// Explanation is the reviewer-facing account of a computation.
type Explanation struct {
	Factors   []ExplanationFactor `json:"factors"`
	Narrative string              `json:"narrative"`
}

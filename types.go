package shinrai

import (
	"time"

	"github.com/google/uuid"
)

// Public result types. These are standalone structs with no internal
// imports so that embedding consumers never depend on internal packages;
// conversion helpers live in shinrai.go.

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Band buckets a confidence score for display and routing.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// Signal is a typed, timestamped observation about a case.
type Signal struct {
	SignalType   string
	Strength     float64 // 0.0–1.0
	Completeness bool
	SourceType   string
	RecordedAt   time.Time
}

// RuleResult is the outcome of one rule check.
type RuleResult struct {
	RuleID   string `json:"rule_id"`
	Passed   bool   `json:"passed"`
	Severity string `json:"severity"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// Confidence is the scored outcome of a rule evaluation pass.
type Confidence struct {
	Score       float64      `json:"score"`
	Band        Band         `json:"band"`
	RulesTotal  int          `json:"rules_total"`
	RulesPassed int          `json:"rules_passed"`
	RawScore    float64      `json:"raw_score"`
	CapApplied  string       `json:"cap_applied,omitempty"`
	FailedRules []RuleResult `json:"failed_rules"`
}

// Gap is a detected evidentiary shortfall.
type Gap struct {
	GapType           string   `json:"gap_type"`
	Severity          Severity `json:"severity"`
	SignalType        string   `json:"signal_type"`
	Message           string   `json:"message"`
	ExpectedThreshold float64  `json:"expected_threshold"`
}

// BiasFlag is a detected pattern suggesting the evidence base may be
// unreliable.
type BiasFlag struct {
	FlagType        string         `json:"flag_type"`
	Severity        Severity       `json:"severity"`
	Message         string         `json:"message"`
	SuggestedAction string         `json:"suggested_action"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Factor is one contribution in the score reconstruction.
type Factor struct {
	Factor string  `json:"factor"`
	Impact float64 `json:"impact"`
	Detail string  `json:"detail"`
}

// Explanation is the reviewer-facing account of a computation.
type Explanation struct {
	Factors   []Factor `json:"factors"`
	Narrative string   `json:"narrative"`
}

// Result is one complete offline computation.
type Result struct {
	Confidence  Confidence  `json:"confidence"`
	Gaps        []Gap       `json:"gaps"`
	BiasFlags   []BiasFlag  `json:"bias_flags"`
	Explanation Explanation `json:"explanation"`
	InputHash   string      `json:"input_hash"`
}

// ChainEntry is the minimal view of one ledger record needed for chain
// verification.
type ChainEntry struct {
	ID            uuid.UUID
	PreviousRunID *uuid.UUID
	ComputedAt    time.Time
	InputHash     string
}

// ChainReport is the outcome of verifying a hash-linked chain.
type ChainReport struct {
	IsValid         bool        `json:"is_valid"`
	BrokenLinks     []uuid.UUID `json:"broken_links"`
	OrphanedEntries []uuid.UUID `json:"orphaned_entries"`
	ForkedEntries   []uuid.UUID `json:"forked_entries,omitempty"`
	TotalEntries    int         `json:"total_entries"`
	VerifiedEntries int         `json:"verified_entries"`
}

// DuplicateGroup reports entries computed from identical normalized inputs.
type DuplicateGroup struct {
	InputHash  string      `json:"input_hash"`
	Count      int         `json:"count"`
	EntryIDs   []uuid.UUID `json:"entry_ids"`
	Timestamps []time.Time `json:"timestamps"`
}

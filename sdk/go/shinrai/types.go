package shinrai

import (
	"time"

	"github.com/google/uuid"
)

// CaseStatus is the workflow state of a case.
type CaseStatus string

const (
	CaseStatusDraft     CaseStatus = "draft"
	CaseStatusSubmitted CaseStatus = "submitted"
	CaseStatusInReview  CaseStatus = "in_review"
	CaseStatusClosed    CaseStatus = "closed"
)

// UpsertCaseRequest creates or replaces a case.
type UpsertCaseRequest struct {
	DecisionType string         `json:"decision_type"`
	Status       CaseStatus     `json:"status,omitempty"`
	Submission   map[string]any `json:"submission,omitempty"`
}

// Case is the server's view of a case.
type Case struct {
	ID           uuid.UUID      `json:"id"`
	DecisionType string         `json:"decision_type"`
	Status       CaseStatus     `json:"status"`
	Submission   map[string]any `json:"submission"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// SignalInput is one signal in an append request.
type SignalInput struct {
	SignalType   string     `json:"signal_type"`
	Strength     float64    `json:"strength"`
	Completeness bool       `json:"completeness"`
	SourceType   string     `json:"source_type,omitempty"`
	RecordedAt   *time.Time `json:"recorded_at,omitempty"`
}

// Signal is a persisted signal.
type Signal struct {
	ID           uuid.UUID `json:"id"`
	CaseID       uuid.UUID `json:"case_id"`
	SignalType   string    `json:"signal_type"`
	Strength     float64   `json:"strength"`
	Completeness bool      `json:"completeness"`
	SourceType   string    `json:"source_type"`
	RecordedAt   time.Time `json:"recorded_at"`
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
	Band        string       `json:"band"`
	RulesTotal  int          `json:"rules_total"`
	RulesPassed int          `json:"rules_passed"`
	RawScore    float64      `json:"raw_score"`
	CapApplied  string       `json:"cap_applied,omitempty"`
	FailedRules []RuleResult `json:"failed_rules"`
}

// Gap is a detected evidentiary shortfall.
type Gap struct {
	GapType           string  `json:"gap_type"`
	Severity          string  `json:"severity"`
	SignalType        string  `json:"signal_type"`
	Message           string  `json:"message"`
	ExpectedThreshold float64 `json:"expected_threshold"`
}

// BiasFlag is a detected provenance or content pattern.
type BiasFlag struct {
	FlagType        string         `json:"flag_type"`
	Severity        string         `json:"severity"`
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

// IntelligencePayload is the full snapshot of one computation.
type IntelligencePayload struct {
	Confidence  Confidence  `json:"confidence"`
	Gaps        []Gap       `json:"gaps"`
	BiasFlags   []BiasFlag  `json:"bias_flags"`
	Explanation Explanation `json:"explanation"`
}

// Intelligence is the response for the intelligence endpoints.
type Intelligence struct {
	CaseID     uuid.UUID           `json:"case_id"`
	RunID      uuid.UUID           `json:"run_id"`
	ComputedAt time.Time           `json:"computed_at"`
	Cached     bool                `json:"cached"`
	Payload    IntelligencePayload `json:"payload"`
}

// HistoryEntry is one ledger record in an audit export.
type HistoryEntry struct {
	ID            uuid.UUID           `json:"id"`
	CaseID        uuid.UUID           `json:"case_id"`
	ComputedAt    time.Time           `json:"computed_at"`
	Payload       IntelligencePayload `json:"payload"`
	Actor         string              `json:"actor"`
	Reason        string              `json:"reason"`
	TriggeredBy   string              `json:"triggered_by"`
	PreviousRunID *uuid.UUID          `json:"previous_run_id,omitempty"`
	InputHash     string              `json:"input_hash"`
}

// HistorySummary is a lightweight per-entry view without the payload.
type HistorySummary struct {
	ID            uuid.UUID  `json:"id"`
	ComputedAt    time.Time  `json:"computed_at"`
	Score         float64    `json:"score"`
	Band          string     `json:"band"`
	GapCount      int        `json:"gap_count"`
	BiasFlagCount int        `json:"bias_flag_count"`
	Actor         string     `json:"actor"`
	Reason        string     `json:"reason"`
	TriggeredBy   string     `json:"triggered_by"`
	PreviousRunID *uuid.UUID `json:"previous_run_id,omitempty"`
	InputHash     string     `json:"input_hash"`
}

// ChainVerification reports the integrity of a case's audit chain.
type ChainVerification struct {
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

// ExportMetadata describes an audit export.
type ExportMetadata struct {
	CaseID          uuid.UUID `json:"case_id"`
	ExportedAt      time.Time `json:"exported_at"`
	EntryCount      int       `json:"entry_count"`
	Truncated       bool      `json:"truncated"`
	IncludesPayload bool      `json:"includes_payload"`
}

// AuditExport is the full compliance export for one case.
type AuditExport struct {
	Metadata          ExportMetadata    `json:"metadata"`
	IntegrityCheck    ChainVerification `json:"integrity_check"`
	DuplicateAnalysis []DuplicateGroup  `json:"duplicate_analysis"`
	History           []HistoryEntry    `json:"history,omitempty"`
	Summaries         []HistorySummary  `json:"summaries,omitempty"`
}

// HealthResponse is the server health report.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Postgres string `json:"postgres"`
	Uptime   int64  `json:"uptime_seconds"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// IntelligencePayload is the full snapshot persisted with every computation.
type IntelligencePayload struct {
	Confidence  ConfidenceResult `json:"confidence"`
	Gaps        []Gap            `json:"gaps"`
	BiasFlags   []BiasFlag       `json:"bias_flags"`
	Explanation Explanation      `json:"explanation"`
}

// HistoryEntry is one immutable ledger record per computation. Rows are
// never updated or deleted; INSERT is the only write. PreviousRunID links
// each entry to the prior computation for the same case, newest to oldest.
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

// ChainVerification is the diagnostic result of walking a case's audit chain.
/// It is purely a report: verification never mutates the ledger.
type ChainVerification struct {
	IsValid         bool        `json:"is_valid"`
	BrokenLinks     []uuid.UUID `json:"broken_links"`
	OrphanedEntries []uuid.UUID `json:"orphaned_entries"`
	// ForkedEntries lists entries sharing a parent with another entry.
	// Forks arise from concurrent appends and are non-fatal.
	ForkedEntries   []uuid.UUID `json:"forked_entries,omitempty"`
	TotalEntries    int         `json:"total_entries"`
	VerifiedEntries int         `json:"verified_entries"`
}

// DuplicateGroup reports entries recomputed from identical normalized inputs.
type DuplicateGroup struct {
	InputHash  string      `json:"input_hash"`
	Count      int         `json:"count"`
	EntryIDs   []uuid.UUID `json:"entry_ids"`
	Timestamps []time.Time `json:"timestamps"`
}

// AuditExport is the compliance export envelope for one case. Exactly one
// of History or Summaries is populated, depending on include_payload.
type AuditExport struct {
	Metadata          ExportMetadata    `json:"metadata"`
	IntegrityCheck    ChainVerification `json:"integrity_check"`
	DuplicateAnalysis []DuplicateGroup  `json:"duplicate_analysis"`
	History           []HistoryEntry    `json:"history,omitempty"`
	Summaries         []HistorySummary  `json:"summaries,omitempty"`
}

// HistorySummary is a lightweight per-entry view without the payload snapshot.
type HistorySummary struct {
	ID            uuid.UUID      `json:"id"`
	ComputedAt    time.Time      `json:"computed_at"`
	Score         float64        `json:"score"`
	Band          ConfidenceBand `json:"band"`
	GapCount      int            `json:"gap_count"`
	BiasFlagCount int            `json:"bias_flag_count"`
	Actor         string         `json:"actor"`
	Reason        string         `json:"reason"`
	TriggeredBy   string         `json:"triggered_by"`
	PreviousRunID *uuid.UUID     `json:"previous_run_id,omitempty"`
	InputHash     string         `json:"input_hash"`
}

// ExportMetadata describes the export itself.
type ExportMetadata struct {
	CaseID          uuid.UUID `json:"case_id"`
	ExportedAt      time.Time `json:"exported_at"`
	EntryCount      int       `json:"entry_count"`
	Truncated       bool      `json:"truncated"` // true when the entry cap was hit
	IncludesPayload bool      `json:"includes_payload"`
}

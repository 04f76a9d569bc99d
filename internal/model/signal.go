package model

import (
	"time"

	"github.com/google/uuid"
)

// SignalType identifies the kind of observation a signal records.
type SignalType string

const (
	SignalSubmissionPresent  SignalType = "submission_present"
	SignalEvidencePresent    SignalType = "evidence_present"
	SignalIdentityVerified   SignalType = "identity_verified"
	SignalReferencesChecked  SignalType = "references_checked"
	SignalInfoRequestOpen    SignalType = "info_request_open"
	SignalApplicantResponded SignalType = "applicant_responded"
)

// Signal is a typed, timestamped observation about a case. Signals are
// append-style facts produced by upstream collaborators; the engine only
// reads them. Multiple signals of the same type may coexist.
type Signal struct {
	ID           uuid.UUID  `json:"id"`
	CaseID       uuid.UUID  `json:"case_id"`
	SignalType   SignalType `json:"signal_type"`
	Strength     float64    `json:"strength"` // 0.0–1.0
	Completeness bool       `json:"completeness"`
	SourceType   string     `json:"source_type"`
	RecordedAt   time.Time  `json:"recorded_at"`
}

// Expectation is static per-decision-type configuration describing which
// signal should exist and how strong and fresh it must be.
type Expectation struct {
	SignalType  SignalType `json:"signal_type"`
	Required    bool       `json:"required"`
	MinStrength float64    `json:"min_strength"`
	MaxAgeHours float64    `json:"max_age_hours"`
}

// GapType classifies a shortfall between an expectation and the recorded signals.
type GapType string

const (
	GapMissing GapType = "missing"
	GapPartial GapType = "partial"
	GapWeak    GapType = "weak"
	GapStale   GapType = "stale"
)

// Severity is shared by gaps and bias flags.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Gap is a detected evidentiary shortfall. Derived and ephemeral: never
// stored independently, always embedded in a computation payload.
type Gap struct {
	GapType           GapType    `json:"gap_type"`
	Severity          Severity   `json:"severity"`
	SignalType        SignalType `json:"signal_type"`
	Message           string     `json:"message"`
	ExpectedThreshold float64    `json:"expected_threshold"`
}

// BiasFlagType classifies a provenance/content pattern in the signal set.
type BiasFlagType string

const (
	BiasSingleSourceReliance BiasFlagType = "single_source_reliance"
	BiasLowDiversity         BiasFlagType = "low_diversity"
	BiasContradiction        BiasFlagType = "contradiction"
	BiasStaleSignals         BiasFlagType = "stale_signals"
)

// BiasFlag is a detected pattern suggesting the evidence base may be
// unreliable. Derived and ephemeral.
type BiasFlag struct {
	FlagType        BiasFlagType   `json:"flag_type"`
	Severity        Severity       `json:"severity"`
	Message         string         `json:"message"`
	SuggestedAction string         `json:"suggested_action"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

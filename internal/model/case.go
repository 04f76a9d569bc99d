// Package model defines the core domain types for Shinrai.
//
// Types use strong typing (UUIDs, time.Time, enums) and avoid interface{}
// wherever possible. Derived analysis types (Gap, BiasFlag, RuleResult,
// ConfidenceResult) are ephemeral: they are recomputed on every run and only
// persisted as part of a history entry payload snapshot.
package model

import (
	"time"

	"github.com/google/uuid"
)

// CaseStatus represents the workflow state of a case as reported by the
// upstream intake system. The engine reads it but never transitions it.
type CaseStatus string

const (
	CaseStatusDraft     CaseStatus = "draft"
	CaseStatusSubmitted CaseStatus = "submitted"
	CaseStatusInReview  CaseStatus = "in_review"
	CaseStatusClosed    CaseStatus = "closed"
)

// Case is a unit of work under evaluation: a decision type plus the
// submission payload collected by upstream collaborators.
type Case struct {
	ID           uuid.UUID      `json:"id"`
	DecisionType string         `json:"decision_type"`
	Status       CaseStatus     `json:"status"`
	Submission   map[string]any `json:"submission"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Field length limits for intake payloads. These keep caller-controlled
// text from filling Postgres columns with garbage.
const (
	MaxDecisionTypeLen = 200
	MaxSourceTypeLen   = 200
	MaxReasonLen       = 2048
	MaxSubmissionKeys  = 256
)

// APIResponse is the standard response envelope for all HTTP API responses.
type APIResponse struct {
	Data any          `json:"data,omitempty"`
	Meta ResponseMeta `json:"meta"`
}

// APIError is the standard error response envelope.
type APIError struct {
	Error ErrorDetail  `json:"error"`
	Meta  ResponseMeta `json:"meta"`
}

// ResponseMeta contains request metadata included in every response.
type ResponseMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorCode constants for standard API error codes.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// UpsertCaseRequest is the request body for PUT /v1/cases/{case_id}.
type UpsertCaseRequest struct {
	DecisionType string         `json:"decision_type"`
	Status       CaseStatus     `json:"status"`
	Submission   map[string]any `json:"submission"`
}

// Validate checks intake limits on an upsert request.
func (r UpsertCaseRequest) Validate() error {
	if r.DecisionType == "" {
		return fmt.Errorf("decision_type is required")
	}
	if len(r.DecisionType) > MaxDecisionTypeLen {
		return fmt.Errorf("decision_type exceeds maximum length of %d characters", MaxDecisionTypeLen)
	}
	if len(r.Submission) > MaxSubmissionKeys {
		return fmt.Errorf("submission exceeds maximum of %d fields", MaxSubmissionKeys)
	}
	return nil
}

// AppendSignalsRequest is the request body for POST /v1/cases/{case_id}/signals.
type AppendSignalsRequest struct {
	Signals []SignalInput `json:"signals"`
}

// SignalInput is a single signal in an append request.
type SignalInput struct {
	SignalType   SignalType `json:"signal_type"`
	Strength     float64    `json:"strength"`
	Completeness bool       `json:"completeness"`
	SourceType   string     `json:"source_type"`
	RecordedAt   *time.Time `json:"recorded_at,omitempty"`
}

// Validate checks a signal input for range and length violations.
func (s SignalInput) Validate() error {
	if s.SignalType == "" {
		return fmt.Errorf("signal_type is required")
	}
	if s.Strength < 0 || s.Strength > 1 {
		return fmt.Errorf("strength must be in [0,1], got %g", s.Strength)
	}
	if len(s.SourceType) > MaxSourceTypeLen {
		return fmt.Errorf("source_type exceeds maximum length of %d characters", MaxSourceTypeLen)
	}
	return nil
}

// IntelligenceResponse is the response for the intelligence endpoints.
type IntelligenceResponse struct {
	CaseID     uuid.UUID           `json:"case_id"`
	RunID      uuid.UUID           `json:"run_id"`
	ComputedAt time.Time           `json:"computed_at"`
	Cached     bool                `json:"cached"` // served from the ledger without recomputing
	Payload    IntelligencePayload `json:"payload"`
}

// AuthTokenRequest is the request body for POST /auth/token.
type AuthTokenRequest struct {
	AgentID string `json:"agent_id"`
	APIKey  string `json:"api_key"`
}

// AuthTokenResponse is the response for POST /auth/token.
type AuthTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Postgres string `json:"postgres"`
	Uptime   int64  `json:"uptime_seconds"`
}

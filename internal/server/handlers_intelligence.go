package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/ashita-ai/shinrai/internal/model"
	"github.com/ashita-ai/shinrai/internal/ratelimit"
	"github.com/ashita-ai/shinrai/internal/service/intelligence"
)

// cooldownBypassHeader lets operators skip the per-case recompute cooldown
// outside production.
const cooldownBypassHeader = "X-Cooldown-Bypass"

// HandleGetIntelligence handles GET /v1/cases/{case_id}/intelligence.
// Returns the latest persisted computation, computing one on first access.
func (h *Handlers) HandleGetIntelligence(w http.ResponseWriter, r *http.Request) {
	caseID, ok := parseCaseID(w, r)
	if !ok {
		return
	}

	resp, err := h.intel.GetOrCompute(r.Context(), caseID, r.URL.Query().Get("decision_type"), actorFromContext(r))
	if err != nil {
		h.writeIntelError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// recomputeRequest is the optional body for the recompute endpoint.
type recomputeRequest struct {
	Reason string `json:"reason"`
}

// HandleRecompute handles POST /v1/cases/{case_id}/intelligence/recompute.
// Forces a fresh computation and ledger append.
func (h *Handlers) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	caseID, ok := parseCaseID(w, r)
	if !ok {
		return
	}

	var req recomputeRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid request body")
			return
		}
	}
	if len(req.Reason) > model.MaxReasonLen {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "reason exceeds maximum length")
		return
	}

	if !h.cooldownBypassed(r) {
		rule := ratelimit.Rule{Prefix: "recompute", Limit: 1, Window: h.cfg.RecomputeCooldown}
		if res := h.limiter.Allow(rule, caseID.String()); !res.Allowed {
			w.Header().Set("Retry-After", res.ResetAt.UTC().Format(http.TimeFormat))
			writeError(w, r, http.StatusTooManyRequests, model.ErrCodeRateLimited, "recompute cooldown in effect for this case")
			return
		}
	}

	resp, err := h.intel.Recompute(r.Context(), caseID, r.URL.Query().Get("decision_type"), actorFromContext(r), req.Reason)
	if err != nil {
		h.writeIntelError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handlers) cooldownBypassed(r *http.Request) bool {
	return !h.cfg.IsProduction() && r.Header.Get(cooldownBypassHeader) == "true"
}

func (h *Handlers) writeIntelError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, intelligence.ErrCaseNotFound) {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "case not found")
		return
	}
	h.logger.Error("intelligence request failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
}

func parseCaseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("case_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "case_id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func actorFromContext(r *http.Request) string {
	if claims := ClaimsFromContext(r.Context()); claims != nil {
		return claims.AgentID
	}
	return "unknown"
}

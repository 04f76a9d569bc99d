package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ashita-ai/shinrai/internal/model"
	"github.com/ashita-ai/shinrai/internal/storage"
)

// HandleUpsertCase handles PUT /v1/cases/{case_id}. Creates or replaces a
// case's decision type, status, and submission.
func (h *Handlers) HandleUpsertCase(w http.ResponseWriter, r *http.Request) {
	caseID, ok := parseCaseID(w, r)
	if !ok {
		return
	}

	var req model.UpsertCaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid request body")
		return
	}
	if req.Status == "" {
		req.Status = model.CaseStatusDraft
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	c, err := h.db.UpsertCase(r.Context(), caseID, req)
	if err != nil {
		h.logger.Error("case upsert failed", "error", err, "case_id", caseID)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
		return
	}

	h.logger.Info("case upserted",
		"case_id", c.ID,
		"decision_type", c.DecisionType,
		"status", c.Status,
		"actor", actorFromContext(r),
	)
	writeJSON(w, r, http.StatusOK, c)
}

// HandleAppendSignals handles POST /v1/cases/{case_id}/signals. Appends
// signals to a case; existing signals are never modified.
func (h *Handlers) HandleAppendSignals(w http.ResponseWriter, r *http.Request) {
	caseID, ok := parseCaseID(w, r)
	if !ok {
		return
	}

	var req model.AppendSignalsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid request body")
		return
	}
	if len(req.Signals) == 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "at least one signal is required")
		return
	}
	for i, sig := range req.Signals {
		if err := sig.Validate(); err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput,
				fmt.Sprintf("signal %d: %v", i, err))
			return
		}
	}

	if _, err := h.db.GetCase(r.Context(), caseID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "case not found")
			return
		}
		h.logger.Error("case lookup failed", "error", err, "case_id", caseID)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
		return
	}

	signals, err := h.db.AppendSignals(r.Context(), caseID, req.Signals)
	if err != nil {
		h.logger.Error("signal append failed", "error", err, "case_id", caseID)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
		return
	}

	h.logger.Info("signals appended",
		"case_id", caseID,
		"count", len(signals),
		"actor", actorFromContext(r),
	)
	writeJSON(w, r, http.StatusCreated, signals)
}

package server

import (
	"errors"
	"net/http"

	"github.com/ashita-ai/shinrai/internal/model"
	"github.com/ashita-ai/shinrai/internal/service/audit"
)

// HandleAuditExport handles GET /v1/cases/{case_id}/audit/export.
// Returns the case's complete history with chain verification results.
// The include_payload query parameter (default true) controls whether full
// computation payloads or summaries are returned.
func (h *Handlers) HandleAuditExport(w http.ResponseWriter, r *http.Request) {
	caseID, ok := parseCaseID(w, r)
	if !ok {
		return
	}

	includePayload := true
	switch r.URL.Query().Get("include_payload") {
	case "", "true":
	case "false":
		includePayload = false
	default:
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "include_payload must be true or false")
		return
	}

	export, err := h.audit.Export(r.Context(), caseID, includePayload)
	if err != nil {
		if errors.Is(err, audit.ErrCaseNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "case not found")
			return
		}
		h.logger.Error("audit export failed", "error", err, "case_id", caseID,
			"request_id", RequestIDFromContext(r.Context()))
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, export)
}

package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashita-ai/shinrai/api"
	"github.com/ashita-ai/shinrai/internal/auth"
	"github.com/ashita-ai/shinrai/internal/config"
	"github.com/ashita-ai/shinrai/internal/model"
	"github.com/ashita-ai/shinrai/internal/ratelimit"
	"github.com/ashita-ai/shinrai/internal/service/audit"
	"github.com/ashita-ai/shinrai/internal/service/intelligence"
	"github.com/ashita-ai/shinrai/internal/storage"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db        *storage.DB
	intel     *intelligence.Service
	audit     *audit.Service
	jwtMgr    *auth.JWTManager
	limiter   *ratelimit.Limiter
	cfg       config.Config
	logger    *slog.Logger
	version   string
	startTime time.Time
}

// NewHandlers creates a Handlers with all dependencies.
func NewHandlers(
	db *storage.DB,
	intel *intelligence.Service,
	auditSvc *audit.Service,
	jwtMgr *auth.JWTManager,
	limiter *ratelimit.Limiter,
	cfg config.Config,
	logger *slog.Logger,
	version string,
) *Handlers {
	return &Handlers{
		db:        db,
		intel:     intel,
		audit:     auditSvc,
		jwtMgr:    jwtMgr,
		limiter:   limiter,
		cfg:       cfg,
		logger:    logger,
		version:   version,
		startTime: time.Now(),
	}
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	pgStatus := "ok"
	status := "healthy"
	if err := h.db.Ping(r.Context()); err != nil {
		pgStatus = "unreachable"
		status = "degraded"
	}

	resp := model.HealthResponse{
		Status:   status,
		Version:  h.version,
		Postgres: pgStatus,
		Uptime:   int64(time.Since(h.startTime).Seconds()),
	}
	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, resp)
}

// HandleOpenAPISpec handles GET /openapi.yaml.
func (h *Handlers) HandleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(api.OpenAPISpec)
}

// HandleAuthToken handles POST /auth/token. Exchanges an agent API key for
// a short-lived JWT.
func (h *Handlers) HandleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req model.AuthTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid request body")
		return
	}
	if req.AgentID == "" || req.APIKey == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "agent_id and api_key are required")
		return
	}

	agent, err := h.db.GetAgentByAgentID(r.Context(), req.AgentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Burn comparable time so lookups can't distinguish
			// unknown agents from bad keys.
			auth.DummyVerify()
			writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("agent lookup failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
		return
	}

	ok, err := auth.VerifyAPIKey(req.APIKey, agent.APIKeyHash)
	if err != nil || !ok {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.jwtMgr.GenerateToken(agent.AgentID, agent.Role)
	if err != nil {
		h.logger.Error("token generation failed", "error", err, "agent_id", agent.AgentID)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, model.AuthTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

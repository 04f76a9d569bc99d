package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashita-ai/shinrai/internal/auth"
	"github.com/ashita-ai/shinrai/internal/config"
	"github.com/ashita-ai/shinrai/internal/model"
	"github.com/ashita-ai/shinrai/internal/ratelimit"
)

// Rate limit rules per endpoint class.
var (
	authTokenRule = ratelimit.Rule{Prefix: "auth", Limit: 10, Window: time.Minute}
	apiRule       = ratelimit.Rule{Prefix: "api", Limit: 300, Window: time.Minute}
)

// Server is the HTTP server for the Shinrai API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes and middleware wired.
// mcpHandler may be nil, in which case the /mcp route is not registered.
func New(
	cfg config.Config,
	handlers *Handlers,
	jwtMgr *auth.JWTManager,
	limiter *ratelimit.Limiter,
	mcpHandler http.Handler,
	logger *slog.Logger,
) *Server {
	mux := http.NewServeMux()

	reqID := func(r *http.Request) string { return RequestIDFromContext(r.Context()) }
	authLimit := ratelimit.Middleware(limiter, authTokenRule, ratelimit.IPKeyFunc, reqID)
	apiLimit := ratelimit.Middleware(limiter, apiRule, agentKeyFunc, reqID)

	reader := requireRole(model.RoleReader)
	operator := requireRole(model.RoleOperator)
	admin := requireRole(model.RoleAdmin)

	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.HandleFunc("GET /openapi.yaml", handlers.HandleOpenAPISpec)
	mux.Handle("POST /auth/token", authLimit(http.HandlerFunc(handlers.HandleAuthToken)))

	mux.Handle("GET /v1/cases/{case_id}/intelligence",
		apiLimit(reader(http.HandlerFunc(handlers.HandleGetIntelligence))))
	mux.Handle("POST /v1/cases/{case_id}/intelligence/recompute",
		apiLimit(operator(http.HandlerFunc(handlers.HandleRecompute))))
	mux.Handle("GET /v1/cases/{case_id}/audit/export",
		apiLimit(reader(http.HandlerFunc(handlers.HandleAuditExport))))

	mux.Handle("PUT /v1/cases/{case_id}",
		apiLimit(admin(http.HandlerFunc(handlers.HandleUpsertCase))))
	mux.Handle("POST /v1/cases/{case_id}/signals",
		apiLimit(admin(http.HandlerFunc(handlers.HandleAppendSignals))))

	if mcpHandler != nil {
		mux.Handle("/mcp", reader(mcpHandler))
	}

	var handler http.Handler = mux
	handler = http.MaxBytesHandler(handler, cfg.MaxRequestBodyBytes)
	handler = recoveryMiddleware(logger, handler)
	handler = authMiddleware(jwtMgr, handler)
	handler = loggingMiddleware(logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger,
	}
}

// agentKeyFunc keys API rate limits by authenticated agent, falling back to
// client IP for requests that reach the limiter without claims.
func agentKeyFunc(r *http.Request) string {
	if claims := ClaimsFromContext(r.Context()); claims != nil {
		return claims.AgentID
	}
	return ratelimit.IPKeyFunc(r)
}

// Start begins listening for requests. Blocks until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ashita-ai/shinrai/internal/auth"
	"github.com/ashita-ai/shinrai/internal/config"
	"github.com/ashita-ai/shinrai/internal/gaps"
	"github.com/ashita-ai/shinrai/internal/mcp"
	"github.com/ashita-ai/shinrai/internal/ratelimit"
	"github.com/ashita-ai/shinrai/internal/rules"
	"github.com/ashita-ai/shinrai/internal/server"
	"github.com/ashita-ai/shinrai/internal/service/audit"
	"github.com/ashita-ai/shinrai/internal/service/intelligence"
	"github.com/ashita-ai/shinrai/internal/storage"
	"github.com/ashita-ai/shinrai/internal/telemetry"
	"github.com/ashita-ai/shinrai/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("SHINRAI_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("shinrai starting", "version", version, "port", cfg.Port, "environment", cfg.Environment)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Connect to database.
	db, err := storage.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer db.Close()

	// Run embedded migrations. RunMigrations tracks applied files in
	// schema_migrations and skips duplicates, so errors here indicate real
	// failures.
	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// Seed the admin agent from config.
	if cfg.AdminAPIKey != "" {
		hash, err := auth.HashAPIKey(cfg.AdminAPIKey)
		if err != nil {
			return fmt.Errorf("hash admin key: %w", err)
		}
		if err := db.SeedAdmin(ctx, hash); err != nil {
			slog.Warn("admin seed failed", "error", err)
		}
	}

	// Create JWT manager.
	jwtMgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	// Create services (shared by HTTP and MCP handlers).
	intelSvc := intelligence.New(db, rules.DefaultRegistry(), gaps.DefaultRegistry(), logger)
	auditSvc := audit.New(db, logger)

	// Create MCP server.
	mcpSrv := mcp.New(intelSvc, auditSvc, logger)

	// Create rate limiter (auth brute-force, API quota, recompute cooldown).
	limiter := ratelimit.New()
	defer func() { _ = limiter.Close() }()

	handlers := server.NewHandlers(db, intelSvc, auditSvc, jwtMgr, limiter, cfg, logger, version)
	srv := server.New(cfg, handlers, jwtMgr, limiter, mcpSrv.Handler(), logger)

	// Start background audit chain verification.
	go integritySweepLoop(ctx, db, auditSvc, logger, cfg.IntegritySweepInterval)

	// Start HTTP server in background.
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	slog.Info("shinrai shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("shinrai stopped")
	return nil
}

// integritySweepLoop periodically verifies the audit chains of recently
// active cases. Findings are logged only; the ledger is never mutated.
func integritySweepLoop(ctx context.Context, db *storage.DB, auditSvc *audit.Service, logger *slog.Logger, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepIntegrity(ctx, db, auditSvc, logger, interval)
		}
	}
}

func sweepIntegrity(ctx context.Context, db *storage.DB, auditSvc *audit.Service, logger *slog.Logger, window time.Duration) {
	caseIDs, err := db.RecentlyActiveCases(ctx, time.Now().Add(-2*window), 100)
	if err != nil {
		logger.Warn("integrity sweep: list cases failed", "error", err)
		return
	}

	invalid := 0
	for _, id := range caseIDs {
		export, err := auditSvc.Export(ctx, id, false)
		if err != nil {
			logger.Warn("integrity sweep: verification failed", "error", err, "case_id", id)
			continue
		}
		if !export.IntegrityCheck.IsValid {
			invalid++
			logger.Error("integrity sweep: invalid audit chain",
				"case_id", id,
				"broken_links", len(export.IntegrityCheck.BrokenLinks),
				"orphaned_entries", len(export.IntegrityCheck.OrphanedEntries),
			)
		}
	}

	if len(caseIDs) > 0 {
		logger.Info("integrity sweep complete", "cases", len(caseIDs), "invalid", invalid)
	}
}

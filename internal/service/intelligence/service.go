// Package intelligence provides the shared compute-and-persist logic for
// case confidence runs.
//
// Both the HTTP API and MCP server delegate to this service, ensuring
// consistent behavior (rule evaluation, scoring, gap/bias detection,
// explanation, ledger append) across all interfaces.
package intelligence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ashita-ai/shinrai/internal/bias"
	"github.com/ashita-ai/shinrai/internal/explain"
	"github.com/ashita-ai/shinrai/internal/gaps"
	"github.com/ashita-ai/shinrai/internal/integrity"
	"github.com/ashita-ai/shinrai/internal/model"
	"github.com/ashita-ai/shinrai/internal/rules"
	"github.com/ashita-ai/shinrai/internal/scoring"
	"github.com/ashita-ai/shinrai/internal/storage"
	"github.com/ashita-ai/shinrai/internal/telemetry"
)

// ErrCaseNotFound is returned when the requested case does not exist.
// No partial computation occurs in that case.
var ErrCaseNotFound = errors.New("intelligence: case not found")

// Store is the persistence surface the service needs. *storage.DB satisfies
// it; tests substitute an in-memory ledger.
type Store interface {
	GetCase(ctx context.Context, id uuid.UUID) (model.Case, error)
	ListSignals(ctx context.Context, caseID uuid.UUID) ([]model.Signal, error)
	LatestHistory(ctx context.Context, caseID uuid.UUID) (model.HistoryEntry, error)
	AppendHistory(ctx context.Context, p storage.AppendHistoryParams) (model.HistoryEntry, error)
}

// Service runs the full computation pipeline and appends one ledger entry
// per run. All evaluators it calls are pure; the only writes are the single
// history append per compute call.
type Service struct {
	store   Store
	ruleReg *rules.Registry
	gapReg  *gaps.Registry
	logger  *slog.Logger
	now     func() time.Time

	computeDuration metric.Float64Histogram
	computeCount    metric.Int64Counter
}

// New creates an intelligence Service.
func New(store Store, ruleReg *rules.Registry, gapReg *gaps.Registry, logger *slog.Logger) *Service {
	meter := telemetry.Meter("shinrai/intelligence")
	dur, _ := meter.Float64Histogram("shinrai.compute.duration",
		metric.WithDescription("Time to run one confidence computation (ms)"),
		metric.WithUnit("ms"),
	)
	count, _ := meter.Int64Counter("shinrai.compute.count",
		metric.WithDescription("Confidence computations by band"),
	)
	return &Service{
		store:           store,
		ruleReg:         ruleReg,
		gapReg:          gapReg,
		logger:          logger,
		now:             time.Now,
		computeDuration: dur,
		computeCount:    count,
	}
}

// GetOrCompute returns the latest persisted computation for a case, or
// computes and persists one when the case has no history yet.
func (s *Service) GetOrCompute(ctx context.Context, caseID uuid.UUID, decisionType, actor string) (model.IntelligenceResponse, error) {
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return model.IntelligenceResponse{}, err
	}

	latest, err := s.store.LatestHistory(ctx, caseID)
	if err == nil {
		return model.IntelligenceResponse{
			CaseID:     caseID,
			RunID:      latest.ID,
			ComputedAt: latest.ComputedAt,
			Cached:     true,
			Payload:    latest.Payload,
		}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return model.IntelligenceResponse{}, fmt.Errorf("intelligence: load latest: %w", err)
	}

	return s.compute(ctx, c, decisionType, actor, "initial computation", "get")
}

// Recompute forces a fresh computation and ledger append, regardless of
// existing history.
func (s *Service) Recompute(ctx context.Context, caseID uuid.UUID, decisionType, actor, reason string) (model.IntelligenceResponse, error) {
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return model.IntelligenceResponse{}, err
	}
	if reason == "" {
		reason = "manual recompute"
	}
	return s.compute(ctx, c, decisionType, actor, reason, "recompute")
}

func (s *Service) loadCase(ctx context.Context, caseID uuid.UUID) (model.Case, error) {
	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Case{}, ErrCaseNotFound
		}
		return model.Case{}, fmt.Errorf("intelligence: load case: %w", err)
	}
	return c, nil
}

// compute runs the pipeline: rules → score → gaps → bias → explanation →
// ledger append. The append is the only side effect; a storage failure
// there is fatal for the call (nothing was persisted).
func (s *Service) compute(ctx context.Context, c model.Case, decisionType, actor, reason, trigger string) (model.IntelligenceResponse, error) {
	start := s.now()
	if decisionType == "" {
		decisionType = c.DecisionType
	}

	signals, err := s.store.ListSignals(ctx, c.ID)
	if err != nil {
		return model.IntelligenceResponse{}, fmt.Errorf("intelligence: load signals: %w", err)
	}

	now := s.now()
	results := rules.Evaluate(s.ruleReg, decisionType, c.Submission)
	conf := scoring.Score(results)
	gapList := gaps.Detect(s.gapReg, decisionType, signals, now)
	flags := bias.Detect(signals, now)
	explanation := explain.Build(conf, gapList, flags)

	payload := model.IntelligencePayload{
		Confidence:  conf,
		Gaps:        gapList,
		BiasFlags:   flags,
		Explanation: explanation,
	}

	entry, err := s.store.AppendHistory(ctx, storage.AppendHistoryParams{
		CaseID:      c.ID,
		Payload:     payload,
		Actor:       actor,
		Reason:      reason,
		TriggeredBy: trigger,
		InputHash:   integrity.ComputeInputHash(string(c.Status), c.Submission),
	})
	if err != nil {
		return model.IntelligenceResponse{}, fmt.Errorf("intelligence: append history: %w", err)
	}

	attrs := metric.WithAttributes(
		attribute.String("decision_type", decisionType),
		attribute.String("band", string(conf.Band)),
	)
	s.computeDuration.Record(ctx, float64(s.now().Sub(start).Milliseconds()), attrs)
	s.computeCount.Add(ctx, 1, attrs)

	s.logger.Info("confidence computed",
		"case_id", c.ID,
		"decision_type", decisionType,
		"score", conf.Score,
		"band", conf.Band,
		"gaps", len(gapList),
		"bias_flags", len(flags),
		"run_id", entry.ID,
	)

	return model.IntelligenceResponse{
		CaseID:     c.ID,
		RunID:      entry.ID,
		ComputedAt: entry.ComputedAt,
		Cached:     false,
		Payload:    payload,
	}, nil
}

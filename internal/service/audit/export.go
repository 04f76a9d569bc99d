// Package audit assembles compliance exports over the intelligence ledger.
// Read-only: nothing here ever writes to storage.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ashita-ai/shinrai/internal/integrity"
	"github.com/ashita-ai/shinrai/internal/model"
	"github.com/ashita-ai/shinrai/internal/storage"
)

// ExportEntryCap bounds how many ledger entries one export returns.
const ExportEntryCap = 1000

// ErrCaseNotFound is returned when the requested case does not exist.
var ErrCaseNotFound = errors.New("audit: case not found")

// Store is the read surface the export service needs.
type Store interface {
	GetCase(ctx context.Context, id uuid.UUID) (model.Case, error)
	ListHistory(ctx context.Context, caseID uuid.UUID, limit int) ([]model.HistoryEntry, error)
	CountHistory(ctx context.Context, caseID uuid.UUID) (int, error)
}

// Service builds audit exports.
type Service struct {
	store  Store
	logger *slog.Logger
}

// New creates an audit export Service.
func New(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Export returns a case's ledger with integrity and duplicate analysis.
// Integrity violations are findings inside the export, never errors: the
// export succeeds even for a tampered chain. With includePayload false the
// per-entry snapshots are replaced by lightweight summaries.
func (s *Service) Export(ctx context.Context, caseID uuid.UUID, includePayload bool) (model.AuditExport, error) {
	if _, err := s.store.GetCase(ctx, caseID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.AuditExport{}, ErrCaseNotFound
		}
		return model.AuditExport{}, fmt.Errorf("audit: load case: %w", err)
	}

	var (
		entries []model.HistoryEntry
		total   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.store.ListHistory(gctx, caseID, ExportEntryCap)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountHistory(gctx, caseID)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.AuditExport{}, fmt.Errorf("audit: load history: %w", err)
	}

	export := model.AuditExport{
		Metadata: model.ExportMetadata{
			CaseID:          caseID,
			ExportedAt:      time.Now().UTC(),
			EntryCount:      len(entries),
			Truncated:       total > len(entries),
			IncludesPayload: includePayload,
		},
		IntegrityCheck:    integrity.VerifyChain(entries),
		DuplicateAnalysis: integrity.FindDuplicates(entries),
	}

	if includePayload {
		export.History = entries
	} else {
		export.Summaries = summarize(entries)
	}

	if !export.IntegrityCheck.IsValid {
		s.logger.Warn("audit export found integrity violations",
			"case_id", caseID,
			"broken_links", len(export.IntegrityCheck.BrokenLinks),
			"orphaned_entries", len(export.IntegrityCheck.OrphanedEntries),
		)
	}
	return export, nil
}

func summarize(entries []model.HistoryEntry) []model.HistorySummary {
	summaries := make([]model.HistorySummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, model.HistorySummary{
			ID:            e.ID,
			ComputedAt:    e.ComputedAt,
			Score:         e.Payload.Confidence.Score,
			Band:          e.Payload.Confidence.Band,
			GapCount:      len(e.Payload.Gaps),
			BiasFlagCount: len(e.Payload.BiasFlags),
			Actor:         e.Actor,
			Reason:        e.Reason,
			TriggeredBy:   e.TriggeredBy,
			PreviousRunID: e.PreviousRunID,
			InputHash:     e.InputHash,
		})
	}
	return summaries
}

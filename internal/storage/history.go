package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ashita-ai/shinrai/internal/model"
)

// AppendHistoryParams carries one ledger append. PreviousRunID, when nil,
// is resolved inside the INSERT to the case's latest entry at insert time.
type AppendHistoryParams struct {
	CaseID        uuid.UUID
	Payload       model.IntelligencePayload
	Actor         string
	Reason        string
	TriggeredBy   string
	InputHash     string
	PreviousRunID *uuid.UUID
}

// AppendHistory inserts one immutable history entry and returns it. This is
// the only write operation on intelligence_history: the append-only
// invariant holds by construction, not by database permission.
//
// The previous_run_id subselect takes no lock, so two concurrent appends may
// both resolve the same parent. That benign fork is tolerated and surfaced
// by the integrity verifier rather than prevented here.
func (db *DB) AppendHistory(ctx context.Context, p AppendHistoryParams) (model.HistoryEntry, error) {
	e := model.HistoryEntry{
		ID:            uuid.New(),
		CaseID:        p.CaseID,
		ComputedAt:    time.Now().UTC(),
		Payload:       p.Payload,
		Actor:         p.Actor,
		Reason:        p.Reason,
		TriggeredBy:   p.TriggeredBy,
		InputHash:     p.InputHash,
		PreviousRunID: p.PreviousRunID,
	}

	err := WithRetry(ctx, 3, 50*time.Millisecond, func() error {
		return db.pool.QueryRow(ctx,
			`INSERT INTO intelligence_history
			     (id, case_id, computed_at, payload, actor, reason, triggered_by, input_hash, previous_run_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9,
			     (SELECT id FROM intelligence_history
			      WHERE case_id = $2
			      ORDER BY computed_at DESC, id DESC
			      LIMIT 1)))
			 RETURNING previous_run_id`,
			e.ID, e.CaseID, e.ComputedAt, e.Payload, e.Actor, e.Reason, e.TriggeredBy, e.InputHash, p.PreviousRunID,
		).Scan(&e.PreviousRunID)
	})
	if err != nil {
		return model.HistoryEntry{}, fmt.Errorf("storage: append history: %w", err)
	}
	return e, nil
}

// LatestHistory returns the most recent history entry for a case.
// Returns ErrNotFound when the case has no computations yet.
func (db *DB) LatestHistory(ctx context.Context, caseID uuid.UUID) (model.HistoryEntry, error) {
	var e model.HistoryEntry
	err := db.pool.QueryRow(ctx,
		`SELECT id, case_id, computed_at, payload, actor, reason, triggered_by, input_hash, previous_run_id
		 FROM intelligence_history
		 WHERE case_id = $1
		 ORDER BY computed_at DESC, id DESC
		 LIMIT 1`, caseID,
	).Scan(&e.ID, &e.CaseID, &e.ComputedAt, &e.Payload, &e.Actor, &e.Reason, &e.TriggeredBy, &e.InputHash, &e.PreviousRunID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.HistoryEntry{}, ErrNotFound
		}
		return model.HistoryEntry{}, fmt.Errorf("storage: latest history: %w", err)
	}
	return e, nil
}

// ListHistory returns up to limit history entries for a case, newest first.
func (db *DB) ListHistory(ctx context.Context, caseID uuid.UUID, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, case_id, computed_at, payload, actor, reason, triggered_by, input_hash, previous_run_id
		 FROM intelligence_history
		 WHERE case_id = $1
		 ORDER BY computed_at DESC, id DESC
		 LIMIT $2`, caseID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ID, &e.CaseID, &e.ComputedAt, &e.Payload, &e.Actor, &e.Reason, &e.TriggeredBy, &e.InputHash, &e.PreviousRunID); err != nil {
			return nil, fmt.Errorf("storage: scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecentlyActiveCases returns case IDs with at least one computation since
// the given time, most recently active first. Used by the background
// integrity sweep.
func (db *DB) RecentlyActiveCases(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.pool.Query(ctx,
		`SELECT case_id
		 FROM intelligence_history
		 WHERE computed_at >= $1
		 GROUP BY case_id
		 ORDER BY MAX(computed_at) DESC
		 LIMIT $2`, since.UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: recently active cases: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: scan case id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountHistory returns the number of history entries for a case.
func (db *DB) CountHistory(ctx context.Context, caseID uuid.UUID) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM intelligence_history WHERE case_id = $1`, caseID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("storage: count history: %w", err)
	}
	return n, nil
}

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

// UpsertCase inserts or replaces a case's decision type, status, and
// submission payload. Intake is idempotent: the upstream workflow re-sends
// the full case state on every change.
func (db *DB) UpsertCase(ctx context.Context, id uuid.UUID, req model.UpsertCaseRequest) (model.Case, error) {
	now := time.Now().UTC()
	c := model.Case{
		ID:           id,
		DecisionType: req.DecisionType,
		Status:       req.Status,
		Submission:   req.Submission,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if c.Submission == nil {
		c.Submission = map[string]any{}
	}
	if c.Status == "" {
		c.Status = model.CaseStatusDraft
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO cases (id, decision_type, status, submission, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET decision_type = EXCLUDED.decision_type,
		     status = EXCLUDED.status,
		     submission = EXCLUDED.submission,
		     updated_at = EXCLUDED.updated_at
		 RETURNING created_at`,
		c.ID, c.DecisionType, string(c.Status), c.Submission, now,
	).Scan(&c.CreatedAt)
	if err != nil {
		return model.Case{}, fmt.Errorf("storage: upsert case: %w", err)
	}
	return c, nil
}

// GetCase retrieves a case by ID. Returns ErrNotFound when absent.
func (db *DB) GetCase(ctx context.Context, id uuid.UUID) (model.Case, error) {
	var c model.Case
	err := db.pool.QueryRow(ctx,
		`SELECT id, decision_type, status, submission, created_at, updated_at
		 FROM cases WHERE id = $1`, id,
	).Scan(&c.ID, &c.DecisionType, &c.Status, &c.Submission, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Case{}, ErrNotFound
		}
		return model.Case{}, fmt.Errorf("storage: get case: %w", err)
	}
	return c, nil
}

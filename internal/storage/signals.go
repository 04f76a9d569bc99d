package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/shinrai/internal/model"
)

// AppendSignals inserts signals for a case and returns them with assigned
// IDs. Signals are append-style facts: there is no update path.
func (db *DB) AppendSignals(ctx context.Context, caseID uuid.UUID, inputs []model.SignalInput) ([]model.Signal, error) {
	now := time.Now().UTC()
	signals := make([]model.Signal, 0, len(inputs))

	for _, in := range inputs {
		s := model.Signal{
			ID:           uuid.New(),
			CaseID:       caseID,
			SignalType:   in.SignalType,
			Strength:     in.Strength,
			Completeness: in.Completeness,
			SourceType:   in.SourceType,
			RecordedAt:   now,
		}
		if in.RecordedAt != nil {
			s.RecordedAt = in.RecordedAt.UTC()
		}

		_, err := db.pool.Exec(ctx,
			`INSERT INTO case_signals (id, case_id, signal_type, strength, completeness, source_type, recorded_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			s.ID, s.CaseID, string(s.SignalType), s.Strength, s.Completeness, s.SourceType, s.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("storage: append signal: %w", err)
		}
		signals = append(signals, s)
	}
	return signals, nil
}

// ListSignals returns all signals for a case, oldest first.
func (db *DB) ListSignals(ctx context.Context, caseID uuid.UUID) ([]model.Signal, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, case_id, signal_type, strength, completeness, source_type, recorded_at
		 FROM case_signals WHERE case_id = $1
		 ORDER BY recorded_at ASC, id ASC`, caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list signals: %w", err)
	}
	defer rows.Close()

	var signals []model.Signal
	for rows.Next() {
		var s model.Signal
		if err := rows.Scan(&s.ID, &s.CaseID, &s.SignalType, &s.Strength, &s.Completeness, &s.SourceType, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("storage: scan signal: %w", err)
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

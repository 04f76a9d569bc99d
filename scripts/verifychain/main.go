// Command verifychain walks the audit chain for one case, or for every case
// with history, and reports integrity findings. Read-only: it never mutates
// the ledger.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./scripts/verifychain [case_id]
//
// With a case_id argument it prints the full verification report for that
// case. Without one it sweeps all cases and prints a one-line verdict each,
// exiting nonzero if any chain is invalid.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/ashita-ai/shinrai/internal/integrity"
	"github.com/ashita-ai/shinrai/internal/model"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	if len(os.Args) > 1 {
		caseID, err := uuid.Parse(os.Args[1])
		if err != nil {
			return fmt.Errorf("invalid case_id %q: %w", os.Args[1], err)
		}
		return verifyOne(ctx, pool, caseID)
	}
	return verifyAll(ctx, pool)
}

func verifyOne(ctx context.Context, pool *pgxpool.Pool, caseID uuid.UUID) error {
	entries, err := loadEntries(ctx, pool, caseID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("case %s has no history", caseID)
	}

	report := integrity.VerifyChain(entries)
	out, err := json.MarshalIndent(map[string]any{
		"case_id":    caseID,
		"integrity":  report,
		"duplicates": integrity.FindDuplicates(entries),
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !report.IsValid {
		os.Exit(1)
	}
	return nil
}

func verifyAll(ctx context.Context, pool *pgxpool.Pool) error {
	rows, err := pool.Query(ctx, `SELECT DISTINCT case_id FROM intelligence_history`)
	if err != nil {
		return fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var caseIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		caseIDs = append(caseIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	invalid := 0
	for _, id := range caseIDs {
		entries, err := loadEntries(ctx, pool, id)
		if err != nil {
			return err
		}
		report := integrity.VerifyChain(entries)
		verdict := "ok"
		if !report.IsValid {
			verdict = fmt.Sprintf("INVALID (broken=%d orphaned=%d)",
				len(report.BrokenLinks), len(report.OrphanedEntries))
			invalid++
		}
		fmt.Printf("%s  entries=%d  %s\n", id, report.TotalEntries, verdict)
	}

	fmt.Printf("\n%d cases checked, %d invalid\n", len(caseIDs), invalid)
	if invalid > 0 {
		os.Exit(1)
	}
	return nil
}

func loadEntries(ctx context.Context, pool *pgxpool.Pool, caseID uuid.UUID) ([]model.HistoryEntry, error) {
	rows, err := pool.Query(ctx,
		`SELECT id, case_id, computed_at, previous_run_id, input_hash
		 FROM intelligence_history
		 WHERE case_id = $1
		 ORDER BY computed_at ASC, id ASC`, caseID)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ID, &e.CaseID, &e.ComputedAt, &e.PreviousRunID, &e.InputHash); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/shinrai/internal/model"
	"github.com/ashita-ai/shinrai/internal/storage"
	"github.com/ashita-ai/shinrai/internal/testutil"
)

type memStore struct {
	cases   map[uuid.UUID]model.Case
	history map[uuid.UUID][]model.HistoryEntry
	total   map[uuid.UUID]int
}

func newMemStore() *memStore {
	return &memStore{
		cases:   make(map[uuid.UUID]model.Case),
		history: make(map[uuid.UUID][]model.HistoryEntry),
		total:   make(map[uuid.UUID]int),
	}
}

func (m *memStore) GetCase(_ context.Context, id uuid.UUID) (model.Case, error) {
	c, ok := m.cases[id]
	if !ok {
		return model.Case{}, storage.ErrNotFound
	}
	return c, nil
}

func (m *memStore) ListHistory(_ context.Context, caseID uuid.UUID, limit int) ([]model.HistoryEntry, error) {
	h := m.history[caseID]
	if len(h) > limit {
		h = h[:limit]
	}
	return append([]model.HistoryEntry(nil), h...), nil
}

func (m *memStore) CountHistory(_ context.Context, caseID uuid.UUID) (int, error) {
	if t, ok := m.total[caseID]; ok {
		return t, nil
	}
	return len(m.history[caseID]), nil
}

var exportBase = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// seedChain stores a case with a valid n-entry chain and returns its ID.
func (m *memStore) seedChain(n int) uuid.UUID {
	caseID := uuid.New()
	m.cases[caseID] = model.Case{ID: caseID, DecisionType: "csf_practitioner", Status: model.CaseStatusSubmitted}

	var prev *uuid.UUID
	for i := 0; i < n; i++ {
		id := uuid.New()
		m.history[caseID] = append(m.history[caseID], model.HistoryEntry{
			ID:            id,
			CaseID:        caseID,
			ComputedAt:    exportBase.Add(time.Duration(i) * time.Minute),
			Actor:         "agent-1",
			Reason:        "run",
			TriggeredBy:   "recompute",
			PreviousRunID: prev,
			InputHash:     "v1:stable",
			Payload: model.IntelligencePayload{
				Confidence: model.ConfidenceResult{Score: 90, Band: model.BandHigh},
				Gaps:       []model.Gap{{GapType: model.GapMissing}},
			},
		})
		prev = &id
	}
	return caseID
}

func TestExportWithPayload(t *testing.T) {
	store := newMemStore()
	caseID := store.seedChain(3)
	svc := New(store, testutil.TestLogger())

	export, err := svc.Export(context.Background(), caseID, true)
	require.NoError(t, err)

	assert.Equal(t, caseID, export.Metadata.CaseID)
	assert.Equal(t, 3, export.Metadata.EntryCount)
	assert.False(t, export.Metadata.Truncated)
	assert.True(t, export.Metadata.IncludesPayload)
	assert.WithinDuration(t, time.Now().UTC(), export.Metadata.ExportedAt, 5*time.Second)

	require.Len(t, export.History, 3)
	assert.Empty(t, export.Summaries)
	assert.True(t, export.IntegrityCheck.IsValid)
	assert.Equal(t, 3, export.IntegrityCheck.VerifiedEntries)
}

func TestExportSummariesOnly(t *testing.T) {
	store := newMemStore()
	caseID := store.seedChain(2)
	svc := New(store, testutil.TestLogger())

	export, err := svc.Export(context.Background(), caseID, false)
	require.NoError(t, err)

	assert.Empty(t, export.History)
	require.Len(t, export.Summaries, 2)
	assert.False(t, export.Metadata.IncludesPayload)

	s := export.Summaries[0]
	full := store.history[caseID][0]
	assert.Equal(t, full.ID, s.ID)
	assert.Equal(t, 90.0, s.Score)
	assert.Equal(t, model.BandHigh, s.Band)
	assert.Equal(t, 1, s.GapCount)
	assert.Equal(t, full.InputHash, s.InputHash)
	assert.Equal(t, full.Actor, s.Actor)
}

func TestExportTruncation(t *testing.T) {
	store := newMemStore()
	caseID := store.seedChain(3)
	store.total[caseID] = 500 // storage layer reports more entries than returned

	svc := New(store, testutil.TestLogger())
	export, err := svc.Export(context.Background(), caseID, false)
	require.NoError(t, err)

	assert.True(t, export.Metadata.Truncated)
	assert.Equal(t, 3, export.Metadata.EntryCount)
}

func TestExportDuplicates(t *testing.T) {
	// All entries share the same input hash: one duplicate group.
	store := newMemStore()
	caseID := store.seedChain(3)
	svc := New(store, testutil.TestLogger())

	export, err := svc.Export(context.Background(), caseID, false)
	require.NoError(t, err)

	require.Len(t, export.DuplicateAnalysis, 1)
	assert.Equal(t, "v1:stable", export.DuplicateAnalysis[0].InputHash)
	assert.Equal(t, 3, export.DuplicateAnalysis[0].Count)
}

func TestExportBrokenChainStillSucceeds(t *testing.T) {
	store := newMemStore()
	caseID := store.seedChain(3)
	missing := uuid.New()
	store.history[caseID][1].PreviousRunID = &missing

	svc := New(store, testutil.TestLogger())
	export, err := svc.Export(context.Background(), caseID, false)
	require.NoError(t, err, "integrity violations are findings, not errors")

	assert.False(t, export.IntegrityCheck.IsValid)
	assert.Len(t, export.IntegrityCheck.BrokenLinks, 1)
	assert.Len(t, export.IntegrityCheck.OrphanedEntries, 1)
}

func TestExportCaseNotFound(t *testing.T) {
	svc := New(newMemStore(), testutil.TestLogger())
	_, err := svc.Export(context.Background(), uuid.New(), true)
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

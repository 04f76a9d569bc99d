package intelligence

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/shinrai/internal/gaps"
	"github.com/ashita-ai/shinrai/internal/model"
	"github.com/ashita-ai/shinrai/internal/rules"
	"github.com/ashita-ai/shinrai/internal/storage"
	"github.com/ashita-ai/shinrai/internal/testutil"
)

// memStore is an in-memory Store that mirrors the ledger semantics of the
// Postgres layer: append-only history, auto-resolved previous_run_id.
type memStore struct {
	mu      sync.Mutex
	cases   map[uuid.UUID]model.Case
	signals map[uuid.UUID][]model.Signal
	history map[uuid.UUID][]model.HistoryEntry
	clock   time.Time
}

func newMemStore() *memStore {
	return &memStore{
		cases:   make(map[uuid.UUID]model.Case),
		signals: make(map[uuid.UUID][]model.Signal),
		history: make(map[uuid.UUID][]model.HistoryEntry),
		clock:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) GetCase(_ context.Context, id uuid.UUID) (model.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return model.Case{}, storage.ErrNotFound
	}
	return c, nil
}

func (m *memStore) ListSignals(_ context.Context, caseID uuid.UUID) ([]model.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Signal(nil), m.signals[caseID]...), nil
}

func (m *memStore) LatestHistory(_ context.Context, caseID uuid.UUID) (model.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.history[caseID]
	if len(h) == 0 {
		return model.HistoryEntry{}, storage.ErrNotFound
	}
	latest := h[0]
	for _, e := range h[1:] {
		if e.ComputedAt.After(latest.ComputedAt) {
			latest = e
		}
	}
	return latest, nil
}

func (m *memStore) AppendHistory(_ context.Context, p storage.AppendHistoryParams) (model.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := p.PreviousRunID
	if prev == nil {
		if h := m.history[p.CaseID]; len(h) > 0 {
			sorted := append([]model.HistoryEntry(nil), h...)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i].ComputedAt.After(sorted[j].ComputedAt)
			})
			id := sorted[0].ID
			prev = &id
		}
	}
	m.clock = m.clock.Add(time.Second)
	entry := model.HistoryEntry{
		ID:            uuid.New(),
		CaseID:        p.CaseID,
		ComputedAt:    m.clock,
		Payload:       p.Payload,
		Actor:         p.Actor,
		Reason:        p.Reason,
		TriggeredBy:   p.TriggeredBy,
		PreviousRunID: prev,
		InputHash:     p.InputHash,
	}
	m.history[p.CaseID] = append(m.history[p.CaseID], entry)
	return entry, nil
}

func newService(store Store) *Service {
	return New(store, rules.DefaultRegistry(), gaps.DefaultRegistry(), testutil.TestLogger())
}

func seedCase(store *memStore, submission map[string]any) model.Case {
	c := model.Case{
		ID:           uuid.New(),
		DecisionType: "csf_practitioner",
		Status:       model.CaseStatusSubmitted,
		Submission:   submission,
	}
	store.cases[c.ID] = c
	return c
}

func TestGetOrComputeFirstRun(t *testing.T) {
	store := newMemStore()
	c := seedCase(store, map[string]any{"practitioner_name": "Jane Smith"})
	svc := newService(store)

	resp, err := svc.GetOrCompute(context.Background(), c.ID, "", "agent-1")
	require.NoError(t, err)

	assert.Equal(t, c.ID, resp.CaseID)
	assert.False(t, resp.Cached)
	assert.NotEqual(t, uuid.Nil, resp.RunID)
	assert.NotEmpty(t, resp.Payload.Explanation.Narrative)

	// First entry roots the chain and carries a versioned input hash.
	entries := store.history[c.ID]
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].PreviousRunID)
	assert.Contains(t, entries[0].InputHash, "v1:")
	assert.Equal(t, "agent-1", entries[0].Actor)
	assert.Equal(t, "get", entries[0].TriggeredBy)
	assert.Equal(t, "initial computation", entries[0].Reason)
}

func TestGetOrComputeServesCached(t *testing.T) {
	store := newMemStore()
	c := seedCase(store, map[string]any{"practitioner_name": "Jane Smith"})
	svc := newService(store)

	first, err := svc.GetOrCompute(context.Background(), c.ID, "", "agent-1")
	require.NoError(t, err)

	second, err := svc.GetOrCompute(context.Background(), c.ID, "", "agent-2")
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Len(t, store.history[c.ID], 1, "cached reads never append")
}

func TestRecomputeAppendsAndLinks(t *testing.T) {
	store := newMemStore()
	c := seedCase(store, map[string]any{"practitioner_name": "Jane Smith"})
	svc := newService(store)

	first, err := svc.GetOrCompute(context.Background(), c.ID, "", "agent-1")
	require.NoError(t, err)

	second, err := svc.Recompute(context.Background(), c.ID, "", "agent-1", "evidence updated")
	require.NoError(t, err)
	assert.False(t, second.Cached)
	assert.NotEqual(t, first.RunID, second.RunID)

	entries := store.history[c.ID]
	require.Len(t, entries, 2)
	require.NotNil(t, entries[1].PreviousRunID)
	assert.Equal(t, first.RunID, *entries[1].PreviousRunID)
	assert.Equal(t, "evidence updated", entries[1].Reason)
	assert.Equal(t, "recompute", entries[1].TriggeredBy)
}

func TestRecomputeDefaultReason(t *testing.T) {
	store := newMemStore()
	c := seedCase(store, nil)
	svc := newService(store)

	_, err := svc.Recompute(context.Background(), c.ID, "", "agent-1", "")
	require.NoError(t, err)
	assert.Equal(t, "manual recompute", store.history[c.ID][0].Reason)
}

func TestRecomputeStableHashAcrossRuns(t *testing.T) {
	store := newMemStore()
	c := seedCase(store, map[string]any{"practitioner_name": "Jane Smith"})
	svc := newService(store)

	_, err := svc.Recompute(context.Background(), c.ID, "", "agent-1", "first")
	require.NoError(t, err)
	_, err = svc.Recompute(context.Background(), c.ID, "", "agent-1", "second")
	require.NoError(t, err)

	entries := store.history[c.ID]
	require.Len(t, entries, 2)
	assert.Equal(t, entries[0].InputHash, entries[1].InputHash, "unchanged inputs hash identically")
}

func TestComputeCriticalFailureCapped(t *testing.T) {
	// A near-complete submission with an invalid license state: nine of
	// ten rules pass but the critical failure caps the score at 40.
	store := newMemStore()
	c := seedCase(store, map[string]any{
		"name":             "Jane Smith",
		"license_number":   "CSF-12345",
		"license_state":    "XX",
		"email":            "jane@example.com",
		"specialty":        "structural review",
		"years_experience": float64(8),
		"address":          "1 Main St, Sacramento, CA",
		"phone":            "+1 555 0100",
		"education":        "BSc Civil Engineering",
		"certified_at":     "2020-06-01",
	})
	svc := newService(store)

	resp, err := svc.Recompute(context.Background(), c.ID, "", "agent-1", "check")
	require.NoError(t, err)

	conf := resp.Payload.Confidence
	assert.Equal(t, 90.0, conf.RawScore)
	assert.Equal(t, "critical_failure", conf.CapApplied)
	assert.Equal(t, 40.0, conf.Score)
	assert.NotEmpty(t, resp.Payload.Gaps, "no signals recorded means gaps")
}

func TestCaseNotFound(t *testing.T) {
	svc := newService(newMemStore())

	_, err := svc.GetOrCompute(context.Background(), uuid.New(), "", "agent-1")
	assert.ErrorIs(t, err, ErrCaseNotFound)

	_, err = svc.Recompute(context.Background(), uuid.New(), "", "agent-1", "r")
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestComputeUsesRecordedSignals(t *testing.T) {
	store := newMemStore()
	c := seedCase(store, map[string]any{"practitioner_name": "Jane Smith"})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.signals[c.ID] = []model.Signal{
		{CaseID: c.ID, SignalType: model.SignalSubmissionPresent, Strength: 0.9, Completeness: true, SourceType: "applicant", RecordedAt: now},
		{CaseID: c.ID, SignalType: model.SignalEvidencePresent, Strength: 0.9, Completeness: true, SourceType: "system", RecordedAt: now},
		{CaseID: c.ID, SignalType: model.SignalIdentityVerified, Strength: 0.9, Completeness: true, SourceType: "verifier", RecordedAt: now},
		{CaseID: c.ID, SignalType: model.SignalReferencesChecked, Strength: 0.9, Completeness: true, SourceType: "verifier", RecordedAt: now},
	}
	svc := newService(store)
	svc.now = func() time.Time { return now }

	resp, err := svc.Recompute(context.Background(), c.ID, "", "agent-1", "signals recorded")
	require.NoError(t, err)
	assert.Empty(t, resp.Payload.Gaps)
}

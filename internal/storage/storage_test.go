package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/shinrai/internal/model"
	"github.com/ashita-ai/shinrai/internal/storage"
	"github.com/ashita-ai/shinrai/internal/testutil"
)

var testDB *storage.DB

func TestMain(m *testing.M) {
	tc := testutil.MustStartPostgres()
	defer tc.Terminate()

	var err error
	testDB, err = tc.NewTestDB(context.Background(), testutil.TestLogger())
	if err != nil {
		tc.Terminate()
		panic(err)
	}
	code := m.Run()
	testDB.Close()
	tc.Terminate()
	os.Exit(code)
}

func upsertTestCase(t *testing.T) model.Case {
	t.Helper()
	c, err := testDB.UpsertCase(context.Background(), uuid.New(), model.UpsertCaseRequest{
		DecisionType: "csf_practitioner",
		Status:       model.CaseStatusSubmitted,
		Submission:   map[string]any{"name": "Jordan Avery"},
	})
	require.NoError(t, err)
	return c
}

func TestUpsertAndGetCase(t *testing.T) {
	ctx := context.Background()
	c := upsertTestCase(t)

	got, err := testDB.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "csf_practitioner", got.DecisionType)
	assert.Equal(t, model.CaseStatusSubmitted, got.Status)
	assert.Equal(t, "Jordan Avery", got.Submission["name"])

	// Re-upsert replaces mutable fields but keeps created_at.
	updated, err := testDB.UpsertCase(ctx, c.ID, model.UpsertCaseRequest{
		DecisionType: "csf_practitioner",
		Status:       model.CaseStatusInReview,
		Submission:   map[string]any{"name": "Jordan Avery", "license_number": "CSF-1"},
	})
	require.NoError(t, err)
	assert.WithinDuration(t, got.CreatedAt, updated.CreatedAt, time.Millisecond)

	got, err = testDB.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusInReview, got.Status)
	assert.Equal(t, "CSF-1", got.Submission["license_number"])
}

func TestGetCaseNotFound(t *testing.T) {
	_, err := testDB.GetCase(context.Background(), uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpsertCaseDefaults(t *testing.T) {
	c, err := testDB.UpsertCase(context.Background(), uuid.New(), model.UpsertCaseRequest{
		DecisionType: "generic",
	})
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusDraft, c.Status)
	assert.NotNil(t, c.Submission)
}

func TestAppendAndListSignals(t *testing.T) {
	ctx := context.Background()
	c := upsertTestCase(t)
	recorded := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	appended, err := testDB.AppendSignals(ctx, c.ID, []model.SignalInput{
		{SignalType: model.SignalSubmissionPresent, Strength: 0.9, Completeness: true, SourceType: "applicant", RecordedAt: &recorded},
		{SignalType: model.SignalEvidencePresent, Strength: 0.6, SourceType: "system"},
	})
	require.NoError(t, err)
	require.Len(t, appended, 2)

	got, err := testDB.ListSignals(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Oldest first: the explicit 2025 timestamp sorts before now.
	assert.Equal(t, model.SignalSubmissionPresent, got[0].SignalType)
	assert.True(t, got[0].RecordedAt.Equal(recorded))
	assert.Equal(t, model.SignalEvidencePresent, got[1].SignalType)
	assert.False(t, got[1].Completeness)
}

func TestListSignalsEmpty(t *testing.T) {
	c := upsertTestCase(t)
	got, err := testDB.ListSignals(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func appendRun(t *testing.T, caseID uuid.UUID, hash string) model.HistoryEntry {
	t.Helper()
	e, err := testDB.AppendHistory(context.Background(), storage.AppendHistoryParams{
		CaseID: caseID,
		Payload: model.IntelligencePayload{
			Confidence: model.ConfidenceResult{Score: 90, Band: model.BandHigh, FailedRules: []model.RuleResult{}},
			Gaps:       []model.Gap{},
			BiasFlags:  []model.BiasFlag{},
		},
		Actor:       "agent-1",
		Reason:      "test run",
		TriggeredBy: "recompute",
		InputHash:   hash,
	})
	require.NoError(t, err)
	return e
}

func TestAppendHistoryChainLinks(t *testing.T) {
	ctx := context.Background()
	c := upsertTestCase(t)

	first := appendRun(t, c.ID, "v1:aaa")
	assert.Nil(t, first.PreviousRunID, "first entry roots the chain")

	second := appendRun(t, c.ID, "v1:bbb")
	require.NotNil(t, second.PreviousRunID)
	assert.Equal(t, first.ID, *second.PreviousRunID, "previous_run_id auto-resolves to the latest entry")

	latest, err := testDB.LatestHistory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, 90.0, latest.Payload.Confidence.Score)
}

func TestLatestHistoryNotFound(t *testing.T) {
	c := upsertTestCase(t)
	_, err := testDB.LatestHistory(context.Background(), c.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListAndCountHistory(t *testing.T) {
	ctx := context.Background()
	c := upsertTestCase(t)
	first := appendRun(t, c.ID, "v1:aaa")
	second := appendRun(t, c.ID, "v1:aaa")
	third := appendRun(t, c.ID, "v1:bbb")

	entries, err := testDB.ListHistory(ctx, c.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, third.ID, entries[0].ID, "newest first")
	assert.Equal(t, first.ID, entries[2].ID)
	_ = second

	limited, err := testDB.ListHistory(ctx, c.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	total, err := testDB.CountHistory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestRecentlyActiveCases(t *testing.T) {
	ctx := context.Background()
	active := upsertTestCase(t)
	appendRun(t, active.ID, "v1:aaa")

	ids, err := testDB.RecentlyActiveCases(ctx, time.Now().Add(-time.Minute), 100)
	require.NoError(t, err)
	assert.Contains(t, ids, active.ID)

	ids, err = testDB.RecentlyActiveCases(ctx, time.Now().Add(time.Hour), 100)
	require.NoError(t, err)
	assert.NotContains(t, ids, active.ID)
}

func TestAgents(t *testing.T) {
	ctx := context.Background()

	agent, err := testDB.CreateAgent(ctx, "workflow-1", "Intake workflow", model.RoleOperator, "salt$hash")
	require.NoError(t, err)
	assert.Equal(t, "workflow-1", agent.AgentID)

	got, err := testDB.GetAgentByAgentID(ctx, "workflow-1")
	require.NoError(t, err)
	assert.Equal(t, agent.ID, got.ID)
	assert.Equal(t, model.RoleOperator, got.Role)
	assert.Equal(t, "salt$hash", got.APIKeyHash)

	_, err = testDB.GetAgentByAgentID(ctx, "no-such-agent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSeedAdminIdempotent(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.SeedAdmin(ctx, "salt$adminhash"))
	require.NoError(t, testDB.SeedAdmin(ctx, "salt$adminhash"))

	admin, err := testDB.GetAgentByAgentID(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
}

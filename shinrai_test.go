package shinrai

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var engineNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	return New(WithNow(func() time.Time { return engineNow }))
}

func completeSubmission() map[string]any {
	return map[string]any{
		"name":             "Jordan Avery",
		"license_number":   "CSF-12345",
		"license_state":    "CA",
		"email":            "jordan@example.com",
		"specialty":        "structural review",
		"years_experience": float64(8),
		"address":          "1 Main St, Sacramento, CA",
		"phone":            "+1 555 0100",
		"education":        "BSc Civil Engineering",
		"certified_at":     "2020-06-01",
	}
}

func satisfyingSignals() []Signal {
	mk := func(st string, src string) Signal {
		return Signal{SignalType: st, Strength: 0.9, Completeness: true, SourceType: src, RecordedAt: engineNow.Add(-time.Hour)}
	}
	return []Signal{
		mk("submission_present", "applicant"),
		mk("evidence_present", "system"),
		mk("identity_verified", "verifier"),
		mk("references_checked", "registry"),
	}
}

func TestEvaluateCleanCase(t *testing.T) {
	res := testEngine().Evaluate("csf_practitioner", "submitted", completeSubmission(), satisfyingSignals())

	assert.Equal(t, 100.0, res.Confidence.Score)
	assert.Equal(t, BandHigh, res.Confidence.Band)
	assert.Equal(t, 10, res.Confidence.RulesTotal)
	assert.Empty(t, res.Confidence.FailedRules)
	assert.Empty(t, res.Gaps)
	assert.Empty(t, res.BiasFlags)
	assert.NotEmpty(t, res.Explanation.Narrative)
	assert.Contains(t, res.InputHash, "v1:")
}

func TestEvaluateCriticalFailure(t *testing.T) {
	sub := completeSubmission()
	sub["license_state"] = "XX"

	res := testEngine().Evaluate("csf_practitioner", "submitted", sub, satisfyingSignals())

	assert.Equal(t, 40.0, res.Confidence.Score)
	assert.Equal(t, "critical_failure", res.Confidence.CapApplied)
	require.Len(t, res.Confidence.FailedRules, 1)
	assert.Equal(t, "license_state_valid", res.Confidence.FailedRules[0].RuleID)
}

func TestEvaluateNoSignals(t *testing.T) {
	res := testEngine().Evaluate("csf_practitioner", "submitted", completeSubmission(), nil)

	assert.Len(t, res.Gaps, 4, "every expected signal is missing")
	assert.NotEmpty(t, res.BiasFlags)
}

func TestEvaluateFactorsReconstructScore(t *testing.T) {
	sub := completeSubmission()
	sub["license_state"] = "XX"

	res := testEngine().Evaluate("csf_practitioner", "submitted", sub, satisfyingSignals())

	sum := 0.0
	for _, f := range res.Explanation.Factors {
		sum += f.Impact
	}
	assert.InDelta(t, res.Confidence.Score, sum, 1e-9)
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := testEngine()
	sub := completeSubmission()
	sigs := satisfyingSignals()

	first := eng.Evaluate("csf_practitioner", "submitted", sub, sigs)
	for range 5 {
		assert.Equal(t, first, eng.Evaluate("csf_practitioner", "submitted", sub, sigs))
	}
}

func TestInputHashMatchesEvaluate(t *testing.T) {
	sub := completeSubmission()
	res := testEngine().Evaluate("csf_practitioner", "submitted", sub, nil)
	assert.Equal(t, res.InputHash, InputHash("submitted", sub))
	assert.NotEqual(t, res.InputHash, InputHash("closed", sub))
}

func TestVerifyChainRoundTrip(t *testing.T) {
	root := uuid.New()
	mid := uuid.New()
	tip := uuid.New()
	entries := []ChainEntry{
		{ID: tip, PreviousRunID: &mid, ComputedAt: engineNow.Add(2 * time.Minute), InputHash: "v1:a"},
		{ID: root, ComputedAt: engineNow, InputHash: "v1:a"},
		{ID: mid, PreviousRunID: &root, ComputedAt: engineNow.Add(time.Minute), InputHash: "v1:b"},
	}

	report := VerifyChain(entries)
	assert.True(t, report.IsValid)
	assert.Equal(t, 3, report.VerifiedEntries)

	groups := FindDuplicates(entries)
	require.Len(t, groups, 1)
	assert.Equal(t, "v1:a", groups[0].InputHash)
	assert.Equal(t, []uuid.UUID{root, tip}, groups[0].EntryIDs)
}

func TestVerifyChainBroken(t *testing.T) {
	missing := uuid.New()
	id := uuid.New()
	report := VerifyChain([]ChainEntry{{ID: id, PreviousRunID: &missing, ComputedAt: engineNow}})

	assert.False(t, report.IsValid)
	assert.Equal(t, []uuid.UUID{id}, report.BrokenLinks)
}

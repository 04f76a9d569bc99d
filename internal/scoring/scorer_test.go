package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/shinrai/internal/model"
)

func results(passed int, failedBySeverity map[model.RuleSeverity]int) []model.RuleResult {
	var out []model.RuleResult
	for i := 0; i < passed; i++ {
		out = append(out, model.RuleResult{RuleID: "pass", Passed: true, Severity: model.RuleSeverityLow})
	}
	for sev, n := range failedBySeverity {
		for i := 0; i < n; i++ {
			out = append(out, model.RuleResult{RuleID: "fail", Passed: false, Severity: sev})
		}
	}
	return out
}

func TestScoreAllPass(t *testing.T) {
	conf := Score(results(10, nil))

	assert.Equal(t, 100.0, conf.Score)
	assert.Equal(t, model.BandHigh, conf.Band)
	assert.Equal(t, 10, conf.RulesTotal)
	assert.Equal(t, 10, conf.RulesPassed)
	assert.Empty(t, conf.CapApplied)
	assert.Empty(t, conf.FailedRules)
}

func TestScoreCriticalFailureCaps(t *testing.T) {
	// 9 of 10 pass, raw 90, but one critical failure caps at 40.
	conf := Score(results(9, map[model.RuleSeverity]int{model.RuleSeverityCritical: 1}))

	assert.Equal(t, 90.0, conf.RawScore)
	assert.Equal(t, CriticalFailureCap, conf.Score)
	assert.Equal(t, "critical_failure", conf.CapApplied)
	assert.Equal(t, model.BandMedium, conf.Band)
	assert.Len(t, conf.FailedRules, 1)
}

func TestScoreMediumFailuresCap(t *testing.T) {
	// 17 of 20 pass, raw 85, three medium failures cap at 70.
	conf := Score(results(17, map[model.RuleSeverity]int{model.RuleSeverityMedium: 3}))

	assert.Equal(t, 85.0, conf.RawScore)
	assert.Equal(t, MediumFailureCap, conf.Score)
	assert.Equal(t, "medium_failures", conf.CapApplied)
	assert.Equal(t, model.BandMedium, conf.Band)
}

func TestScoreMediumCapNotAppliedBelowCount(t *testing.T) {
	// Two medium failures: no cap, raw score stands.
	conf := Score(results(8, map[model.RuleSeverity]int{model.RuleSeverityMedium: 2}))

	assert.Equal(t, 80.0, conf.Score)
	assert.Empty(t, conf.CapApplied)
	assert.Equal(t, model.BandHigh, conf.Band)
}

func TestScoreCriticalCapTakesPrecedence(t *testing.T) {
	// Both patterns present: the critical tier matches first and binds.
	conf := Score(results(16, map[model.RuleSeverity]int{
		model.RuleSeverityCritical: 1,
		model.RuleSeverityMedium:   3,
	}))

	assert.Equal(t, CriticalFailureCap, conf.Score)
	assert.Equal(t, "critical_failure", conf.CapApplied)
}

func TestScoreCapOnlyLowers(t *testing.T) {
	// Raw already below the cap: the cap does not bind and is not reported.
	conf := Score(results(2, map[model.RuleSeverity]int{model.RuleSeverityCritical: 8}))

	assert.Equal(t, 20.0, conf.RawScore)
	assert.Equal(t, 20.0, conf.Score)
	assert.Empty(t, conf.CapApplied)
	assert.Equal(t, model.BandLow, conf.Band)
}

func TestScoreFloorClamps(t *testing.T) {
	// Everything failed: raw 0 clamps up to the floor.
	conf := Score(results(0, map[model.RuleSeverity]int{model.RuleSeverityLow: 10}))

	assert.Equal(t, 0.0, conf.RawScore)
	assert.Equal(t, ScoreFloor, conf.Score)
	assert.Equal(t, model.BandLow, conf.Band)
}

func TestScoreEmptyRuleSet(t *testing.T) {
	// An empty pack scores as fully passing.
	conf := Score(nil)

	assert.Equal(t, 100.0, conf.Score)
	assert.Equal(t, model.BandHigh, conf.Band)
	assert.Zero(t, conf.RulesTotal)
	require.NotNil(t, conf.FailedRules)
	assert.Empty(t, conf.FailedRules)
}

func TestScoreDeterministic(t *testing.T) {
	in := results(6, map[model.RuleSeverity]int{
		model.RuleSeverityMedium: 2,
		model.RuleSeverityLow:    2,
	})
	first := Score(in)
	for range 10 {
		assert.Equal(t, first, Score(in))
	}
}

func TestBandThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  model.ConfidenceBand
	}{
		{100, model.BandHigh},
		{80, model.BandHigh},
		{79.9, model.BandMedium},
		{40, model.BandMedium},
		{39.9, model.BandLow},
		{5, model.BandLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Band(tt.score), "score %.1f", tt.score)
	}
}

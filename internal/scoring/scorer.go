// Package scoring reduces rule results to a confidence score and band.
//
// Thresholds and caps here are fixed policy constants: changing one is a
// policy change, not a bug fix.
package scoring

import (
	"github.com/ashita-ai/shinrai/internal/model"
)

// Policy constants.
const (
	// ScoreFloor keeps displayed scores above zero; a 0 reads as a broken
	// computation rather than a very low one.
	ScoreFloor   = 5.0
	ScoreCeiling = 100.0

	// CriticalFailureCap bounds the score when any critical rule failed.
	CriticalFailureCap = 40.0
	// MediumFailureCap bounds the score when MediumFailureCount or more
	// medium rules failed (and no critical rule did).
	MediumFailureCap   = 70.0
	MediumFailureCount = 3

	// Band thresholds: >= BandHighMin is high, >= BandMediumMin is medium,
	// below is low.
	BandHighMin   = 80.0
	BandMediumMin = 40.0
)

// capTier pairs a failure-pattern predicate with the score cap it imposes.
type capTier struct {
	id    string
	match func(s failureStats) bool
	cap   float64
}

// capTiers is evaluated top to bottom; the first matching tier's cap is
// applied. Adding a tier is a data change, not a control-flow change.
var capTiers = []capTier{
	{
		id:  "critical_failure",
		cap: CriticalFailureCap,
		match: func(s failureStats) bool {
			return s.criticalFailed > 0
		},
	},
	{
		id:  "medium_failures",
		cap: MediumFailureCap,
		match: func(s failureStats) bool {
			return s.mediumFailed >= MediumFailureCount
		},
	},
}

type failureStats struct {
	criticalFailed int
	mediumFailed   int
}

// Score reduces an ordered rule result list to a ConfidenceResult.
// Base score is the pass ratio scaled to 100, then the first matching
// severity cap applies, then the floor and ceiling clamp. Deterministic
// for identical inputs.
func Score(results []model.RuleResult) model.ConfidenceResult {
	total := len(results)
	passed := 0
	var stats failureStats
	var failed []model.RuleResult

	for _, r := range results {
		if r.Passed {
			passed++
			continue
		}
		failed = append(failed, r)
		switch r.Severity {
		case model.RuleSeverityCritical:
			stats.criticalFailed++
		case model.RuleSeverityMedium:
			stats.mediumFailed++
		}
	}

	raw := ScoreCeiling
	if total > 0 {
		raw = float64(passed) / float64(total) * 100.0
	}

	score := raw
	capApplied := ""
	for _, tier := range capTiers {
		if tier.match(stats) {
			if score > tier.cap {
				score = tier.cap
				capApplied = tier.id
			}
			break
		}
	}

	if score < ScoreFloor {
		score = ScoreFloor
	}
	if score > ScoreCeiling {
		score = ScoreCeiling
	}

	if failed == nil {
		failed = []model.RuleResult{}
	}
	return model.ConfidenceResult{
		Score:       score,
		Band:        Band(score),
		RulesTotal:  total,
		RulesPassed: passed,
		RawScore:    raw,
		CapApplied:  capApplied,
		FailedRules: failed,
	}
}

// Band buckets a score into high, medium, or low.
func Band(score float64) model.ConfidenceBand {
	switch {
	case score >= BandHighMin:
		return model.BandHigh
	case score >= BandMediumMin:
		return model.BandMedium
	default:
		return model.BandLow
	}
}

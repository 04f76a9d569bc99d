// Package explain assembles the reviewer-facing factor list and narrative
// for one computation. A reviewer can reconstruct the final score from the
// nonzero-impact factors without re-running the engine.
package explain

import (
	"fmt"
	"strings"

	"github.com/ashita-ai/shinrai/internal/model"
)

// Factor names. Stable identifiers: downstream review tooling keys on them.
const (
	FactorRuleCompliance = "rule_compliance"
	FactorSeverityCap    = "severity_cap"
	FactorScoreFloor     = "score_floor"
	FactorGaps           = "evidentiary_gaps"
	FactorBias           = "bias_indicators"
)

// Build derives the explanation from the scored result and the detector
// outputs. Nonzero-impact factors sum from a zero baseline to the final
// score; gap and bias factors are advisory (zero impact) because the score
// is defined by rules and caps alone. Deterministic for identical inputs.
func Build(conf model.ConfidenceResult, gaps []model.Gap, flags []model.BiasFlag) model.Explanation {
	factors := []model.ExplanationFactor{
		{
			Factor: FactorRuleCompliance,
			Impact: conf.RawScore,
			Detail: fmt.Sprintf("%d of %d rules passed", conf.RulesPassed, conf.RulesTotal),
		},
	}

	if conf.CapApplied != "" {
		factors = append(factors, model.ExplanationFactor{
			Factor: FactorSeverityCap,
			Impact: conf.Score - conf.RawScore,
			Detail: fmt.Sprintf("score capped at %.1f (%s)", conf.Score, capDetail(conf)),
		})
	} else if conf.Score != conf.RawScore {
		// Only the floor (or ceiling clamp) can move the score when no cap bound.
		factors = append(factors, model.ExplanationFactor{
			Factor: FactorScoreFloor,
			Impact: conf.Score - conf.RawScore,
			Detail: fmt.Sprintf("raw score %.1f clamped to %.1f", conf.RawScore, conf.Score),
		})
	}

	if len(gaps) > 0 {
		factors = append(factors, model.ExplanationFactor{
			Factor: FactorGaps,
			Impact: 0,
			Detail: fmt.Sprintf("%d evidentiary gap(s) detected: %s", len(gaps), gapSummary(gaps)),
		})
	}
	if len(flags) > 0 {
		factors = append(factors, model.ExplanationFactor{
			Factor: FactorBias,
			Impact: 0,
			Detail: fmt.Sprintf("%d bias indicator(s) detected: %s", len(flags), flagSummary(flags)),
		})
	}

	return model.Explanation{
		Factors:   factors,
		Narrative: narrative(conf, gaps, flags),
	}
}

func capDetail(conf model.ConfidenceResult) string {
	critical, medium := 0, 0
	for _, r := range conf.FailedRules {
		switch r.Severity {
		case model.RuleSeverityCritical:
			critical++
		case model.RuleSeverityMedium:
			medium++
		}
	}
	if critical > 0 {
		return fmt.Sprintf("%d critical rule failure(s)", critical)
	}
	return fmt.Sprintf("%d medium rule failure(s)", medium)
}

func gapSummary(gaps []model.Gap) string {
	parts := make([]string, len(gaps))
	for i, g := range gaps {
		parts[i] = fmt.Sprintf("%s %s", g.GapType, g.SignalType)
	}
	return strings.Join(parts, ", ")
}

func flagSummary(flags []model.BiasFlag) string {
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = string(f.FlagType)
	}
	return strings.Join(parts, ", ")
}

// narrative renders a short fixed-shape sentence for review queues.
func narrative(conf model.ConfidenceResult, gaps []model.Gap, flags []model.BiasFlag) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Confidence %.1f (%s): %d of %d rules passed", conf.Score, conf.Band, conf.RulesPassed, conf.RulesTotal)
	if conf.CapApplied != "" {
		fmt.Fprintf(&b, "; score capped due to %s", capDetail(conf))
	}
	fmt.Fprintf(&b, "; %d evidentiary gap(s); %d bias indicator(s).", len(gaps), len(flags))
	return b.String()
}

// Package gaps compares a case's recorded signals against per-decision-type
// expectations and emits typed evidentiary gaps.
package gaps

import (
	"fmt"
	"time"

	"github.com/ashita-ai/shinrai/internal/model"
)

// Registry holds signal expectations keyed by decision type. Like the rule
// registry, it is built once at startup and read-only afterwards.
type Registry struct {
	byType   map[string][]model.Expectation
	fallback []model.Expectation
}

// ExpectationSet binds a decision type to its expected signals.
type ExpectationSet struct {
	DecisionType string
	Expectations []model.Expectation
}

// NewRegistry builds an expectation registry. The "generic" set, when
// present, is the fallback for unknown decision types.
func NewRegistry(sets ...ExpectationSet) *Registry {
	r := &Registry{byType: make(map[string][]model.Expectation, len(sets))}
	for _, s := range sets {
		r.byType[s.DecisionType] = s.Expectations
		if s.DecisionType == "generic" {
			r.fallback = s.Expectations
		}
	}
	return r
}

// Expectations returns the expectation list for a decision type, falling
// back to the generic set for unknown types.
func (r *Registry) Expectations(decisionType string) []model.Expectation {
	if e, ok := r.byType[decisionType]; ok {
		return e
	}
	return r.fallback
}

// DefaultRegistry returns the built-in expectation sets.
func DefaultRegistry() *Registry {
	return NewRegistry(
		ExpectationSet{
			DecisionType: "csf_practitioner",
			Expectations: []model.Expectation{
				{SignalType: model.SignalSubmissionPresent, Required: true, MinStrength: 0.5, MaxAgeHours: 168},
				{SignalType: model.SignalEvidencePresent, Required: true, MinStrength: 0.6, MaxAgeHours: 336},
				{SignalType: model.SignalIdentityVerified, Required: false, MinStrength: 0.7, MaxAgeHours: 720},
				{SignalType: model.SignalReferencesChecked, Required: false, MinStrength: 0.5, MaxAgeHours: 720},
			},
		},
		ExpectationSet{
			DecisionType: "generic",
			Expectations: []model.Expectation{
				{SignalType: model.SignalSubmissionPresent, Required: true, MinStrength: 0.5, MaxAgeHours: 168},
			},
		},
	)
}

// Detect compares recorded signals to the decision type's expectations.
// At most one gap is emitted per expected signal type; the conditions are
// checked in fixed order (missing, partial, weak, stale) and the first
// match wins. The strongest signal of each type is the one compared.
// Pure function of its inputs and now; output order follows the
// expectation list but callers may re-sort for display.
func Detect(reg *Registry, decisionType string, signals []model.Signal, now time.Time) []model.Gap {
	strongest := make(map[model.SignalType]model.Signal)
	for _, s := range signals {
		best, ok := strongest[s.SignalType]
		if !ok || s.Strength > best.Strength || (s.Strength == best.Strength && s.RecordedAt.After(best.RecordedAt)) {
			strongest[s.SignalType] = s
		}
	}

	gaps := []model.Gap{}
	for _, exp := range reg.Expectations(decisionType) {
		sig, ok := strongest[exp.SignalType]
		switch {
		case !ok:
			sev := model.SeverityMedium
			if exp.Required {
				sev = model.SeverityHigh
			}
			gaps = append(gaps, model.Gap{
				GapType:           model.GapMissing,
				Severity:          sev,
				SignalType:        exp.SignalType,
				Message:           fmt.Sprintf("no %s signal recorded", exp.SignalType),
				ExpectedThreshold: exp.MinStrength,
			})
		case !sig.Completeness:
			gaps = append(gaps, model.Gap{
				GapType:           model.GapPartial,
				Severity:          model.SeverityMedium,
				SignalType:        exp.SignalType,
				Message:           fmt.Sprintf("%s signal is marked incomplete", exp.SignalType),
				ExpectedThreshold: exp.MinStrength,
			})
		case sig.Strength < exp.MinStrength:
			gaps = append(gaps, model.Gap{
				GapType:           model.GapWeak,
				Severity:          model.SeverityLow,
				SignalType:        exp.SignalType,
				Message:           fmt.Sprintf("%s signal strength %.2f is below the %.2f minimum", exp.SignalType, sig.Strength, exp.MinStrength),
				ExpectedThreshold: exp.MinStrength,
			})
		case now.Sub(sig.RecordedAt).Hours() > exp.MaxAgeHours:
			gaps = append(gaps, model.Gap{
				GapType:           model.GapStale,
				Severity:          model.SeverityLow,
				SignalType:        exp.SignalType,
				Message:           fmt.Sprintf("%s signal is older than %.0f hours", exp.SignalType, exp.MaxAgeHours),
				ExpectedThreshold: exp.MaxAgeHours,
			})
		}
	}
	return gaps
}

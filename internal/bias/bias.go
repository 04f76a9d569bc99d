// Package bias inspects a case's signal set for provenance and content
// patterns that make the evidence base unreliable.
//
// Four independent checks run unconditionally; a case may surface zero to
// four flags. Thresholds are named constants so tuning them is a data
// change, not an algorithm change.
package bias

import (
	"fmt"
	"time"

	"github.com/ashita-ai/shinrai/internal/model"
)

const (
	// SingleSourceRatio is the share of total signal strength above which
	// one source type dominates the evidence base.
	SingleSourceRatio = 0.70
	// MinDistinctSources is the minimum number of distinct source types
	// expected for a balanced evidence base.
	MinDistinctSources = 3
	// ContradictionStrength is the strength at or above which two
	// logically exclusive signals count as simultaneously present.
	ContradictionStrength = 0.80
	// StaleSignalAge is the age beyond which any signal is flagged stale.
	StaleSignalAge = 72 * time.Hour
)

// Detect runs all four bias checks against the signal set. Pure function
// of its inputs and now; flag order is fixed (reliance, diversity,
// contradiction, staleness) for deterministic output.
func Detect(signals []model.Signal, now time.Time) []model.BiasFlag {
	flags := []model.BiasFlag{}
	if f, ok := checkSingleSource(signals); ok {
		flags = append(flags, f)
	}
	if f, ok := checkDiversity(signals); ok {
		flags = append(flags, f)
	}
	if f, ok := checkContradiction(signals); ok {
		flags = append(flags, f)
	}
	if f, ok := checkStale(signals, now); ok {
		flags = append(flags, f)
	}
	return flags
}

// checkSingleSource flags one source type accounting for more than
// SingleSourceRatio of total signal strength. Severity is high when a
// single source is effectively the whole evidence base (>90%).
func checkSingleSource(signals []model.Signal) (model.BiasFlag, bool) {
	var total float64
	bySource := make(map[string]float64)
	for _, s := range signals {
		total += s.Strength
		bySource[s.SourceType] += s.Strength
	}
	if total <= 0 {
		return model.BiasFlag{}, false
	}

	dominant, dominantShare := "", 0.0
	for src, sum := range bySource {
		share := sum / total
		if share > dominantShare {
			dominant, dominantShare = src, share
		}
	}
	if dominantShare <= SingleSourceRatio {
		return model.BiasFlag{}, false
	}

	sev := model.SeverityMedium
	if dominantShare > 0.90 {
		sev = model.SeverityHigh
	}
	return model.BiasFlag{
		FlagType:        model.BiasSingleSourceReliance,
		Severity:        sev,
		Message:         fmt.Sprintf("source %q accounts for %.0f%% of total signal strength", dominant, dominantShare*100),
		SuggestedAction: "corroborate with signals from an independent source",
		Metadata: map[string]any{
			"dominant_source": dominant,
			"share":           dominantShare,
		},
	}, true
}

// checkDiversity flags fewer than MinDistinctSources distinct source types.
func checkDiversity(signals []model.Signal) (model.BiasFlag, bool) {
	sources := make(map[string]bool)
	for _, s := range signals {
		sources[s.SourceType] = true
	}
	if len(sources) >= MinDistinctSources {
		return model.BiasFlag{}, false
	}
	return model.BiasFlag{
		FlagType:        model.BiasLowDiversity,
		Severity:        model.SeverityMedium,
		Message:         fmt.Sprintf("only %d distinct signal source(s); expected at least %d", len(sources), MinDistinctSources),
		SuggestedAction: "collect signals from additional source types",
		Metadata: map[string]any{
			"distinct_sources": len(sources),
			"expected_minimum": MinDistinctSources,
		},
	}, true
}

// checkContradiction flags an open information request coexisting with a
// strong applicant response. Both strongly present means upstream state is
// stale or conflicting.
func checkContradiction(signals []model.Signal) (model.BiasFlag, bool) {
	strongest := func(t model.SignalType) float64 {
		best := 0.0
		for _, s := range signals {
			if s.SignalType == t && s.Strength > best {
				best = s.Strength
			}
		}
		return best
	}

	open := strongest(model.SignalInfoRequestOpen)
	responded := strongest(model.SignalApplicantResponded)
	if open < ContradictionStrength || responded < ContradictionStrength {
		return model.BiasFlag{}, false
	}
	return model.BiasFlag{
		FlagType:        model.BiasContradiction,
		Severity:        model.SeverityHigh,
		Message:         "an information request is open while the applicant has already strongly responded",
		SuggestedAction: "reconcile request state with the upstream workflow before relying on either signal",
		Metadata: map[string]any{
			"info_request_open_strength":   open,
			"applicant_responded_strength": responded,
		},
	}, true
}

// checkStale flags any signal older than StaleSignalAge, naming the oldest.
func checkStale(signals []model.Signal, now time.Time) (model.BiasFlag, bool) {
	var stale []string
	var oldest model.Signal
	for _, s := range signals {
		if now.Sub(s.RecordedAt) > StaleSignalAge {
			stale = append(stale, string(s.SignalType))
			if oldest.RecordedAt.IsZero() || s.RecordedAt.Before(oldest.RecordedAt) {
				oldest = s
			}
		}
	}
	if len(stale) == 0 {
		return model.BiasFlag{}, false
	}
	return model.BiasFlag{
		FlagType:        model.BiasStaleSignals,
		Severity:        model.SeverityLow,
		Message:         fmt.Sprintf("%d signal(s) exceed the %s staleness threshold; oldest is %s", len(stale), StaleSignalAge, oldest.SignalType),
		SuggestedAction: "refresh stale signals before the next review",
		Metadata: map[string]any{
			"stale_signal_types": stale,
			"oldest_recorded_at": oldest.RecordedAt,
		},
	}, true
}

// Package shinrai is the public API for embedding the Shinrai confidence
// engine without running the server.
//
// Consumers that hold case data in their own systems can evaluate it
// offline and verify exported audit chains:
//
//	eng := shinrai.New()
//	res := eng.Evaluate("csf_practitioner", "submitted", submission, signals)
//	report := shinrai.VerifyChain(entries)
//
// The computation is deterministic: identical inputs always produce
// identical results, byte for byte. The import graph enforces a strict
// no-cycle rule: shinrai (root) imports internal/*, but internal/* never
// imports the root. Public types are standalone structs; conversion
// helpers live here because this is the only file that sees both sides of
// the boundary.
package shinrai

import (
	"time"

	"github.com/ashita-ai/shinrai/internal/bias"
	"github.com/ashita-ai/shinrai/internal/explain"
	"github.com/ashita-ai/shinrai/internal/gaps"
	"github.com/ashita-ai/shinrai/internal/integrity"
	"github.com/ashita-ai/shinrai/internal/model"
	"github.com/ashita-ai/shinrai/internal/rules"
	"github.com/ashita-ai/shinrai/internal/scoring"
)

// Engine runs the confidence pipeline offline. It holds the built-in rule
// and expectation registries and performs no I/O.
type Engine struct {
	ruleReg *rules.Registry
	gapReg  *gaps.Registry
	now     func() time.Time
}

// New creates an Engine with the built-in rule packs and expectation sets.
func New(opts ...Option) *Engine {
	o := resolvedOptions{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return &Engine{
		ruleReg: rules.DefaultRegistry(),
		gapReg:  gaps.DefaultRegistry(),
		now:     o.now,
	}
}

// Evaluate runs the full pipeline over a submission and its signals:
// rule evaluation, scoring, gap detection, bias detection, explanation.
// Unknown decision types fall back to the generic rule pack.
func (e *Engine) Evaluate(decisionType, status string, submission map[string]any, signals []Signal) Result {
	now := e.now()
	internalSignals := toInternalSignals(signals)

	results := rules.Evaluate(e.ruleReg, decisionType, submission)
	conf := scoring.Score(results)
	gapList := gaps.Detect(e.gapReg, decisionType, internalSignals, now)
	flags := bias.Detect(internalSignals, now)
	explanation := explain.Build(conf, gapList, flags)

	return Result{
		Confidence:  toPublicConfidence(conf),
		Gaps:        toPublicGaps(gapList),
		BiasFlags:   toPublicFlags(flags),
		Explanation: toPublicExplanation(explanation),
		InputHash:   integrity.ComputeInputHash(status, submission),
	}
}

// InputHash computes the versioned normalized input hash for a case state.
func InputHash(status string, submission map[string]any) string {
	return integrity.ComputeInputHash(status, submission)
}

// VerifyChain walks a set of ledger entries and reports broken links,
// orphaned entries, and forks. Entries may be passed in any order.
func VerifyChain(entries []ChainEntry) ChainReport {
	internal := make([]model.HistoryEntry, len(entries))
	for i, e := range entries {
		internal[i] = model.HistoryEntry{
			ID:            e.ID,
			PreviousRunID: e.PreviousRunID,
			ComputedAt:    e.ComputedAt,
			InputHash:     e.InputHash,
		}
	}
	v := integrity.VerifyChain(internal)
	return ChainReport{
		IsValid:         v.IsValid,
		BrokenLinks:     v.BrokenLinks,
		OrphanedEntries: v.OrphanedEntries,
		ForkedEntries:   v.ForkedEntries,
		TotalEntries:    v.TotalEntries,
		VerifiedEntries: v.VerifiedEntries,
	}
}

// FindDuplicates groups ledger entries that share a normalized input hash.
func FindDuplicates(entries []ChainEntry) []DuplicateGroup {
	internal := make([]model.HistoryEntry, len(entries))
	for i, e := range entries {
		internal[i] = model.HistoryEntry{
			ID:         e.ID,
			ComputedAt: e.ComputedAt,
			InputHash:  e.InputHash,
		}
	}
	groups := integrity.FindDuplicates(internal)
	out := make([]DuplicateGroup, len(groups))
	for i, g := range groups {
		out[i] = DuplicateGroup{
			InputHash:  g.InputHash,
			Count:      g.Count,
			EntryIDs:   g.EntryIDs,
			Timestamps: g.Timestamps,
		}
	}
	return out
}

func toInternalSignals(signals []Signal) []model.Signal {
	out := make([]model.Signal, len(signals))
	for i, s := range signals {
		out[i] = model.Signal{
			SignalType:   model.SignalType(s.SignalType),
			Strength:     s.Strength,
			Completeness: s.Completeness,
			SourceType:   s.SourceType,
			RecordedAt:   s.RecordedAt,
		}
	}
	return out
}

func toPublicConfidence(c model.ConfidenceResult) Confidence {
	failed := make([]RuleResult, len(c.FailedRules))
	for i, r := range c.FailedRules {
		failed[i] = RuleResult{
			RuleID:   r.RuleID,
			Passed:   r.Passed,
			Severity: string(r.Severity),
			Field:    r.Field,
			Message:  r.Message,
			Expected: r.Expected,
			Actual:   r.Actual,
		}
	}
	return Confidence{
		Score:       c.Score,
		Band:        Band(c.Band),
		RulesTotal:  c.RulesTotal,
		RulesPassed: c.RulesPassed,
		RawScore:    c.RawScore,
		CapApplied:  c.CapApplied,
		FailedRules: failed,
	}
}

func toPublicGaps(list []model.Gap) []Gap {
	out := make([]Gap, len(list))
	for i, g := range list {
		out[i] = Gap{
			GapType:           string(g.GapType),
			Severity:          Severity(g.Severity),
			SignalType:        string(g.SignalType),
			Message:           g.Message,
			ExpectedThreshold: g.ExpectedThreshold,
		}
	}
	return out
}

func toPublicFlags(list []model.BiasFlag) []BiasFlag {
	out := make([]BiasFlag, len(list))
	for i, f := range list {
		out[i] = BiasFlag{
			FlagType:        string(f.FlagType),
			Severity:        Severity(f.Severity),
			Message:         f.Message,
			SuggestedAction: f.SuggestedAction,
			Metadata:        f.Metadata,
		}
	}
	return out
}

func toPublicExplanation(e model.Explanation) Explanation {
	factors := make([]Factor, len(e.Factors))
	for i, f := range e.Factors {
		factors[i] = Factor{Factor: f.Factor, Impact: f.Impact, Detail: f.Detail}
	}
	return Explanation{Factors: factors, Narrative: e.Narrative}
}

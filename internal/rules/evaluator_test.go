package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/shinrai/internal/model"
)

// completeSubmission passes every rule in the csf_practitioner pack.
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

func TestEvaluateAllPass(t *testing.T) {
	reg := DefaultRegistry()
	results := Evaluate(reg, "csf_practitioner", completeSubmission())

	require.Len(t, results, 10)
	for _, r := range results {
		assert.True(t, r.Passed, "rule %s should pass", r.RuleID)
		assert.Empty(t, r.Message)
		assert.Empty(t, r.Actual)
	}
}

func TestEvaluateFailurePopulatesDetails(t *testing.T) {
	reg := DefaultRegistry()
	sub := completeSubmission()
	sub["license_state"] = "XX"

	results := Evaluate(reg, "csf_practitioner", sub)

	var stateResult model.RuleResult
	for _, r := range results {
		if r.RuleID == "license_state_valid" {
			stateResult = r
		}
	}
	require.Equal(t, "license_state_valid", stateResult.RuleID)
	assert.False(t, stateResult.Passed)
	assert.Equal(t, model.RuleSeverityCritical, stateResult.Severity)
	assert.Equal(t, "license_state", stateResult.Field)
	assert.NotEmpty(t, stateResult.Message)
	assert.NotEmpty(t, stateResult.Expected)
	assert.Equal(t, "XX", stateResult.Actual)
}

func TestEvaluateEmptySubmission(t *testing.T) {
	reg := DefaultRegistry()

	// Every predicate must be total: an empty map fails rules, never panics.
	results := Evaluate(reg, "csf_practitioner", map[string]any{})
	require.Len(t, results, 10)
	for _, r := range results {
		assert.False(t, r.Passed, "rule %s should fail on empty submission", r.RuleID)
	}

	// Nil behaves the same as empty.
	results = Evaluate(reg, "csf_practitioner", nil)
	require.Len(t, results, 10)
	for _, r := range results {
		assert.False(t, r.Passed)
	}
}

func TestEvaluateUnknownTypeUsesGenericPack(t *testing.T) {
	reg := DefaultRegistry()
	results := Evaluate(reg, "no_such_type", map[string]any{
		"name":  "Sam",
		"email": "sam@example.com",
	})

	require.Len(t, results, 3)
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.RuleID
		assert.True(t, r.Passed, "rule %s", r.RuleID)
	}
	assert.Equal(t, []string{"submission_not_empty", "applicant_name_present", "contact_email_valid"}, ids)
}

func TestEvaluateGenericPackEmptySubmission(t *testing.T) {
	reg := DefaultRegistry()
	results := Evaluate(reg, "no_such_type", map[string]any{})

	require.Len(t, results, 3)
	assert.False(t, results[0].Passed, "submission_not_empty fails on an empty map")
}

func TestEvaluateDeterministic(t *testing.T) {
	reg := DefaultRegistry()
	sub := completeSubmission()
	delete(sub, "specialty")

	first := Evaluate(reg, "csf_practitioner", sub)
	for range 10 {
		assert.Equal(t, first, Evaluate(reg, "csf_practitioner", sub))
	}
}

func TestEvaluateTruncatesLongActual(t *testing.T) {
	reg := DefaultRegistry()
	sub := completeSubmission()
	sub["license_state"] = strings.Repeat("z", 500)

	results := Evaluate(reg, "csf_practitioner", sub)
	for _, r := range results {
		if r.RuleID == "license_state_valid" {
			assert.Len(t, r.Actual, maxActualLen)
		}
	}
}

func TestPredicateValidEmail(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"a@b.co", true},
		{"first.last@example.com", true},
		{"not-an-email", false},
		{"missing@domain@twice.com", false},
		{"", false},
	}
	for _, tt := range tests {
		p := NewPayload(map[string]any{"email": tt.addr})
		assert.Equal(t, tt.want, validEmail(p, "email"), "addr %q", tt.addr)
	}
}

func TestPredicatePastDate(t *testing.T) {
	p := NewPayload(map[string]any{
		"past_date":    "2020-06-01",
		"past_rfc3339": "2020-06-01T12:00:00Z",
		"future":       "2999-01-01",
		"garbage":      "next tuesday",
	})
	assert.True(t, pastDate(p, "past_date"))
	assert.True(t, pastDate(p, "past_rfc3339"))
	assert.False(t, pastDate(p, "future"))
	assert.False(t, pastDate(p, "garbage"))
	assert.False(t, pastDate(p, "absent"))
}

func TestPredicateValidUSState(t *testing.T) {
	p := NewPayload(map[string]any{
		"lower": "ca",
		"upper": "NY",
		"terr":  "PR",
		"bad":   "ZZ",
		"name":  "California",
	})
	assert.True(t, validUSState(p, "lower"))
	assert.True(t, validUSState(p, "upper"))
	assert.True(t, validUSState(p, "terr"))
	assert.False(t, validUSState(p, "bad"))
	assert.False(t, validUSState(p, "name"))
}

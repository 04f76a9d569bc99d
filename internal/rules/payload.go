// Package rules provides deterministic validation rule packs and their
// evaluator. Evaluation is a pure function of the rule pack and the
// submission payload; predicates are total and never panic, whatever the
// payload shape.
package rules

import (
	"strconv"
	"strings"
)

// Payload is a read-only accessor over a submission's key/value map with
// safe get-or-default semantics per dotted field path. Rule predicates go
// through Payload so they need no defensive nil-checking of their own.
type Payload struct {
	m map[string]any
}

// NewPayload wraps a submission map. A nil map behaves as an empty payload.
func NewPayload(m map[string]any) Payload {
	return Payload{m: m}
}

// Len returns the number of top-level fields.
func (p Payload) Len() int { return len(p.m) }

// Get resolves a dotted path ("contact.email") through nested maps.
// The second return is false when any path segment is absent or a
// non-map value is traversed.
func (p Payload) Get(path string) (any, bool) {
	if path == "" || p.m == nil {
		return nil, false
	}
	var cur any = p.m
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the field rendered as a trimmed string, or "" when absent.
// Numbers and bools render via strconv so predicates can inspect them
// uniformly.
func (p Payload) String(path string) string {
	v, ok := p.Get(path)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Float returns the field as a float64. JSON numbers arrive as float64;
// numeric strings are parsed as a courtesy to form-shaped payloads.
func (p Payload) Float(path string) (float64, bool) {
	v, ok := p.Get(path)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Has reports whether the field is present and non-empty. Empty strings,
// nil values, and whitespace-only strings count as absent.
func (p Payload) Has(path string) bool {
	v, ok := p.Get(path)
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) != ""
	}
	return true
}

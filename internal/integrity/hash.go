// Package integrity provides tamper-evident input hashing and audit chain
// verification. All functions are pure and deterministic.
package integrity

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// Hash version prefix. Length-prefixed binary encoding avoids delimiter
// collisions when freeform field values contain separator characters.
const hashV1Prefix = "v1:"

// volatileKeys are submission fields excluded from the input hash: they
// change on every request without changing the semantic inputs, and
// including them would defeat duplicate-computation detection.
var volatileKeys = map[string]bool{
	"submitted_at": true,
	"updated_at":   true,
	"request_id":   true,
	"client_ip":    true,
	"user_agent":   true,
}

// ComputeInputHash produces a versioned SHA-256 hex digest over the
// normalized semantic inputs of a computation: the case status plus the
// submission's non-volatile fields in stable key order. Identical
// normalized inputs always produce an identical hash.
func ComputeInputHash(status string, submission map[string]any) string {
	h := sha256.New()
	writeField := func(s string) {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s))) //nolint:gosec // field lengths are bounded by request body limits
		h.Write(lenBuf[:])
		h.Write([]byte(s))
	}

	writeField(status)

	keys := make([]string, 0, len(submission))
	for k := range submission {
		if volatileKeys[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		writeField(k)
		writeField(canonicalValue(submission[k]))
	}

	return hashV1Prefix + hex.EncodeToString(h.Sum(nil))
}

// canonicalValue renders a submission value deterministically. Nested maps
// are re-marshaled with sorted keys (encoding/json sorts map keys), so the
// rendering is stable regardless of the caller's key order.
func canonicalValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

package pipeline

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// numericDate parses a JWT NumericDate claim value (RFC 7519 §2): integer
// or floating-point seconds since the epoch, with fractional seconds
// truncated. It accepts json.Number (the normal shape after decoding with
// UseNumber) and plain float64/int64 for callers that build claims by hand
// in tests.
func numericDate(v any) (time.Time, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(int64(math.Trunc(f)), 0).UTC(), true
	case float64:
		return time.Unix(int64(math.Trunc(n)), 0).UTC(), true
	case int64:
		return time.Unix(n, 0).UTC(), true
	case int:
		return time.Unix(int64(n), 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

// stringClaim returns v as a string, if it is one.
func stringClaim(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// stringOrArraySet builds a StringSet from a claim that may be a single
// string or a JSON array of strings (the shape of "aud"; validateClaims
// passes "roles" and "groups" to it only in their array form).
// Non-string array elements are skipped.
func stringOrArraySet(v any) StringSet {
	switch val := v.(type) {
	case string:
		return NewStringSet(val)
	case []any:
		items := make([]string, 0, len(val))
		for _, e := range val {
			if s, ok := e.(string); ok {
				items = append(items, s)
			}
		}
		return NewStringSet(items...)
	default:
		return NewStringSet()
	}
}

// scopeSet builds a StringSet from a "scope" (space-separated string, OAuth2
// style) or "scp" (JSON array) claim.
func scopeSet(v any) StringSet {
	switch val := v.(type) {
	case string:
		return NewStringSet(strings.Fields(val)...)
	case []any:
		return stringOrArraySet(val)
	default:
		return NewStringSet()
	}
}

// Package events defines the closed taxonomy of validation outcomes and the
// process-scoped counter that tallies them.
package events

import "sync/atomic"

// EventType is the sole machine-readable discriminator for a validation
// outcome, success or failure. It is a closed set: new kinds are never added
// by callers.
type EventType int

const (
	// Format failures.
	TokenEmpty EventType = iota
	TokenSizeExceeded
	InvalidJWTFormat
	FailedToDecodeJWT
	DecodedPartSizeExceeded

	// Header failures.
	AlgorithmNotAllowed
	AlgorithmNoneRejected
	UnsupportedTokenType

	// Key failures.
	KeyNotFound
	KeyResolutionFailed

	// Signature failures.
	SignatureInvalid

	// Claims failures.
	IssuerMismatch
	AudienceMismatch
	AuthorizedPartyMismatch
	AuthorizedPartyMissing
	SubjectMissing
	TokenExpired
	TokenNotYetValid
	TokenIssuedInFuture

	// Cache events.
	AccessTokenCacheHit
	InternalCacheError

	// Success.
	TokenValidated

	// eventTypeCount must stay last; it sizes the counter array.
	eventTypeCount
)

var names = [eventTypeCount]string{
	TokenEmpty:              "TOKEN_EMPTY",
	TokenSizeExceeded:       "TOKEN_SIZE_EXCEEDED",
	InvalidJWTFormat:        "INVALID_JWT_FORMAT",
	FailedToDecodeJWT:       "FAILED_TO_DECODE_JWT",
	DecodedPartSizeExceeded: "DECODED_PART_SIZE_EXCEEDED",
	AlgorithmNotAllowed:     "ALGORITHM_NOT_ALLOWED",
	AlgorithmNoneRejected:   "ALGORITHM_NONE_REJECTED",
	UnsupportedTokenType:    "UNSUPPORTED_TOKEN_TYPE",
	KeyNotFound:             "KEY_NOT_FOUND",
	KeyResolutionFailed:     "KEY_RESOLUTION_FAILED",
	SignatureInvalid:        "SIGNATURE_INVALID",
	IssuerMismatch:          "ISSUER_MISMATCH",
	AudienceMismatch:        "AUDIENCE_MISMATCH",
	AuthorizedPartyMismatch: "AUTHORIZED_PARTY_MISMATCH",
	AuthorizedPartyMissing:  "AUTHORIZED_PARTY_MISSING",
	SubjectMissing:          "SUBJECT_MISSING",
	TokenExpired:            "TOKEN_EXPIRED",
	TokenNotYetValid:        "TOKEN_NOT_YET_VALID",
	TokenIssuedInFuture:     "TOKEN_ISSUED_IN_FUTURE",
	AccessTokenCacheHit:     "ACCESS_TOKEN_CACHE_HIT",
	InternalCacheError:      "INTERNAL_CACHE_ERROR",
	TokenValidated:          "TOKEN_VALIDATED",
}

// String implements fmt.Stringer. Unknown values render as "UNKNOWN".
func (e EventType) String() string {
	if e < 0 || int(e) >= len(names) || names[e] == "" {
		return "UNKNOWN"
	}
	return names[e]
}

// Counter is a process-scoped, thread-safe histogram of EventType counts.
// It is a pure data sink: every other component increments it, nothing reads
// back into validation decisions.
type Counter struct {
	counts [eventTypeCount]atomic.Uint64
}

// NewCounter returns a zeroed counter ready for concurrent use.
func NewCounter() *Counter {
	return &Counter{}
}

// Increment bumps the count for kind by one. Safe for concurrent use.
func (c *Counter) Increment(kind EventType) {
	if kind < 0 || int(kind) >= len(c.counts) {
		return
	}
	c.counts[kind].Add(1)
}

// Snapshot captures the current counts of every known EventType.
type Snapshot map[EventType]uint64

// Count returns the snapshot's count for kind, or 0 if absent.
func (s Snapshot) Count(kind EventType) uint64 {
	return s[kind]
}

// Total sums every counted event in the snapshot.
func (s Snapshot) Total() uint64 {
	var total uint64
	for _, v := range s {
		total += v
	}
	return total
}

// Snapshot returns a point-in-time copy of all counts. Individual counter
// reads are atomic; the snapshot as a whole is not — concurrent increments
// during the scan may or may not be reflected. There is no cross-event
// happens-before guarantee beyond each counter's own atomicity.
func (c *Counter) Snapshot() Snapshot {
	snap := make(Snapshot, eventTypeCount)
	for i := EventType(0); i < eventTypeCount; i++ {
		if v := c.counts[i].Load(); v != 0 {
			snap[i] = v
		}
	}
	return snap
}

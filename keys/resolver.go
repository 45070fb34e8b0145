// Package keys defines the KeyResolver capability the validation pipeline
// consumes, plus a concrete JWKS-backed implementation. Key fetching,
// refresh, and HTTP retry policy are out of scope — resolvers here work
// purely from already-materialized key sets.
package keys

// KeyFamily identifies the algorithm family a VerificationKey belongs to.
type KeyFamily int

const (
	RSA KeyFamily = iota
	EC
	HMAC
)

func (f KeyFamily) String() string {
	switch f {
	case RSA:
		return "RSA"
	case EC:
		return "EC"
	case HMAC:
		return "HMAC"
	default:
		return "UNKNOWN"
	}
}

// VerificationKey exposes a key's algorithm family and the concrete material
// needed to verify a signature. Implementations are immutable; their
// lifetime is at least as long as the pipeline call that resolved them.
type VerificationKey interface {
	Family() KeyFamily
	// Material returns the underlying key object in the shape
	// golang-jwt's SigningMethod.Verify expects: *rsa.PublicKey, *ecdsa.PublicKey,
	// or a []byte secret for HMAC.
	Material() any
}

// ResolutionError is the error type KeyResolver.Resolve returns on failure.
// It carries no machine-readable detail beyond "not found" — the pipeline
// maps any ResolutionError to events.KeyNotFound without inspecting it
// further, never revealing which keys or algorithms were tried.
type ResolutionError struct {
	Message string
}

func (e *ResolutionError) Error() string { return e.Message }

// ErrKeyNotFound is returned when no key matches the requested kid/alg.
var ErrKeyNotFound = &ResolutionError{Message: "no verification key for the given kid/alg"}

// ErrUnsupportedAlgorithm is returned when alg does not map to a known
// family (RSA/EC/HMAC).
var ErrUnsupportedAlgorithm = &ResolutionError{Message: "algorithm does not map to a supported key family"}

// KeyResolver is a pure, thread-safe lookup: resolve(kid, alg) -> key. It
// must not block beyond a bounded internal cache read; background refresh,
// if any, is the implementation's concern and must never run on the
// caller's goroutine.
type KeyResolver interface {
	Resolve(kid *string, alg string) (VerificationKey, error)
}

// algFamily maps a JOSE alg name to its key family. Unknown algs (including
// "none", which the pipeline rejects before ever calling Resolve) report ok=false.
func algFamily(alg string) (KeyFamily, bool) {
	switch alg {
	case "RS256", "RS384", "RS512", "PS256", "PS384", "PS512":
		return RSA, true
	case "ES256", "ES384", "ES512":
		return EC, true
	case "HS256", "HS384", "HS512":
		return HMAC, true
	default:
		return 0, false
	}
}

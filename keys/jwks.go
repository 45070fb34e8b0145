package keys

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding/json"
	"fmt"

	josejwk "github.com/go-jose/go-jose/v4"
)

// staticKey is an immutable VerificationKey materialized once at
// construction time.
type staticKey struct {
	family   KeyFamily
	material any
}

func (k staticKey) Family() KeyFamily { return k.family }
func (k staticKey) Material() any     { return k.material }

// JWKSKeyResolver resolves keys from an in-memory JSON Web Key Set. It never
// performs network I/O; refreshing the underlying set (if the issuer
// rotates keys) is the caller's responsibility — build a new resolver, an
// IssuerConfig around it, and a new TokenValidator from that config.
type JWKSKeyResolver struct {
	byKid map[string]staticKey
	all   []staticKey
}

// NewJWKSKeyResolver materializes verification keys from a parsed JWK set.
// Keys whose type this package does not verify (anything other than RSA,
// EC, or HMAC/oct) are skipped rather than rejected outright — an issuer's
// JWKS commonly carries encryption keys alongside signing keys.
func NewJWKSKeyResolver(set josejwk.JSONWebKeySet) (*JWKSKeyResolver, error) {
	r := &JWKSKeyResolver{byKid: make(map[string]staticKey)}
	for _, jwk := range set.Keys {
		sk, ok := materialize(jwk)
		if !ok {
			continue
		}
		r.all = append(r.all, sk)
		if jwk.KeyID != "" {
			r.byKid[jwk.KeyID] = sk
		}
	}
	if len(r.all) == 0 {
		return nil, fmt.Errorf("jwks contains no usable RSA, EC, or HMAC keys")
	}
	return r, nil
}

// NewJWKSKeyResolverFromJSON parses raw JWKS JSON then delegates to
// NewJWKSKeyResolver.
func NewJWKSKeyResolverFromJSON(data []byte) (*JWKSKeyResolver, error) {
	var set josejwk.JSONWebKeySet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing JWKS: %w", err)
	}
	return NewJWKSKeyResolver(set)
}

func materialize(jwk josejwk.JSONWebKey) (staticKey, bool) {
	switch key := jwk.Key.(type) {
	case *rsa.PublicKey:
		return staticKey{family: RSA, material: key}, true
	case *ecdsa.PublicKey:
		return staticKey{family: EC, material: key}, true
	case []byte:
		return staticKey{family: HMAC, material: key}, true
	default:
		return staticKey{}, false
	}
}

// Resolve implements KeyResolver. When kid is nil, it returns the first key
// whose family matches alg — appropriate for single-key JWKS, ambiguous
// otherwise (callers with multi-key, kid-less JWKS should supply kid).
func (r *JWKSKeyResolver) Resolve(kid *string, alg string) (VerificationKey, error) {
	family, ok := algFamily(alg)
	if !ok {
		return nil, ErrUnsupportedAlgorithm
	}

	if kid != nil {
		key, ok := r.byKid[*kid]
		if !ok || key.family != family {
			return nil, ErrKeyNotFound
		}
		return key, nil
	}

	for _, key := range r.all {
		if key.family == family {
			return key, nil
		}
	}
	return nil, ErrKeyNotFound
}

// StaticKeyResolver is a trivial single-key resolver useful for tests and
// for HMAC-shared-secret issuers that have no JWKS at all.
type StaticKeyResolver struct {
	key staticKey
}

// NewStaticKeyResolver builds a resolver that always returns the same key
// regardless of kid, provided alg maps to family.
func NewStaticKeyResolver(family KeyFamily, material any) *StaticKeyResolver {
	return &StaticKeyResolver{key: staticKey{family: family, material: material}}
}

func (r *StaticKeyResolver) Resolve(_ *string, alg string) (VerificationKey, error) {
	family, ok := algFamily(alg)
	if !ok || family != r.key.family {
		return nil, ErrKeyNotFound
	}
	return r.key, nil
}

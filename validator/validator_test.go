package validator

import (
	"encoding/base64"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oidcguard/jwtcore/events"
	"github.com/oidcguard/jwtcore/keys"
	"github.com/oidcguard/jwtcore/pipeline"
)

const testSecret = "super-secret-validator-key"

func b64(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

func signHS256(t *testing.T, header, payload string) string {
	t.Helper()
	signingInput := b64(header) + "." + b64(payload)
	sig, err := jwt.SigningMethodHS256.Sign(signingInput, []byte(testSecret))
	require.NoError(t, err)
	return signingInput + "." + base64.RawURLEncoding.EncodeToString([]byte(sig))
}

func newTestValidator() *TokenValidator {
	resolver := keys.NewStaticKeyResolver(keys.HMAC, []byte(testSecret))
	issuer := pipeline.NewIssuerConfig("https://issuer.example", []string{"client-a"}, resolver, []string{"HS256"}).
		WithExpectedClientID("client-a")
	cfg := DefaultConfig()
	cfg.IssuerConfigs = []pipeline.IssuerConfig{issuer}
	return New(cfg)
}

func tokenFor(t *testing.T, exp, iat int64, aud string) string {
	header := `{"alg":"HS256"}`
	payload := fmt.Sprintf(`{"iss":"https://issuer.example","sub":"u1","aud":%q,"azp":"client-a","exp":%d,"iat":%d}`, aud, exp, iat)
	return signHS256(t, header, payload)
}

func TestValidatorHappyPath(t *testing.T) {
	v := newTestValidator()
	defer v.Shutdown(time.Second)

	now := time.Now().Unix()
	raw := tokenFor(t, now+3600, now, "client-a")

	content, verr := v.Validate(raw)
	require.Nil(t, verr)
	require.NotNil(t, content)
	assert.Equal(t, "u1", content.Subject)
	assert.True(t, content.HasAudience("client-a"))
	assert.Equal(t, uint64(1), v.SecurityEvents().Count(events.TokenValidated))
}

func TestValidatorExpiredToken(t *testing.T) {
	v := newTestValidator()
	defer v.Shutdown(time.Second)

	now := time.Now().Unix()
	raw := tokenFor(t, now-1, now-10, "client-a")

	_, verr := v.Validate(raw)
	require.NotNil(t, verr)
	assert.Equal(t, events.TokenExpired, verr.Kind)
}

func TestValidatorWrongAudience(t *testing.T) {
	v := newTestValidator()
	defer v.Shutdown(time.Second)

	now := time.Now().Unix()
	raw := tokenFor(t, now+3600, now, "other")

	_, verr := v.Validate(raw)
	require.NotNil(t, verr)
	assert.Equal(t, events.AudienceMismatch, verr.Kind)
}

func TestValidatorSignatureTampering(t *testing.T) {
	v := newTestValidator()
	defer v.Shutdown(time.Second)

	now := time.Now().Unix()
	raw := tokenFor(t, now+3600, now, "client-a")
	tampered := raw[:len(raw)-2] + "xx"

	_, verr := v.Validate(tampered)
	require.NotNil(t, verr)
	assert.Equal(t, events.SignatureInvalid, verr.Kind)
}

func TestValidatorUnknownIssuerRejected(t *testing.T) {
	v := newTestValidator()
	defer v.Shutdown(time.Second)

	now := time.Now().Unix()
	header := `{"alg":"HS256"}`
	payload := fmt.Sprintf(`{"iss":"https://not-configured.example","sub":"u1","aud":"client-a","exp":%d}`, now+3600)
	raw := signHS256(t, header, payload)

	_, verr := v.Validate(raw)
	require.NotNil(t, verr)
	assert.Equal(t, events.IssuerMismatch, verr.Kind)
}

func TestValidatorSecondCallIsCacheHit(t *testing.T) {
	v := newTestValidator()
	defer v.Shutdown(time.Second)

	now := time.Now().Unix()
	raw := tokenFor(t, now+3600, now, "client-a")

	_, verr := v.Validate(raw)
	require.Nil(t, verr)

	_, verr = v.Validate(raw)
	require.Nil(t, verr)

	assert.Equal(t, uint64(1), v.SecurityEvents().Count(events.AccessTokenCacheHit))
	assert.Equal(t, uint64(1), v.SecurityEvents().Count(events.TokenValidated))
}

func TestValidatorConcurrentValidationOfSameToken(t *testing.T) {
	v := newTestValidator()
	defer v.Shutdown(time.Second)

	now := time.Now().Unix()
	raw := tokenFor(t, now+3600, now, "client-a")

	const workers = 100
	var wg sync.WaitGroup
	wg.Add(workers)
	errs := make([]*events.ValidationError, workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			_, verr := v.Validate(raw)
			errs[i] = verr
		}(i)
	}
	wg.Wait()

	for _, verr := range errs {
		assert.Nil(t, verr)
	}
	assert.Equal(t, 1, v.cache.Len())
}

func TestValidatorShutdownStopsSweepAndClearsCache(t *testing.T) {
	v := newTestValidator()

	now := time.Now().Unix()
	raw := tokenFor(t, now+3600, now, "client-a")
	_, verr := v.Validate(raw)
	require.Nil(t, verr)
	require.Equal(t, 1, v.cache.Len())

	require.NoError(t, v.Shutdown(time.Second))
	assert.Equal(t, 0, v.cache.Len())
}

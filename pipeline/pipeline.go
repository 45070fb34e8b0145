// Package pipeline implements the header → key → signature → claims
// validation chain: the first failure aborts, discloses nothing about
// later checks, and increments exactly one SecurityEventCounter entry.
package pipeline

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oidcguard/jwtcore/events"
	"github.com/oidcguard/jwtcore/internal/jwtlog"
	"github.com/oidcguard/jwtcore/keys"
	"github.com/oidcguard/jwtcore/monitor"
	"github.com/oidcguard/jwtcore/parser"
)

// Config controls pipeline-wide, issuer-independent behavior.
type Config struct {
	ClockSkewSeconds uint32 `env:"JWT_CLOCK_SKEW_SECONDS" envDefault:"60" validate:"omitempty"`
}

// DefaultConfig returns the standard 60-second clock skew tolerance.
func DefaultConfig() Config {
	return Config{ClockSkewSeconds: 60}
}

// ValidationPipeline runs stages 1-4 of the validation state machine:
// PARSED → HEADER_OK → KEY_RESOLVED → SIGNATURE_OK → CLAIMS_OK → VALIDATED,
// any state terminating in FAILED(kind) on the first failing check.
type ValidationPipeline struct {
	cfg     Config
	mon     monitor.Monitor
	counter *events.Counter
	now     func() time.Time
}

// New builds a pipeline. A nil monitor is treated as disabled; a nil
// counter is treated as a fresh, unshared one (mostly useful in tests).
func New(cfg Config, mon monitor.Monitor, counter *events.Counter) *ValidationPipeline {
	if mon == nil {
		mon = monitor.New(monitor.Config{Enabled: false})
	}
	if counter == nil {
		counter = events.NewCounter()
	}
	return &ValidationPipeline{cfg: cfg, mon: mon, counter: counter, now: time.Now}
}

// Validate runs the full pipeline against an already-parsed token. It never
// re-parses or re-touches decoded.Raw beyond what DecodedJwt already
// carries.
func (p *ValidationPipeline) Validate(decoded *parser.DecodedJwt, issuer IssuerConfig) (*AccessTokenContent, *events.ValidationError) {
	complete := p.mon.Start(monitor.CompleteValidation)
	defer complete.StopAndRecord()

	if verr := p.validateHeader(decoded.Header, issuer); verr != nil {
		return p.fail(verr)
	}

	key, verr := p.resolveKey(decoded.Header, issuer)
	if verr != nil {
		return p.fail(verr)
	}

	if verr := p.verifySignature(decoded, key); verr != nil {
		return p.fail(verr)
	}

	content, verr := p.validateClaims(decoded, issuer)
	if verr != nil {
		return p.fail(verr)
	}

	p.counter.Increment(events.TokenValidated)
	return content, nil
}

func (p *ValidationPipeline) fail(verr *events.ValidationError) (*AccessTokenContent, *events.ValidationError) {
	p.counter.Increment(verr.Kind)
	jwtlog.L().Warn("jwt validation failed", "kind", verr.Kind.String(), "reason", verr.Message)
	return nil, verr
}

func (p *ValidationPipeline) validateHeader(header parser.JwtHeader, issuer IssuerConfig) *events.ValidationError {
	ticker := p.mon.Start(monitor.HeaderValidation)
	defer ticker.StopAndRecord()

	if header.Alg == "none" {
		return events.NewValidationError(events.AlgorithmNoneRejected, "alg \"none\" is never accepted")
	}
	if !issuer.SupportedAlgorithms.Contains(header.Alg) {
		return events.NewValidationError(events.AlgorithmNotAllowed, "alg not in issuer's supported algorithm whitelist")
	}
	if header.Typ != nil {
		typ := strings.ToUpper(*header.Typ)
		if typ != "JWT" && typ != "AT+JWT" {
			return events.NewValidationError(events.UnsupportedTokenType, "typ must be JWT or at+jwt")
		}
	}
	return nil
}

func (p *ValidationPipeline) resolveKey(header parser.JwtHeader, issuer IssuerConfig) (keys.VerificationKey, *events.ValidationError) {
	ticker := p.mon.Start(monitor.KeyResolution)
	defer ticker.StopAndRecord()

	key, err := issuer.KeyResolver.Resolve(header.Kid, header.Alg)
	if err != nil {
		return nil, events.Wrap(events.KeyNotFound, "key resolver returned no usable key", err)
	}
	return key, nil
}

func (p *ValidationPipeline) verifySignature(decoded *parser.DecodedJwt, key keys.VerificationKey) *events.ValidationError {
	ticker := p.mon.Start(monitor.SignatureValidation)
	defer ticker.StopAndRecord()

	if len(decoded.SignatureBytes) == 0 {
		return events.NewValidationError(events.SignatureInvalid, "signature is empty")
	}

	method := jwt.GetSigningMethod(decoded.Header.Alg)
	if method == nil {
		return events.NewValidationError(events.SignatureInvalid, "unknown signing method")
	}

	// method.Verify uses constant-time comparison for HMAC variants
	// internally (hmac.Equal), so no bespoke timing-safe compare is
	// needed here.
	if err := method.Verify(string(decoded.SigningInput), decoded.SignatureBytes, key.Material()); err != nil {
		return events.Wrap(events.SignatureInvalid, "signature verification failed", err)
	}
	return nil
}

func (p *ValidationPipeline) validateClaims(decoded *parser.DecodedJwt, issuer IssuerConfig) (*AccessTokenContent, *events.ValidationError) {
	ticker := p.mon.Start(monitor.ClaimsValidation)
	defer ticker.StopAndRecord()

	payload := decoded.Payload
	now := p.now()
	skew := time.Duration(p.cfg.ClockSkewSeconds) * time.Second

	issClaim, ok := stringClaim(payload["iss"])
	if !ok || issClaim != issuer.IssuerIdentifier {
		return nil, events.NewValidationError(events.IssuerMismatch, "iss claim missing or does not match issuer")
	}

	// exp has no grace period: an expired token is expired the instant
	// now reaches exp, independent of clock-skew tolerance (which only
	// widens the nbf/iat windows below). A missing or malformed exp is
	// treated the same as an expired one — AccessTokenContent always
	// carries an expiration, so there is nothing else to assemble.
	expRaw, hasExp := payload["exp"]
	exp, expOk := numericDate(expRaw)
	if !hasExp || !expOk || !now.Before(exp) {
		return nil, events.NewValidationError(events.TokenExpired, "exp claim missing, malformed, or in the past")
	}

	var notBefore *time.Time
	if nbfRaw, ok := payload["nbf"]; ok {
		nbf, ok := numericDate(nbfRaw)
		if !ok {
			return nil, events.NewValidationError(events.TokenExpired, "nbf claim is malformed")
		}
		if now.Add(skew).Before(nbf) {
			return nil, events.NewValidationError(events.TokenNotYetValid, "nbf is in the future beyond clock skew")
		}
		notBefore = &nbf
	}

	var issuedAt *time.Time
	if iatRaw, ok := payload["iat"]; ok {
		iat, ok := numericDate(iatRaw)
		if !ok {
			return nil, events.NewValidationError(events.TokenExpired, "iat claim is malformed")
		}
		if iat.After(now.Add(skew)) {
			return nil, events.NewValidationError(events.TokenIssuedInFuture, "iat is after now plus clock skew")
		}
		issuedAt = &iat
	}

	audience := stringOrArraySet(payload["aud"])
	if len(issuer.ExpectedAudience) > 0 && !audience.Intersects(issuer.ExpectedAudience) {
		return nil, events.NewValidationError(events.AudienceMismatch, "aud does not intersect issuer's expected audience")
	}

	if issuer.ExpectedClientID != nil {
		azp, hasAzp := stringClaim(payload["azp"])
		if !hasAzp {
			return nil, events.NewValidationError(events.AuthorizedPartyMissing, "azp required by issuer config but absent")
		}
		if azp != *issuer.ExpectedClientID {
			return nil, events.NewValidationError(events.AuthorizedPartyMismatch, "azp does not match issuer's expected client id")
		}
	}

	subject, ok := stringClaim(payload["sub"])
	if !ok || subject == "" {
		return nil, events.NewValidationError(events.SubjectMissing, "sub claim is required for access tokens")
	}

	scopes := scopeSet(payload["scope"])
	if len(scopes) == 0 {
		scopes = scopeSet(payload["scp"])
	}

	// roles and groups are enrichment claims: only their array form is
	// read, and any other shape is ignored without failing validation.
	roles, _ := payload["roles"].([]any)
	groups, _ := payload["groups"].([]any)
	for _, name := range []string{"roles", "groups"} {
		if v, present := payload[name]; present {
			if _, isArray := v.([]any); !isArray {
				jwtlog.L().Debug("ignoring non-array claim", "claim", name)
			}
		}
	}

	return &AccessTokenContent{
		Raw:        decoded.Raw,
		Issuer:     issClaim,
		Subject:    subject,
		Audience:   audience,
		Scopes:     scopes,
		Roles:      stringOrArraySet(roles),
		Groups:     stringOrArraySet(groups),
		Expiration: exp,
		NotBefore:  notBefore,
		IssuedAt:   issuedAt,
		Claims:     payload,
	}, nil
}

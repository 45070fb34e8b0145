// Package parser implements the non-validating JWT parser: it splits the
// compact serialization into its three parts, decodes header and payload
// JSON under strict size/depth/string/array limits, and never touches key
// material. The output is a DecodedJwt or a typed events.ValidationError.
package parser

import (
	"encoding/base64"
	"strings"

	"github.com/oidcguard/jwtcore/events"
	"github.com/oidcguard/jwtcore/internal/jwtlog"
	"github.com/oidcguard/jwtcore/monitor"
)

// JwtHeader is the typed view of the JOSE header fields this module
// consumes. Other header fields are discarded — the validation pipeline
// never needs them.
type JwtHeader struct {
	Alg string
	Kid *string
	Typ *string
}

// DecodedJwt is the parser's output. SigningInput is the exact ASCII bytes
// that were signed (header_b64url + "." + payload_b64url): it is never
// reconstructed from re-serialized JSON, only sliced from the original raw
// token, so it is byte-for-byte what the signer produced.
type DecodedJwt struct {
	Raw            string
	Header         JwtHeader
	Payload        map[string]any
	SignatureBytes []byte
	SigningInput   []byte
}

// NonValidatingParser decodes compact JWTs under a fixed set of hardening
// limits. It never resolves keys or verifies signatures.
type NonValidatingParser struct {
	cfg Config
	mon monitor.Monitor
}

// New builds a parser. A nil monitor is treated as disabled.
func New(cfg Config, mon monitor.Monitor) *NonValidatingParser {
	if mon == nil {
		mon = monitor.New(monitor.Config{Enabled: false})
	}
	return &NonValidatingParser{cfg: cfg, mon: mon}
}

// Decode splits and decodes raw. When logWarn is true, parse failures are
// logged at warn level (never including the raw token).
func (p *NonValidatingParser) Decode(raw string, logWarn bool) (*DecodedJwt, *events.ValidationError) {
	ticker := p.mon.Start(monitor.TokenParsing)
	defer ticker.StopAndRecord()

	decoded, verr := p.decode(raw)
	if verr != nil && logWarn {
		jwtlog.L().Warn("jwt parse failed", "kind", verr.Kind.String(), "reason", verr.Message)
	}
	return decoded, verr
}

func (p *NonValidatingParser) decode(raw string) (*DecodedJwt, *events.ValidationError) {
	if raw == "" {
		return nil, events.NewValidationError(events.TokenEmpty, "raw token is empty")
	}
	if uint32(len(raw)) > p.cfg.MaxTokenSize {
		return nil, events.NewValidationError(events.TokenSizeExceeded, "raw token exceeds max token size")
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, events.NewValidationError(events.InvalidJWTFormat, "expected exactly three dot-separated parts")
	}
	headerB64, payloadB64, sigB64 := parts[0], parts[1], parts[2]

	headerBytes, err := base64.RawURLEncoding.DecodeString(headerB64)
	if err != nil {
		return nil, events.Wrap(events.FailedToDecodeJWT, "header is not valid base64url", err)
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, events.Wrap(events.FailedToDecodeJWT, "payload is not valid base64url", err)
	}
	sigBytes, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return nil, events.Wrap(events.FailedToDecodeJWT, "signature is not valid base64url", err)
	}

	if uint32(len(headerBytes)) > p.cfg.MaxPayloadSize {
		return nil, events.NewValidationError(events.DecodedPartSizeExceeded, "decoded header exceeds max payload size")
	}
	if uint32(len(payloadBytes)) > p.cfg.MaxPayloadSize {
		return nil, events.NewValidationError(events.DecodedPartSizeExceeded, "decoded payload exceeds max payload size")
	}

	headerMap, err := decodeLimitedObject(headerBytes, p.cfg)
	if err != nil {
		return nil, events.Wrap(events.FailedToDecodeJWT, "header JSON is malformed or exceeds limits", err)
	}
	payloadMap, err := decodeLimitedObject(payloadBytes, p.cfg)
	if err != nil {
		return nil, events.Wrap(events.FailedToDecodeJWT, "payload JSON is malformed or exceeds limits", err)
	}

	header, verr := toHeader(headerMap)
	if verr != nil {
		return nil, verr
	}

	signingInput := make([]byte, 0, len(headerB64)+1+len(payloadB64))
	signingInput = append(signingInput, headerB64...)
	signingInput = append(signingInput, '.')
	signingInput = append(signingInput, payloadB64...)

	return &DecodedJwt{
		Raw:            raw,
		Header:         header,
		Payload:        payloadMap,
		SignatureBytes: sigBytes,
		SigningInput:   signingInput,
	}, nil
}

func toHeader(m map[string]any) (JwtHeader, *events.ValidationError) {
	algRaw, ok := m["alg"]
	if !ok {
		return JwtHeader{}, events.NewValidationError(events.FailedToDecodeJWT, "header missing alg")
	}
	alg, ok := algRaw.(string)
	if !ok || alg == "" {
		return JwtHeader{}, events.NewValidationError(events.FailedToDecodeJWT, "header alg is not a non-empty string")
	}

	h := JwtHeader{Alg: alg}
	if kidRaw, ok := m["kid"]; ok {
		if kid, ok := kidRaw.(string); ok {
			h.Kid = &kid
		}
	}
	if typRaw, ok := m["typ"]; ok {
		if typ, ok := typRaw.(string); ok {
			h.Typ = &typ
		}
	}
	return h, nil
}

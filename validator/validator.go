// Package validator assembles the parser, pipeline, cache, and monitor into
// the library's single public entry point: TokenValidator.
package validator

import (
	"context"
	"time"

	"github.com/oidcguard/jwtcore/cache"
	"github.com/oidcguard/jwtcore/events"
	"github.com/oidcguard/jwtcore/internal/jwtlog"
	"github.com/oidcguard/jwtcore/monitor"
	"github.com/oidcguard/jwtcore/parser"
	"github.com/oidcguard/jwtcore/pipeline"
)

// TokenValidator is the library's public entry point. One instance is built
// per process (or per distinct set of trusted issuers) and shared read-only
// across every validating goroutine.
type TokenValidator struct {
	issuers map[string]pipeline.IssuerConfig

	parser   *parser.NonValidatingParser
	pipeline *pipeline.ValidationPipeline
	cache    *cache.AccessTokenCache
	monitor  monitor.Monitor
	counter  *events.Counter
}

// New builds a TokenValidator from cfg and starts the cache's background
// eviction sweep.
func New(cfg Config) *TokenValidator {
	mon := monitor.New(cfg.Monitor)
	counter := events.NewCounter()

	issuers := make(map[string]pipeline.IssuerConfig, len(cfg.IssuerConfigs))
	for _, ic := range cfg.IssuerConfigs {
		issuers[ic.IssuerIdentifier] = ic
	}

	v := &TokenValidator{
		issuers:  issuers,
		parser:   parser.New(cfg.Parser, mon),
		pipeline: pipeline.New(cfg.Pipeline, mon, counter),
		cache:    cache.New(cfg.Cache, mon, counter),
		monitor:  mon,
		counter:  counter,
	}
	v.cache.Start(context.Background())
	return v
}

// Validate runs raw through the full validation flow: parse, look up the
// issuer by the iss claim, consult the cache, and on a miss run the full
// pipeline and populate the cache for next time.
func (v *TokenValidator) Validate(raw string) (*pipeline.AccessTokenContent, *events.ValidationError) {
	decoded, verr := v.parser.Decode(raw, true)
	if verr != nil {
		v.counter.Increment(verr.Kind)
		return nil, verr
	}

	issuerClaim, _ := decoded.Payload["iss"].(string)
	issuer, ok := v.issuers[issuerClaim]
	if !ok {
		verr := events.NewValidationError(events.IssuerMismatch, "no configured issuer matches the token's iss claim")
		v.counter.Increment(verr.Kind)
		jwtlog.L().Warn("jwt validation failed", "kind", verr.Kind.String(), "reason", verr.Message)
		return nil, verr
	}

	if cached, verr := v.cache.Get(raw); cached != nil || verr != nil {
		return cached, verr
	}

	content, verr := v.pipeline.Validate(decoded, issuer)
	if verr != nil {
		return nil, verr
	}

	if verr := v.cache.Put(raw, content); verr != nil {
		// InternalCacheError indicates a bug (a validated token with no
		// exp) rather than a cacheability problem the caller can act on;
		// the token is still validated, so return it unchanged.
		jwtlog.L().Error("failed to cache validated token", "reason", verr.Message)
	}

	return content, nil
}

// SecurityEvents returns a point-in-time snapshot of every validation
// outcome counted so far.
func (v *TokenValidator) SecurityEvents() events.Snapshot {
	return v.counter.Snapshot()
}

// MonitorStats returns running percentile statistics for one measurement
// type. Returns a zero Statistics if the monitor is disabled.
func (v *TokenValidator) MonitorStats(kind monitor.MeasurementType) monitor.Statistics {
	return v.monitor.Statistics(kind)
}

// Shutdown stops the cache's background eviction sweep and clears it. It
// blocks up to timeout for the sweep goroutine to exit cleanly.
func (v *TokenValidator) Shutdown(timeout time.Duration) error {
	err := v.cache.Stop(timeout)
	v.cache.Clear()
	return err
}

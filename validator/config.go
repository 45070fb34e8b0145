package validator

import (
	"github.com/oidcguard/jwtcore/cache"
	"github.com/oidcguard/jwtcore/monitor"
	"github.com/oidcguard/jwtcore/parser"
	"github.com/oidcguard/jwtcore/pipeline"
)

// Config gathers every configurable knob of a TokenValidator. New uses each
// sub-config exactly as given and does not substitute defaults for zero
// values (a zero parser.Config rejects every token, a zero cache.Config
// disables the cache); start from DefaultConfig and set IssuerConfigs.
type Config struct {
	IssuerConfigs []pipeline.IssuerConfig
	Parser        parser.Config
	Pipeline      pipeline.Config
	Cache         cache.Config
	Monitor       monitor.Config
}

// DefaultConfig returns a Config with every sub-config at its spec-mandated
// default and no issuers configured.
func DefaultConfig() Config {
	return Config{
		Parser:   parser.DefaultConfig(),
		Pipeline: pipeline.DefaultConfig(),
		Cache:    cache.DefaultConfig(),
		Monitor:  monitor.DefaultConfig(),
	}
}

package pipeline

import "github.com/oidcguard/jwtcore/keys"

// IssuerConfig is one trust root: a TokenValidator holds a list of these,
// read-only after construction and shared across every validating
// goroutine. Replacing an issuer's configuration means constructing a new
// TokenValidator, never mutating one in place.
type IssuerConfig struct {
	IssuerIdentifier    string
	ExpectedAudience    StringSet
	ExpectedClientID    *string
	KeyResolver         keys.KeyResolver
	SupportedAlgorithms StringSet
}

// NewIssuerConfig builds an IssuerConfig from plain slices. An empty
// audience list means "skip the audience check" (spec §4.2); an empty
// algorithm whitelist means "reject every algorithm".
func NewIssuerConfig(issuerIdentifier string, expectedAudience []string, resolver keys.KeyResolver, supportedAlgorithms []string) IssuerConfig {
	return IssuerConfig{
		IssuerIdentifier:    issuerIdentifier,
		ExpectedAudience:    NewStringSet(expectedAudience...),
		KeyResolver:         resolver,
		SupportedAlgorithms: NewStringSet(supportedAlgorithms...),
	}
}

// WithExpectedClientID sets the azp-matching client ID and returns the
// updated config, for chaining after NewIssuerConfig.
func (c IssuerConfig) WithExpectedClientID(clientID string) IssuerConfig {
	c.ExpectedClientID = &clientID
	return c
}

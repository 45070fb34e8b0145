package pipeline

import "time"

// AccessTokenContent is the successful validation result: an immutable,
// typed view over the claims of a token that passed every pipeline stage.
// Invariant: Expiration is always set, and is strictly after IssuedAt when
// both are present.
type AccessTokenContent struct {
	Raw        string
	Issuer     string
	Subject    string
	Audience   StringSet
	Scopes     StringSet
	Roles      StringSet
	Groups     StringSet
	Expiration time.Time
	NotBefore  *time.Time
	IssuedAt   *time.Time

	// Claims holds every claim from the payload, verbatim, for extension
	// access beyond the typed fields above.
	Claims map[string]any
}

// HasScope reports whether scope is present in the token's scope set.
func (c *AccessTokenContent) HasScope(scope string) bool { return c.Scopes.Contains(scope) }

// HasRole reports whether role is present in the token's role set.
func (c *AccessTokenContent) HasRole(role string) bool { return c.Roles.Contains(role) }

// HasGroup reports whether group is present in the token's group set.
func (c *AccessTokenContent) HasGroup(group string) bool { return c.Groups.Contains(group) }

// HasAudience reports whether aud is present in the token's audience set.
func (c *AccessTokenContent) HasAudience(aud string) bool { return c.Audience.Contains(aud) }

package models

import "strings"

// IdentityType classifies how the caller was authenticated upstream.
type IdentityType string

const (
	IdentityTypeKey    IdentityType = "key"
	IdentityTypeOAuth2 IdentityType = "oauth2"
)

// Caller is the per-request authenticated identity, built fresh from the
// transport headers and discarded at request end.
type Caller struct {
	Identity     string
	IdentityType IdentityType
	Roles        map[string]struct{}
}

// HasRole reports whether the caller was granted the given role.
func (c *Caller) HasRole(role string) bool {
	if c == nil {
		return false
	}
	_, ok := c.Roles[role]
	return ok
}

// ParseRoles splits a space-delimited roles header into a de-duplicated set.
// Blank input yields an empty set.
func ParseRoles(raw string) map[string]struct{} {
	fields := strings.Fields(raw)
	roles := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		roles[f] = struct{}{}
	}
	return roles
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// Principal is the authenticated identity attached to a single request.
//
// It is built from verified [Claims] by the authentication middleware and is
// never persisted.
type Principal struct {
	Username string
	UserID   string
	Email    string
	Roles    []string

	authorities map[string]struct{}
}

// NewPrincipal materializes a principal from verified claims. Every role name
// becomes one granted authority.
func NewPrincipal(claims *Claims) *Principal {
	roles := make([]string, len(claims.Roles))
	copy(roles, claims.Roles)

	authorities := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		authorities[role] = struct{}{}
	}

	return &Principal{
		Username:    claims.Subject,
		UserID:      claims.UserID,
		Email:       claims.Email,
		Roles:       roles,
		authorities: authorities,
	}
}

// HasAuthority reports whether name was granted.
func (principal *Principal) HasAuthority(name string) bool {
	_, ok := principal.authorities[name]
	return ok
}

// HasAnyAuthority reports whether at least one of names was granted.
func (principal *Principal) HasAnyAuthority(names ...string) bool {
	for _, name := range names {
		if principal.HasAuthority(name) {
			return true
		}
	}
	return false
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// Role names double as authority strings; the ROLE_ prefix is kept verbatim.
const (
	// Default role for standard registered users
	RoleUser = "ROLE_USER"

	// Unrestricted system access
	RoleAdmin = "ROLE_ADMIN"
)

// AdminRoleRequest is the only registration query value that yields [RoleAdmin].
const AdminRoleRequest = "admin"

// RoleForRequest maps the caller-supplied registration role onto a role name.
//
// Exactly "admin" selects [RoleAdmin]; anything else, including the empty
// string and other spellings, selects [RoleUser].
func RoleForRequest(requested string) string {
	if requested == AdminRoleRequest {
		return RoleAdmin
	}
	return RoleUser
}

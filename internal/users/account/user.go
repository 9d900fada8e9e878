// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account owns the persistence of user accounts and their roles.

It defines the User and Role entities, the repository contracts consumed by the
authentication services, and two implementations of them: PostgreSQL for
deployments and an in-memory store for local development and tests.

# Architecture

  - Entities: User, Role.
  - Invariants: username and role name are unique; the store enforces both.
  - Security: the password field only ever holds an encoded hash and is never
    serialized.
*/
package account

import (
	"github.com/taibuivan/bookshelf-users/internal/platform/apperr"
)

// # Domain Entities

// Role is a named bundle of authorities, e.g. ROLE_USER.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is a registered account.
//
// The role is flattened into RoleID plus the eagerly loaded RoleName.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Explicitly omitted from JSON for security.
	RoleID       int64  `json:"-"`
	RoleName     string `json:"role"`
}

// # Errors

var (
	// ErrUserNotFound is returned when no user matches a lookup.
	ErrUserNotFound = apperr.NotFound("User")

	// ErrRoleNotFound is returned when no role matches a lookup.
	ErrRoleNotFound = apperr.NotFound("Role")

	// ErrDuplicate is returned when an insert would break username or role
	// name uniqueness.
	ErrDuplicate = apperr.Conflict("Account already exists")
)

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import "context"

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByUsername returns the account with the given username.

		Parameters:
		  - context: context.Context
		  - username: string (already canonicalized)

		Returns:
		  - *User: Hydrated entity including RoleName
		  - error: ErrUserNotFound or storage failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *User: Hydrated entity including RoleName
		  - error: ErrUserNotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*User, error)

	/*
		Create persists a brand-new user account and assigns its ID.

		Parameters:
		  - context: context.Context
		  - user: *User (ID is overwritten; RoleID must reference an existing role)

		Returns:
		  - error: ErrDuplicate when the username is taken, or storage failures
	*/
	Create(context context.Context, user *User) error
}

// # Role Data Access

// RoleRepository defines the data access contract for roles.
type RoleRepository interface {

	/*
		FindByName returns the role with the given name.

		Parameters:
		  - context: context.Context
		  - name: string

		Returns:
		  - *Role: Hydrated entity
		  - error: ErrRoleNotFound or storage failures
	*/
	FindByName(context context.Context, name string) (*Role, error)

	/*
		Create persists a new role and assigns its ID.

		Parameters:
		  - context: context.Context
		  - role: *Role

		Returns:
		  - error: ErrDuplicate when the name exists, or storage failures
	*/
	Create(context context.Context, role *Role) error
}

// Store bundles both repositories behind one value, as returned by
// [NewPostgresStore] and [NewMemoryStore].
type Store struct {
	Users UserRepository
	Roles RoleRepository
}

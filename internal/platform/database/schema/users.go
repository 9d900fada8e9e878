// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns of the account database.
//
// Queries are assembled from these definitions so a column rename in a
// migration has exactly one place to follow in Go code.
package schema

// UsersTable represents the 'users' table.
type UsersTable struct {
	Table    string
	ID       string
	Username string
	Email    string
	Password string
	RoleID   string
}

// Users is the schema definition for users.
var Users = UsersTable{
	Table:    "users",
	ID:       "id",
	Username: "username",
	Email:    "email",
	Password: "password",
	RoleID:   "role_id",
}

// RolesTable represents the 'roles' table.
type RolesTable struct {
	Table string
	ID    string
	Name  string
}

// Roles is the schema definition for roles.
var Roles = RolesTable{
	Table: "roles",
	ID:    "id",
	Name:  "name",
}

// Columns returns all standard column names.
func (t RolesTable) Columns() []string {
	return []string{t.ID, t.Name}
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/bookshelf-users/internal/platform/database/schema"
	"github.com/taibuivan/bookshelf-users/internal/platform/dberr"
)

// NewPostgresStore wires both repositories to the same pool.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Users: NewUserRepository(pool),
		Roles: NewRoleRepository(pool),
	}
}

// # User Repository

// PostgresUserRepository implements [UserRepository] using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// selectUserQuery joins the role name onto a user row; callers append the WHERE clause.
var selectUserQuery = fmt.Sprintf(`
		SELECT u.%s, u.%s, u.%s, u.%s, u.%s, r.%s
		FROM %s u
		JOIN %s r ON r.%s = u.%s`,
	schema.Users.ID, schema.Users.Username, schema.Users.Email, schema.Users.Password, schema.Users.RoleID,
	schema.Roles.Name,
	schema.Users.Table, schema.Roles.Table, schema.Roles.ID, schema.Users.RoleID,
)

/*
FindByUsername retrieves a user record by their unique username.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated account entity
  - error: ErrUserNotFound or database errors
*/
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	query := selectUserQuery + fmt.Sprintf(" WHERE u.%s = $1", schema.Users.Username)

	user, err := repository.scanOne(context, query, username)
	if err != nil {
		return nil, fmt.Errorf("postgres_user_repo_find_by_username_failed: %w", err)
	}
	return user, nil
}

/*
FindByID retrieves a user record by primary key.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *User: Hydrated account entity
  - error: ErrUserNotFound or database errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id int64) (*User, error) {
	query := selectUserQuery + fmt.Sprintf(" WHERE u.%s = $1", schema.Users.ID)

	user, err := repository.scanOne(context, query, id)
	if err != nil {
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}
	return user, nil
}

func (repository *PostgresUserRepository) scanOne(context context.Context, query string, argument any) (*User, error) {
	user := &User{}
	err := repository.pool.QueryRow(context, query, argument).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.RoleID,
		&user.RoleName,
	)
	if err != nil {
		return nil, dberr.Wrap(err, ErrUserNotFound, nil)
	}
	return user, nil
}

/*
Create inserts a new user row and stores the generated ID on user.

Description: The unique index on username turns a concurrent duplicate
registration into ErrDuplicate.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: ErrDuplicate, foreign key or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, $4)
		RETURNING %s`,
		schema.Users.Table,
		schema.Users.Username, schema.Users.Email, schema.Users.Password, schema.Users.RoleID,
		schema.Users.ID,
	)

	err := repository.pool.QueryRow(context, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.RoleID,
	).Scan(&user.ID)

	if err != nil {
		return fmt.Errorf("postgres_user_repo_create_failed: %w", dberr.Wrap(err, nil, ErrDuplicate))
	}

	return nil
}

// # Role Repository

// PostgresRoleRepository implements [RoleRepository] using pgx.
type PostgresRoleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository creates a new PostgreSQL implementation of the RoleRepository.
func NewRoleRepository(pool *pgxpool.Pool) *PostgresRoleRepository {
	return &PostgresRoleRepository{pool: pool}
}

/*
FindByName retrieves a role by its unique name.

Parameters:
  - context: context.Context
  - name: string (e.g. ROLE_USER)

Returns:
  - *Role: Hydrated role entity
  - error: ErrRoleNotFound or database errors
*/
func (repository *PostgresRoleRepository) FindByName(context context.Context, name string) (*Role, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(schema.Roles.Columns(), ", "), schema.Roles.Table, schema.Roles.Name)

	role := &Role{}
	err := repository.pool.QueryRow(context, query, name).Scan(&role.ID, &role.Name)
	if err != nil {
		return nil, fmt.Errorf("postgres_role_repo_find_by_name_failed: %w", dberr.Wrap(err, ErrRoleNotFound, nil))
	}

	return role, nil
}

/*
Create inserts a new role row and stores the generated ID on role.

Parameters:
  - context: context.Context
  - role: *Role

Returns:
  - error: ErrDuplicate if the name exists, or database errors
*/
func (repository *PostgresRoleRepository) Create(context context.Context, role *Role) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1) RETURNING %s`,
		schema.Roles.Table, schema.Roles.Name, schema.Roles.ID)

	if err := repository.pool.QueryRow(context, query, role.Name).Scan(&role.ID); err != nil {
		return fmt.Errorf("postgres_role_repo_create_failed: %w", dberr.Wrap(err, nil, ErrDuplicate))
	}

	return nil
}

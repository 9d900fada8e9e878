// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements account registration, credential login and the
self-read of an account.

Architecture:

  - RegistrationService: maps the requested role, provisions it on first use,
    hashes the password and persists the user.
  - LoginService: checks credentials and mints an access token.
  - Handler: the HTTP adapter mounted under /users.

Both services receive their collaborators (account repositories, password
hasher, token issuer) through constructors; nothing here reads configuration
or globals.
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taibuivan/bookshelf-users/internal/platform/apperr"
	"github.com/taibuivan/bookshelf-users/internal/platform/sec"
	"github.com/taibuivan/bookshelf-users/internal/platform/validate"
	"github.com/taibuivan/bookshelf-users/internal/users/account"
	"github.com/taibuivan/bookshelf-users/pkg/username"
)

// # Contracts & Types

// PasswordHasher hashes new passwords and verifies submitted ones.
// [*sec.BcryptHasher] satisfies it.
type PasswordHasher interface {
	Hash(plainTextPassword string) (string, error)
	Verify(plainTextPassword, encodedHash string) (bool, error)
}

// TokenIssuer mints signed access tokens. [*sec.TokenCodec] satisfies it.
type TokenIssuer interface {
	Sign(userID int64, username, email, role string) (string, error)
}

// InvalidCredentialsMessage is the exact body returned for every failed login.
const InvalidCredentialsMessage = "Invalid credentials."

// # Errors

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password, so callers cannot probe which accounts exist.
	ErrInvalidCredentials = apperr.Unauthorized(InvalidCredentialsMessage)

	// ErrUserExists is returned when the username is already registered.
	ErrUserExists = apperr.BadRequest("USER_EXISTS", "Username is already taken")

	// ErrRegistrationFailed is returned when the password cannot be hashed.
	ErrRegistrationFailed = apperr.BadRequest("REGISTRATION_FAILED", "Registration failed")
)

// # Registration Flow

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string

	// RequestedRole is the raw ?role= value; only "admin" elevates.
	RequestedRole string
}

// RegistrationService enrolls new accounts.
type RegistrationService struct {
	userRepository account.UserRepository
	roleRepository account.RoleRepository
	passwordHasher PasswordHasher
	logger         *slog.Logger
}

// NewRegistrationService constructs a [RegistrationService].
func NewRegistrationService(store *account.Store, hasher PasswordHasher, logger *slog.Logger) *RegistrationService {
	return &RegistrationService{
		userRepository: store.Users,
		roleRepository: store.Roles,
		passwordHasher: hasher,
		logger:         logger,
	}
}

/*
Register hashes the password and persists a new account with the mapped role.

Description: The role row is created on first use. A concurrent creation of
the same role loses on the store's uniqueness constraint and re-reads the
winner's row.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *account.User: Created entity with ID and RoleName set
  - error: VALIDATION_ERROR, ErrUserExists, ErrRegistrationFailed or storage errors
*/
func (service *RegistrationService) Register(context context.Context, input RegisterInput) (*account.User, error) {
	canonicalName := username.Canonical(input.Username)

	// Limits apply to the stored form; NFKC may grow or empty the name.
	validator := &validate.Validator{}
	validator.Required(FieldUsername, canonicalName).
		MaxLen(FieldUsername, canonicalName, maxFieldLength).
		MaxLen(FieldEmail, input.Email, maxFieldLength).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MaxLen(FieldPassword, input.Password, maxFieldLength)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	role, err := service.resolveRole(context, sec.RoleForRequest(input.RequestedRole))
	if err != nil {
		return nil, fmt.Errorf("auth_service_resolve_role_failed: %w", err)
	}

	hashedPassword, err := service.passwordHasher.Hash(input.Password)
	if err != nil {
		return nil, ErrRegistrationFailed.Wrap(err)
	}

	user := &account.User{
		Username:     canonicalName,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		RoleID:       role.ID,
		RoleName:     role.Name,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		if errors.Is(err, account.ErrDuplicate) {
			return nil, ErrUserExists.Wrap(err)
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	service.logger.InfoContext(context, "user_registered",
		slog.Int64("user_id", user.ID),
		slog.String("role", role.Name),
	)

	return user, nil
}

// resolveRole finds the named role, creating it when absent.
func (service *RegistrationService) resolveRole(context context.Context, name string) (*account.Role, error) {
	role, err := service.roleRepository.FindByName(context, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, account.ErrRoleNotFound) {
		return nil, err
	}

	role = &account.Role{Name: name}
	err = service.roleRepository.Create(context, role)
	if err == nil {
		service.logger.InfoContext(context, "role_provisioned", slog.String("role", name))
		return role, nil
	}
	if !errors.Is(err, account.ErrDuplicate) {
		return nil, err
	}

	// Another registration created it first.
	return service.roleRepository.FindByName(context, name)
}

// # Authentication Flow

// dummyPassword is hashed once so unknown usernames still pay for one
// password verification.
const dummyPassword = "bookshelf-users/no-such-account"

// LoginService authenticates credentials and issues access tokens.
type LoginService struct {
	userRepository account.UserRepository
	passwordHasher PasswordHasher
	tokenIssuer    TokenIssuer
	logger         *slog.Logger
	dummyHash      string
}

// NewLoginService constructs a [LoginService]. It hashes one dummy password
// up front, which costs a single hash at startup.
func NewLoginService(users account.UserRepository, hasher PasswordHasher, issuer TokenIssuer, logger *slog.Logger) *LoginService {
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		logger.Warn("login_dummy_hash_unavailable", slog.Any("error", err))
	}
	return &LoginService{
		userRepository: users,
		passwordHasher: hasher,
		tokenIssuer:    issuer,
		logger:         logger,
		dummyHash:      dummyHash,
	}
}

/*
Login verifies a username and password and returns a signed access token.

Description: Unknown usernames, wrong passwords and unreadable stored hashes
all produce ErrInvalidCredentials. Neither the password nor the hash is logged.

Parameters:
  - context: context.Context
  - name: string (canonicalized before lookup)
  - password: string

Returns:
  - string: The raw token, without a "Bearer " prefix
  - error: ErrInvalidCredentials, or storage and signing failures
*/
func (service *LoginService) Login(context context.Context, name, password string) (string, error) {
	user, err := service.userRepository.FindByUsername(context, username.Canonical(name))
	if err != nil {
		if !errors.Is(err, account.ErrUserNotFound) {
			return "", fmt.Errorf("auth_service_login_lookup_failed: %w", err)
		}
		// Equalize timing with the wrong-password path.
		_, _ = service.passwordHasher.Verify(password, service.dummyHash)
		return "", ErrInvalidCredentials
	}

	matches, err := service.passwordHasher.Verify(password, user.PasswordHash)
	if err != nil {
		service.logger.ErrorContext(context, "stored_password_hash_unreadable",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
		return "", ErrInvalidCredentials
	}
	if !matches {
		return "", ErrInvalidCredentials
	}

	token, err := service.tokenIssuer.Sign(user.ID, user.Username, user.Email, user.RoleName)
	if err != nil {
		return "", fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	return token, nil
}

/*
FindUserByID returns the account with the given ID.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *account.User: Hydrated entity
  - error: account.ErrUserNotFound or storage errors
*/
func (service *LoginService) FindUserByID(context context.Context, id int64) (*account.User, error) {
	return service.userRepository.FindByID(context, id)
}

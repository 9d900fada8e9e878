// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/bookshelf-users/internal/platform/apperr"
	"github.com/taibuivan/bookshelf-users/internal/platform/sec"
	"github.com/taibuivan/bookshelf-users/internal/users/account"
	"github.com/taibuivan/bookshelf-users/internal/users/auth"
)

const testSecret = "test-signing-secret"

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	store        *account.Store
	hasher       *countingHasher
	codec        *sec.TokenCodec
	registration *auth.RegistrationService
	login        *auth.LoginService
}

// countingHasher wraps bcrypt and counts verifications.
type countingHasher struct {
	*sec.BcryptHasher
	mutex    sync.Mutex
	verifies int
	hashErr  error
}

func (hasher *countingHasher) Hash(plainTextPassword string) (string, error) {
	if hasher.hashErr != nil {
		return "", hasher.hashErr
	}
	return hasher.BcryptHasher.Hash(plainTextPassword)
}

func (hasher *countingHasher) Verify(plainTextPassword, encodedHash string) (bool, error) {
	hasher.mutex.Lock()
	hasher.verifies++
	hasher.mutex.Unlock()
	return hasher.BcryptHasher.Verify(plainTextPassword, encodedHash)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := account.NewMemoryStore()
	hasher := &countingHasher{BcryptHasher: sec.NewBcryptHasher(bcrypt.MinCost)}
	codec, err := sec.NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)

	return &fixture{
		store:        store,
		hasher:       hasher,
		codec:        codec,
		registration: auth.NewRegistrationService(store, hasher, discardLogger),
		login:        auth.NewLoginService(store.Users, hasher, codec, discardLogger),
	}
}

func (f *fixture) register(t *testing.T, name, password, role string) *account.User {
	t.Helper()
	user, err := f.registration.Register(context.Background(), auth.RegisterInput{
		Username:      name,
		Email:         name + "@example.com",
		Password:      password,
		RequestedRole: role,
	})
	require.NoError(t, err)
	return user
}

/*
TestRegister_PasswordOpacity checks that the persisted password is a hash
that verifies only against the original input.
*/
func TestRegister_PasswordOpacity(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "alice", "pw", "")

	stored, err := f.store.Users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)

	assert.NotEqual(t, "pw", stored.PasswordHash)
	assert.Equal(t, user.ID, stored.ID)

	ok, err := f.hasher.BcryptHasher.Verify("pw", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.hasher.BcryptHasher.Verify("other", stored.PasswordHash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegister_RoleMapping(t *testing.T) {
	tests := []struct {
		requested string
		want      string
	}{
		{"admin", sec.RoleAdmin},
		{"", sec.RoleUser},
		{"user", sec.RoleUser},
		{"ADMIN", sec.RoleUser},
		{"superuser", sec.RoleUser},
	}

	f := newFixture(t)
	for index, tt := range tests {
		t.Run("role_"+tt.requested, func(t *testing.T) {
			user := f.register(t, "user"+string(rune('a'+index)), "pw", tt.requested)
			assert.Equal(t, tt.want, user.RoleName)

			stored, err := f.store.Users.FindByID(context.Background(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.RoleName)
		})
	}
}

/*
TestRegister_RoleProvisionedOnce registers several users concurrently with
the same role and expects a single role row.
*/
func TestRegister_RoleProvisionedOnce(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	users := make([]*account.User, 6)
	for index := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, err := f.registration.Register(context.Background(), auth.RegisterInput{
				Username: "reader" + string(rune('0'+index)),
				Password: "pw",
			})
			if assert.NoError(t, err) {
				users[index] = user
			}
		}()
	}
	wg.Wait()

	role, err := f.store.Roles.FindByName(context.Background(), sec.RoleUser)
	require.NoError(t, err)
	for _, user := range users {
		if assert.NotNil(t, user) {
			assert.Equal(t, role.ID, user.RoleID)
		}
	}

	// A second role name gets a distinct row.
	admin := f.register(t, "root", "pw", "admin")
	assert.NotEqual(t, role.ID, admin.RoleID)
}

// racingRoles reports the role as missing on the first lookup and loses the
// insert, as when another registration creates the role in between.
type racingRoles struct {
	account.RoleRepository
	lookups int
	creates int
}

func (roles *racingRoles) FindByName(ctx context.Context, name string) (*account.Role, error) {
	roles.lookups++
	if roles.lookups == 1 {
		return nil, account.ErrRoleNotFound
	}
	return roles.RoleRepository.FindByName(ctx, name)
}

func (roles *racingRoles) Create(context.Context, *account.Role) error {
	roles.creates++
	return account.ErrDuplicate.Wrap(errors.New("roles_name_key"))
}

/*
TestRegister_RoleCreationLostRace re-reads the role after losing the insert
and attaches the user to the existing row.
*/
func TestRegister_RoleCreationLostRace(t *testing.T) {
	ctx := context.Background()
	store := account.NewMemoryStore()

	winner := &account.Role{Name: sec.RoleUser}
	require.NoError(t, store.Roles.Create(ctx, winner))

	roles := &racingRoles{RoleRepository: store.Roles}
	hasher := sec.NewBcryptHasher(bcrypt.MinCost)
	registration := auth.NewRegistrationService(&account.Store{Users: store.Users, Roles: roles}, hasher, discardLogger)

	user, err := registration.Register(ctx, auth.RegisterInput{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, winner.ID, user.RoleID)
	assert.Equal(t, sec.RoleUser, user.RoleName)
	assert.Equal(t, 1, roles.creates)
	assert.Equal(t, 2, roles.lookups)
}

func TestRegister_Failures(t *testing.T) {
	t.Run("duplicate_username", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "alice", "pw", "")

		_, err := f.registration.Register(context.Background(), auth.RegisterInput{Username: "alice", Password: "other"})
		assert.ErrorIs(t, err, auth.ErrUserExists)
	})

	t.Run("canonical_duplicate", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "alice", "pw", "")

		_, err := f.registration.Register(context.Background(), auth.RegisterInput{Username: "\uff41lice", Password: "pw"})
		assert.ErrorIs(t, err, auth.ErrUserExists)
	})

	t.Run("canonical_name_validated", func(t *testing.T) {
		f := newFixture(t)

		for _, name := range []string{"\u200b", "\u00ad \u200b", strings.Repeat("\ufdfa", 200)} {
			_, err := f.registration.Register(context.Background(), auth.RegisterInput{Username: name, Password: "pw"})
			appError := apperr.As(err)
			if assert.NotNil(t, appError) {
				assert.Equal(t, apperr.CodeValidation, appError.Code)
			}
		}

		_, err := f.store.Roles.FindByName(context.Background(), sec.RoleUser)
		assert.ErrorIs(t, err, account.ErrRoleNotFound, "validation runs before any write")
	})

	t.Run("hash_failure", func(t *testing.T) {
		f := newFixture(t)
		f.hasher.hashErr = &sec.HashError{Err: errors.New("entropy exhausted")}

		_, err := f.registration.Register(context.Background(), auth.RegisterInput{Username: "bob", Password: "pw"})
		assert.ErrorIs(t, err, auth.ErrRegistrationFailed)

		_, err = f.store.Users.FindByUsername(context.Background(), "bob")
		assert.ErrorIs(t, err, account.ErrUserNotFound)
	})
}

/*
TestLogin_TokenRoundTrip logs in and decodes the issued token.
*/
func TestLogin_TokenRoundTrip(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "alice", "pw", "admin")

	token, err := f.login.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	claims, err := f.codec.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, []string{sec.RoleAdmin}, claims.Roles)
	assert.Equal(t, user.ID, mustParseID(t, claims.UserID))
}

/*
TestLogin_InvalidCredentials checks that an unknown user and a wrong password
produce the same error and both run one password verification.
*/
func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw", "")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown_user", "mallory", "pw"},
		{"wrong_password", "alice", "nope"},
		{"empty_password", "alice", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.hasher.verifies

			token, err := f.login.Login(context.Background(), tt.username, tt.password)

			assert.Empty(t, token)
			assert.Same(t, auth.ErrInvalidCredentials, err)
			assert.Equal(t, before+1, f.hasher.verifies)
		})
	}
}

func TestLogin_MalformedStoredHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role := &account.Role{Name: sec.RoleUser}
	require.NoError(t, f.store.Roles.Create(ctx, role))
	require.NoError(t, f.store.Users.Create(ctx, &account.User{
		Username:     "legacy",
		PasswordHash: "plaintext-from-an-old-import",
		RoleID:       role.ID,
	}))

	_, err := f.login.Login(ctx, "legacy", "plaintext-from-an-old-import")
	assert.Same(t, auth.ErrInvalidCredentials, err)
}

func TestFindUserByID(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "alice", "pw", "")

	found, err := f.login.FindUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)

	_, err = f.login.FindUserByID(context.Background(), user.ID+1)
	assert.ErrorIs(t, err, account.ErrUserNotFound)
}

func mustParseID(t *testing.T, raw string) int64 {
	t.Helper()
	id, err := strconv.ParseInt(raw, 10, 64)
	require.NoError(t, err)
	return id
}

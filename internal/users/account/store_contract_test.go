// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bookshelf-users/internal/platform/apperr"
	"github.com/taibuivan/bookshelf-users/internal/users/account"
)

/*
runStoreContract exercises the behavior every [account.Store] must share.
The store must start empty.
*/
func runStoreContract(t *testing.T, store *account.Store) {
	ctx := context.Background()

	t.Run("missing_role", func(t *testing.T) {
		_, err := store.Roles.FindByName(ctx, "ROLE_MISSING")
		assert.ErrorIs(t, err, account.ErrRoleNotFound)
		assert.True(t, apperr.IsNotFound(err))
	})

	role := &account.Role{Name: "ROLE_USER"}
	require.NoError(t, store.Roles.Create(ctx, role))
	require.NotZero(t, role.ID)

	t.Run("role_name_unique", func(t *testing.T) {
		err := store.Roles.Create(ctx, &account.Role{Name: "ROLE_USER"})
		assert.ErrorIs(t, err, account.ErrDuplicate)

		found, err := store.Roles.FindByName(ctx, "ROLE_USER")
		require.NoError(t, err)
		assert.Equal(t, role.ID, found.ID)
	})

	user := &account.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$04$opaque",
		RoleID:       role.ID,
	}
	require.NoError(t, store.Users.Create(ctx, user))
	require.NotZero(t, user.ID)

	t.Run("find_by_username", func(t *testing.T) {
		found, err := store.Users.FindByUsername(ctx, "alice")
		require.NoError(t, err)

		assert.Equal(t, user.ID, found.ID)
		assert.Equal(t, "alice@example.com", found.Email)
		assert.Equal(t, "$2a$04$opaque", found.PasswordHash)
		assert.Equal(t, role.ID, found.RoleID)
		assert.Equal(t, "ROLE_USER", found.RoleName)
	})

	t.Run("find_by_id", func(t *testing.T) {
		found, err := store.Users.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", found.Username)
	})

	t.Run("missing_user", func(t *testing.T) {
		_, err := store.Users.FindByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, account.ErrUserNotFound)

		_, err = store.Users.FindByID(ctx, user.ID+1000)
		assert.ErrorIs(t, err, account.ErrUserNotFound)
	})

	t.Run("username_is_case_sensitive", func(t *testing.T) {
		_, err := store.Users.FindByUsername(ctx, "Alice")
		assert.ErrorIs(t, err, account.ErrUserNotFound)
	})

	t.Run("username_unique", func(t *testing.T) {
		duplicate := &account.User{Username: "alice", Email: "other@example.com", PasswordHash: "x", RoleID: role.ID}
		assert.ErrorIs(t, store.Users.Create(ctx, duplicate), account.ErrDuplicate)
	})

	t.Run("concurrent_role_creation_single_winner", func(t *testing.T) {
		const workers = 8
		var (
			wg        sync.WaitGroup
			mutex     sync.Mutex
			winners   int
			conflicts int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := store.Roles.Create(ctx, &account.Role{Name: "ROLE_ADMIN"})
				mutex.Lock()
				defer mutex.Unlock()
				if err == nil {
					winners++
				} else if assert.ErrorIs(t, err, account.ErrDuplicate) {
					conflicts++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, winners)
		assert.Equal(t, workers-1, conflicts)
	})
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"sync"
)

// NewMemoryStore returns a process-local store with the same uniqueness
// guarantees as the PostgreSQL schema. Data is lost on restart.
func NewMemoryStore() *Store {
	state := &memoryState{
		users:      make(map[int64]User),
		usernames:  make(map[string]int64),
		roles:      make(map[int64]Role),
		roleNames:  make(map[string]int64),
		nextUserID: 1,
		nextRoleID: 1,
	}
	return &Store{
		Users: &MemoryUserRepository{state: state},
		Roles: &MemoryRoleRepository{state: state},
	}
}

// memoryState is shared by both repositories so user reads can resolve role names.
type memoryState struct {
	mutex sync.RWMutex

	users      map[int64]User
	usernames  map[string]int64
	roles      map[int64]Role
	roleNames  map[string]int64
	nextUserID int64
	nextRoleID int64
}

// # User Repository

// MemoryUserRepository implements [UserRepository] in memory.
type MemoryUserRepository struct {
	state *memoryState
}

// FindByUsername implements [UserRepository].
func (repository *MemoryUserRepository) FindByUsername(_ context.Context, username string) (*User, error) {
	repository.state.mutex.RLock()
	defer repository.state.mutex.RUnlock()

	id, ok := repository.state.usernames[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return repository.state.hydrate(id), nil
}

// FindByID implements [UserRepository].
func (repository *MemoryUserRepository) FindByID(_ context.Context, id int64) (*User, error) {
	repository.state.mutex.RLock()
	defer repository.state.mutex.RUnlock()

	if _, ok := repository.state.users[id]; !ok {
		return nil, ErrUserNotFound
	}
	return repository.state.hydrate(id), nil
}

// Create implements [UserRepository].
func (repository *MemoryUserRepository) Create(_ context.Context, user *User) error {
	state := repository.state
	state.mutex.Lock()
	defer state.mutex.Unlock()

	if _, taken := state.usernames[user.Username]; taken {
		return fmt.Errorf("memory_user_repo_create_failed: %w", ErrDuplicate)
	}
	if _, ok := state.roles[user.RoleID]; !ok {
		return fmt.Errorf("memory_user_repo_create_failed: unknown role id %d", user.RoleID)
	}

	user.ID = state.nextUserID
	state.nextUserID++

	stored := *user
	stored.RoleName = ""
	state.users[user.ID] = stored
	state.usernames[user.Username] = user.ID

	return nil
}

// hydrate returns a copy of the user with its role name filled in.
// The caller must hold the lock.
func (state *memoryState) hydrate(id int64) *User {
	user := state.users[id]
	user.RoleName = state.roles[user.RoleID].Name
	return &user
}

// # Role Repository

// MemoryRoleRepository implements [RoleRepository] in memory.
type MemoryRoleRepository struct {
	state *memoryState
}

// FindByName implements [RoleRepository].
func (repository *MemoryRoleRepository) FindByName(_ context.Context, name string) (*Role, error) {
	repository.state.mutex.RLock()
	defer repository.state.mutex.RUnlock()

	id, ok := repository.state.roleNames[name]
	if !ok {
		return nil, ErrRoleNotFound
	}
	role := repository.state.roles[id]
	return &role, nil
}

// Create implements [RoleRepository].
func (repository *MemoryRoleRepository) Create(_ context.Context, role *Role) error {
	state := repository.state
	state.mutex.Lock()
	defer state.mutex.Unlock()

	if _, taken := state.roleNames[role.Name]; taken {
		return fmt.Errorf("memory_role_repo_create_failed: %w", ErrDuplicate)
	}

	role.ID = state.nextRoleID
	state.nextRoleID++

	state.roles[role.ID] = *role
	state.roleNames[role.Name] = role.ID

	return nil
}

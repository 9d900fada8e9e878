// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashError reports a password that could not be hashed or a stored hash that
// is not a well-formed bcrypt string.
type HashError struct {
	Err error
}

func (e *HashError) Error() string { return "sec: password hash: " + e.Err.Error() }

// Unwrap exposes the underlying bcrypt error.
func (e *HashError) Unwrap() error { return e.Err }

// BcryptHasher hashes and verifies passwords with bcrypt.
//
// The encoded output is self-describing ($2a$<cost>$<salt><digest>), so the
// cost used at registration keeps working after the configured cost changes.
// It is stateless and safe for concurrent use.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, clamped to bcrypt's valid range.
func NewBcryptHasher(cost int) *BcryptHasher {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns the encoded bcrypt hash of plainTextPassword.
func (hasher *BcryptHasher) Hash(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("sec_hash_failed: %w", &HashError{Err: err})
	}
	return string(hashedBytes), nil
}

// Verify compares plainTextPassword with an encoded hash in constant time.
//
// A mismatch is reported as (false, nil); only a malformed encoded hash
// produces a [*HashError].
func (hasher *BcryptHasher) Verify(plainTextPassword, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(plainTextPassword))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, &HashError{Err: err}
	}
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer through small interfaces declared by the consumers.
package sec

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures. The authentication middleware maps all of them to
// the same response, so callers should not rely on the text.
var (
	ErrMalformedToken = errors.New("sec: malformed token")
	ErrBadSignature   = errors.New("sec: bad token signature")
	ErrExpired        = errors.New("sec: token expired")

	// ErrEmptySecret is returned by [NewTokenCodec] when no signing secret is configured.
	ErrEmptySecret = errors.New("sec: empty signing secret")
)

// Claims represents the payload embedded inside an access token.
//
// sub, iat and exp live in the embedded registered claims. Unknown fields in
// incoming tokens are ignored.
type Claims struct {
	UserID string   `json:"userId"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`

	jwt.RegisteredClaims
}

// TokenCodec signs and verifies HS256 access tokens with a shared secret.
//
// The secret is read-only after construction, so a codec is safe for
// concurrent use.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// CodecOption customizes a [TokenCodec].
type CodecOption func(*TokenCodec)

// WithClock replaces the wall clock used for iat/exp and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(codec *TokenCodec) {
		codec.now = now
	}
}

// NewTokenCodec creates a codec that issues tokens valid for ttl.
func NewTokenCodec(secret string, ttl time.Duration, options ...CodecOption) (*TokenCodec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("sec: token ttl must be positive, got %s", ttl)
	}

	codec := &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, option := range options {
		option(codec)
	}

	codec.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(codec.now),
	)

	return codec, nil
}

// TTL returns the lifetime given to newly issued tokens.
func (codec *TokenCodec) TTL() time.Duration {
	return codec.ttl
}

// Sign issues a token for the given account. The role becomes a singleton
// roles list.
func (codec *TokenCodec) Sign(userID int64, username, email, role string) (string, error) {
	currentTime := codec.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(codec.ttl)),
		},
		UserID: strconv.FormatInt(userID, 10),
		Email:  email,
		Roles:  []string{role},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(codec.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify checks structure, signature and expiry of tokenString, in that order.
//
// The returned error always wraps one of [ErrMalformedToken],
// [ErrBadSignature] or [ErrExpired].
func (codec *TokenCodec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := codec.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return codec.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	// Issue time is mandatory and must precede expiry.
	if claims.IssuedAt == nil || !claims.ExpiresAt.After(claims.IssuedAt.Time) {
		return nil, fmt.Errorf("%w: expiry does not follow issue time", ErrMalformedToken)
	}

	if claims.Roles == nil {
		claims.Roles = []string{}
	}

	return claims, nil
}

// classify folds jwt parser errors into the codec's three failure kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}

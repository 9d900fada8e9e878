// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bookshelf-users/internal/platform/sec"
)

const testSecret = "correct-horse-battery-staple"

// fixedClock returns a mutable clock starting on a whole second.
func fixedClock() (*time.Time, func() time.Time) {
	current := time.Unix(1_700_000_000, 0)
	return &current, func() time.Time { return current }
}

func newCodec(t *testing.T, secret string, ttl time.Duration, now func() time.Time) *sec.TokenCodec {
	t.Helper()
	codec, err := sec.NewTokenCodec(secret, ttl, sec.WithClock(now))
	require.NoError(t, err)
	return codec
}

// signRaw signs arbitrary claims with HS256 to build tokens the codec would never issue.
func signRaw(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestNewTokenCodec_RejectsBadConfiguration(t *testing.T) {
	_, err := sec.NewTokenCodec("", time.Hour)
	assert.ErrorIs(t, err, sec.ErrEmptySecret)

	_, err = sec.NewTokenCodec(testSecret, 0)
	assert.Error(t, err)
}

/*
TestTokenCodec_RoundTrip checks that verify(sign(U)) reproduces the account fields.
*/
func TestTokenCodec_RoundTrip(t *testing.T) {
	_, now := fixedClock()
	codec := newCodec(t, testSecret, time.Hour, now)

	token, err := codec.Sign(42, "alice", "alice@example.com", sec.RoleUser)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := codec.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, []string{sec.RoleUser}, claims.Roles)
	assert.True(t, claims.IssuedAt.Before(claims.ExpiresAt.Time))
	assert.Equal(t, now().Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

/*
TestTokenCodec_SignatureBinding verifies a token fails under any other secret.
*/
func TestTokenCodec_SignatureBinding(t *testing.T) {
	_, now := fixedClock()
	token, err := newCodec(t, testSecret, time.Hour, now).Sign(1, "alice", "a@x", sec.RoleUser)
	require.NoError(t, err)

	for _, other := range []string{"other", testSecret + "!", strings.ToUpper(testSecret)} {
		_, err := newCodec(t, other, time.Hour, now).Verify(token)
		assert.ErrorIs(t, err, sec.ErrBadSignature, other)
	}
}

/*
TestTokenCodec_Expiry verifies the token is invalid at and after exp.
*/
func TestTokenCodec_Expiry(t *testing.T) {
	current, now := fixedClock()
	codec := newCodec(t, testSecret, time.Hour, now)

	token, err := codec.Sign(1, "alice", "a@x", sec.RoleUser)
	require.NoError(t, err)
	issuedAt := *current

	*current = issuedAt.Add(time.Hour - time.Second)
	_, err = codec.Verify(token)
	assert.NoError(t, err)

	*current = issuedAt.Add(time.Hour)
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, sec.ErrExpired)

	*current = issuedAt.Add(48 * time.Hour)
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, sec.ErrExpired)
}

func TestTokenCodec_Malformed(t *testing.T) {
	current, now := fixedClock()
	codec := newCodec(t, testSecret, time.Hour, now)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"three_bad_segments", "not.a.jwt"},
		{"bad_base64_payload", "eyJhbGciOiJIUzI1NiJ9.@@@.c2ln"},
		{"missing_exp", signRaw(t, testSecret, jwt.MapClaims{
			"sub": "alice", "userId": "1", "iat": current.Unix(),
		})},
		{"missing_iat", signRaw(t, testSecret, jwt.MapClaims{
			"sub": "alice", "userId": "1", "exp": current.Add(time.Hour).Unix(),
		})},
		{"exp_before_iat", signRaw(t, testSecret, jwt.MapClaims{
			"sub": "alice", "userId": "1",
			"iat": current.Add(2 * time.Hour).Unix(),
			"exp": current.Add(time.Hour).Unix(),
		})},
		{"exp_equals_iat", signRaw(t, testSecret, jwt.MapClaims{
			"sub": "alice", "userId": "1",
			"iat": current.Add(time.Hour).Unix(),
			"exp": current.Add(time.Hour).Unix(),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.token)
			assert.ErrorIs(t, err, sec.ErrMalformedToken)
		})
	}
}

func TestTokenCodec_RejectsOtherAlgorithms(t *testing.T) {
	current, now := fixedClock()
	codec := newCodec(t, testSecret, time.Hour, now)

	claims := jwt.MapClaims{
		"sub": "mallory", "userId": "1", "roles": []string{sec.RoleAdmin},
		"iat": current.Unix(), "exp": current.Add(time.Hour).Unix(),
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Verify(unsigned)
	assert.ErrorIs(t, err, sec.ErrBadSignature)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = codec.Verify(hs512)
	assert.ErrorIs(t, err, sec.ErrBadSignature)
}

/*
TestTokenCodec_LenientClaims covers ignored unknown fields and absent roles.
*/
func TestTokenCodec_LenientClaims(t *testing.T) {
	current, now := fixedClock()
	codec := newCodec(t, testSecret, time.Hour, now)

	token := signRaw(t, testSecret, jwt.MapClaims{
		"sub":      "bob",
		"userId":   "7",
		"email":    "bob@example.com",
		"tenant":   "ignored",
		"iat":      current.Unix(),
		"exp":      current.Add(time.Minute).Unix(),
		"nickname": map[string]any{"nested": true},
	})

	claims, err := codec.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "bob", claims.Subject)
	assert.NotNil(t, claims.Roles)
	assert.Empty(t, claims.Roles)
}

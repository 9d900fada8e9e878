// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/bookshelf-users/internal/platform/constants"
	"github.com/taibuivan/bookshelf-users/internal/platform/ctxutil"
	"github.com/taibuivan/bookshelf-users/internal/platform/respond"
	"github.com/taibuivan/bookshelf-users/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// [*sec.TokenCodec] satisfies it; tests inject stubs.
type TokenVerifier interface {
	Verify(tokenString string) (*sec.Claims, error)
}

// Authenticate turns a bearer token into a request-scoped [*sec.Principal].
//
// # Flow
//  1. No header, or a header not starting with "Bearer ": continue anonymously.
//  2. Verify the token via [TokenVerifier].
//  3. Any verification failure: respond 403 with an empty body and stop.
//  4. Success: install the principal on the request context and continue.
//
// The decision whether anonymity is acceptable belongs to [Authorize]; a
// client that presents a token must present a valid one.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			tokenString, isBearer := strings.CutPrefix(authHeader, constants.BearerPrefix)
			if !isBearer {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Token Verification ─────────────────────────────────────────
			claims, err := verifier.Verify(tokenString)
			if err != nil {
				// The token text is a credential and is never logged.
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "bearer_token_rejected",
					slog.String("reason", err.Error()),
				)
				respond.Status(writer, http.StatusForbidden)
				return
			}

			// ── 3. Context Injection ──────────────────────────────────────────
			principal := sec.NewPrincipal(claims)
			if sink, ok := writer.(principalSink); ok {
				sink.setPrincipal(principal)
			}

			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/bookshelf-users/internal/platform/apperr"
)

func TestAppError_SentinelMatching(t *testing.T) {
	sentinel := apperr.NotFound("User")
	cause := errors.New("no rows")

	wrapped := fmt.Errorf("find_user_failed: %w", sentinel.Wrap(cause))

	assert.ErrorIs(t, wrapped, sentinel)
	assert.ErrorIs(t, wrapped, cause)
	assert.NotErrorIs(t, wrapped, apperr.NotFound("Role"))
	assert.True(t, apperr.IsNotFound(wrapped))
	assert.Nil(t, sentinel.Cause)
}

func TestAs(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"plain_error", errors.New("boom"), 0},
		{"direct", apperr.Unauthorized("no"), http.StatusUnauthorized},
		{"wrapped", fmt.Errorf("outer: %w", apperr.BadRequest("USER_EXISTS", "taken")), http.StatusBadRequest},
		{"internal", apperr.Internal(errors.New("db down")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ae := apperr.As(tt.err)
			if tt.wantStatus == 0 {
				assert.Nil(t, ae)
				assert.False(t, apperr.IsNotFound(tt.err))
				return
			}
			if assert.NotNil(t, ae) {
				assert.Equal(t, tt.wantStatus, ae.HTTPStatus)
			}
		})
	}
}

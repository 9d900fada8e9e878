// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/bookshelf-users/internal/platform/apperr"
)

// IsNoRows reports whether err signals an empty single-row query result.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation
}

// Wrap inspects a database error and classifies it into an [apperr.AppError].
//
// notFound is returned for empty results and duplicate for unique violations;
// both keep err as their cause. Anything else becomes Internal.
func Wrap(err error, notFound, duplicate *apperr.AppError) error {
	switch {
	case err == nil:
		return nil
	case notFound != nil && IsNoRows(err):
		return notFound.Wrap(err)
	case duplicate != nil && IsUniqueViolation(err):
		return duplicate.Wrap(err)
	default:
		return apperr.Internal(err)
	}
}

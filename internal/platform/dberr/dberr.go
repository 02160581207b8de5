// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/sonora/internal/platform/apperr"
)

// ErrDuplicate marks an insert rejected by a unique constraint.
var ErrDuplicate = errors.New("dberr: duplicate key")

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	return hasCode(err, pgerrcode.UniqueViolation)
}

// IsForeignKeyViolation reports whether err references a row that does not exist.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, pgerrcode.ForeignKeyViolation)
}

func hasCode(err error, code string) bool {
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == code
}

// Wrap inspects a database error and wraps it into a meaningful error.
//
//   - pgx.ErrNoRows becomes a NOT_FOUND [apperr.AppError] for resource.
//   - Unique violations wrap [ErrDuplicate] so callers can map them.
//   - Anything else is returned wrapped with the action for the logs.
func Wrap(err error, resource, action string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	if IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w: %v", action, ErrDuplicate, err)
	}

	return fmt.Errorf("%s: %w", action, err)
}

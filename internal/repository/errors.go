package repository

import (
	"context"
	"errors"

	"pharmacy/internal/apperror"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the store reacts to
const (
	pgLockNotAvailable     = "55P03"
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
	pgQueryCanceled        = "57014"
	pgForeignKeyViolation  = "23503"
	pgUniqueViolation      = "23505"
)

// classifyError turns lock waits, deadlocks and constraint violations into
// AppErrors. Any other error is returned untouched so callers can still match
// gorm.ErrRecordNotFound.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewConcurrency(err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgLockNotAvailable, pgDeadlockDetected, pgSerializationFailure, pgQueryCanceled:
		return apperror.NewConcurrency(err)
	case pgForeignKeyViolation:
		return apperror.NewConflict("The record is referenced by other records.").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgUniqueViolation:
		return apperror.NewConflict("A record with the same unique value already exists.").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}
	return err
}

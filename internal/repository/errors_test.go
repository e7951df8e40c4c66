package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"pharmacy/internal/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"lock timeout", &pgconn.PgError{Code: pgLockNotAvailable}, apperror.CodeConcurrency},
		{"deadlock", fmt.Errorf("exec: %w", &pgconn.PgError{Code: pgDeadlockDetected}), apperror.CodeConcurrency},
		{"serialization", &pgconn.PgError{Code: pgSerializationFailure}, apperror.CodeConcurrency},
		{"deadline", context.DeadlineExceeded, apperror.CodeConcurrency},
		{"fk violation", &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "fk_sale_items_medicine"}, apperror.CodeConflict},
		{"unique violation", &pgconn.PgError{Code: pgUniqueViolation}, apperror.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			appErr, ok := apperror.As(got)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestClassifyErrorPassThrough(t *testing.T) {
	assert.NoError(t, classifyError(nil))
	assert.ErrorIs(t, classifyError(gorm.ErrRecordNotFound), gorm.ErrRecordNotFound)

	plain := errors.New("connection refused")
	assert.Equal(t, plain, classifyError(plain))

	stock := apperror.NewInsufficientStock("x", 0, 1)
	assert.Equal(t, http.StatusBadRequest, apperror.HTTPStatus(classifyError(stock)))
}

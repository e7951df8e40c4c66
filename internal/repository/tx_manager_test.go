package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLockTimeoutStatement(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{5 * time.Second, "SET LOCAL lock_timeout = '5000ms'"},
		{100 * time.Millisecond, "SET LOCAL lock_timeout = '100ms'"},
		{500 * time.Microsecond, "SET LOCAL lock_timeout = '1ms'"},
		{time.Nanosecond, "SET LOCAL lock_timeout = '1ms'"},
		{1500 * time.Microsecond, "SET LOCAL lock_timeout = '2ms'"},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, lockTimeoutStatement(tt.in))
		})
	}
}

func TestInTx(t *testing.T) {
	assert.False(t, InTx(context.Background()))
	assert.True(t, InTx(context.WithValue(context.Background(), txKey, &gorm.DB{})))
}

func TestRowLocksRequireTransaction(t *testing.T) {
	ctx := context.Background()

	_, err := NewMedicineRepository(nil).FindByIDForUpdate(ctx, uuid.New())
	require.ErrorIs(t, err, ErrLockOutsideTx)

	_, err = NewSaleRepository(nil).FindByIDForUpdate(ctx, uuid.New())
	require.ErrorIs(t, err, ErrLockOutsideTx)
}

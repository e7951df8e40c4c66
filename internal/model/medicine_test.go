package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMedicineFlags(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	m := Medicine{Stock: 0, LowStockThreshold: 10, ExpireDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)}
	assert.True(t, m.IsOutOfStock())
	assert.True(t, m.IsLowStock())
	assert.False(t, m.IsExpired(now), "expires today")
	assert.True(t, m.IsNearlyExpired(now, NearlyExpiredDays))

	m.ExpireDate = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.True(t, m.IsExpired(now))
	assert.False(t, m.IsNearlyExpired(now, NearlyExpiredDays))

	m.ExpireDate = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	m.Stock = 11
	assert.False(t, m.IsNearlyExpired(now, NearlyExpiredDays))
	assert.False(t, m.IsLowStock())
}

func TestSaleItemLineTotal(t *testing.T) {
	item := SaleItem{Quantity: 3, Price: decimal.RequireFromString("2.35")}
	assert.Equal(t, "7.05", item.LineTotal().StringFixed(2))
}

func TestIsValidUnit(t *testing.T) {
	assert.True(t, IsValidUnit(UnitStrip))
	assert.False(t, IsValidUnit("litre"))
}

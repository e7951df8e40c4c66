package service

import (
	"pharmacy/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SaleTotals are the three derived money fields of a Sale
type SaleTotals struct {
	BasePrice        decimal.Decimal
	DiscountedAmount decimal.Decimal
	TotalAmount      decimal.Decimal
}

// ComputeSaleTotals is the only place sale money is derived. Create and
// update both go through it so the rounding never drifts between them.
func ComputeSaleTotals(items []model.SaleItem, discountPercentage decimal.Decimal) SaleTotals {
	base := decimal.Zero
	for _, item := range items {
		base = base.Add(item.LineTotal())
	}
	base = base.Round(2)

	discounted := DiscountAmount(base, discountPercentage)
	return SaleTotals{
		BasePrice:        base,
		DiscountedAmount: discounted,
		TotalAmount:      base.Sub(discounted),
	}
}

// DiscountAmount rounds half-up to cents. decimal.Round rounds half away
// from zero, which is half-up for the non-negative amounts used here.
func DiscountAmount(base, percentage decimal.Decimal) decimal.Decimal {
	return base.Mul(percentage).Div(hundred).Round(2)
}

// hasAtMostTwoDecimals reports whether d is representable in a decimal(*,2) column.
func hasAtMostTwoDecimals(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

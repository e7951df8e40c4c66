package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod enum simulation
const (
	PaymentCash     = "cash"
	PaymentTransfer = "transfer"
)

// Sale is one point-of-sale transaction. The three money fields are always
// derived from the items and the discount percentage, never client supplied:
//
//	discounted_amount = round(base_price * discount_percentage / 100, 2)
//	total_amount      = base_price - discounted_amount
type Sale struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerName       *string         `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerPhone      *string         `gorm:"type:varchar(20)" json:"customer_phone"`
	SoldAt             time.Time       `gorm:"not null;index" json:"sold_at"`
	PaymentMethod      string          `gorm:"type:varchar(20);not null;default:'cash'" json:"payment_method"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0;check:discount_percentage >= 0 AND discount_percentage <= 100" json:"discount_percentage"`
	BasePrice          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"base_price"`
	DiscountedAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discounted_amount"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	SoldBy             *uuid.UUID      `gorm:"type:uuid;index" json:"sold_by"`
	Seller             *User           `gorm:"foreignKey:SoldBy;constraint:OnDelete:SET NULL;" json:"-"`
	DiscountedBy       *uuid.UUID      `gorm:"type:uuid" json:"discounted_by"`
	Discounter         *User           `gorm:"foreignKey:DiscountedBy;constraint:OnDelete:SET NULL;" json:"-"`
	Items              []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE;" json:"items"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// SaleItem is one line of a Sale. Price is a snapshot taken when the line was
// created and does not follow later Medicine.Price changes.
type SaleItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	MedicineID uuid.UUID       `gorm:"type:uuid;not null;index" json:"medicine_id"`
	Medicine   Medicine        `gorm:"foreignKey:MedicineID;constraint:OnDelete:RESTRICT;" json:"-"`
	Quantity   int             `gorm:"type:int;not null;check:quantity > 0" json:"quantity"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (i SaleItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Movement reason enum simulation
const (
	MovementSale         = "SALE"
	MovementSaleReversal = "SALE_REVERSAL"
	MovementRefill       = "REFILL"
)

// StockMovement records every change to Medicine.Stock
type StockMovement struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MedicineID      uuid.UUID `gorm:"type:uuid;not null;index" json:"medicine_id"`
	Medicine        Medicine  `gorm:"foreignKey:MedicineID;constraint:OnDelete:CASCADE;" json:"-"`
	Reason          string    `gorm:"type:varchar(20);not null;index" json:"reason"`
	ReferenceID     uuid.UUID `gorm:"type:uuid;not null;index" json:"reference_id"` // sale or refill id
	QuantityChanged int       `gorm:"type:int;not null" json:"quantity_changed"`
	StockAfter      int       `gorm:"type:int;not null" json:"stock_after"`
	CreatedAt       time.Time `json:"created_at"`
}

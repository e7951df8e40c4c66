package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Refill is an immutable batch replenishment ledger entry.
type Refill struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MedicineID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"medicine_id"`
	Medicine        Medicine        `gorm:"foreignKey:MedicineID;constraint:OnDelete:CASCADE;" json:"-"`
	DepartmentID    *uuid.UUID      `gorm:"type:uuid;index" json:"department_id"`
	Department      *Department     `gorm:"foreignKey:DepartmentID;constraint:OnDelete:SET NULL;" json:"-"`
	BatchNo         string          `gorm:"type:varchar(100);not null" json:"batch_no"`
	ManufactureDate time.Time       `gorm:"type:date;not null" json:"manufacture_date"`
	ExpireDate      time.Time       `gorm:"type:date;not null" json:"expire_date"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity        int             `gorm:"type:int;not null;check:quantity > 0" json:"quantity"`
	RefillDate      time.Time       `gorm:"type:date;not null" json:"refill_date"`
	CreatedBy       *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	Creator         *User           `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL;" json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
}

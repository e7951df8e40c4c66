package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Unit of measure enum simulation
const (
	UnitTablet  = "tablet"
	UnitCapsule = "capsule"
	UnitBottle  = "bottle"
	UnitBox     = "box"
	UnitStrip   = "strip"
	UnitVial    = "vial"
	UnitTube    = "tube"
	UnitSachet  = "sachet"
	UnitPiece   = "piece"
)

// Units lists every accepted unit of measure
var Units = []string{UnitTablet, UnitCapsule, UnitBottle, UnitBox, UnitStrip, UnitVial, UnitTube, UnitSachet, UnitPiece}

// NearlyExpiredDays is the window in which a medicine is flagged as nearly expired
const NearlyExpiredDays = 30

// Department groups medicines. Deleting one nulls references, never cascades.
type Department struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Medicine is a catalog item with its current stock and unit price.
// Stock and Price only change through sales and refills.
type Medicine struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CodeNo            string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code_no"`
	BrandName         string          `gorm:"type:varchar(255);not null;index" json:"brand_name"`
	GenericName       *string         `gorm:"type:varchar(255)" json:"generic_name"`
	BatchNo           string          `gorm:"type:varchar(100)" json:"batch_no"`
	ManufactureDate   time.Time       `gorm:"type:date;not null" json:"manufacture_date"`
	ExpireDate        time.Time       `gorm:"type:date;not null;index" json:"expire_date"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null;check:price >= 0" json:"price"`
	Stock             int             `gorm:"type:int;default:0;not null" json:"stock"`
	LowStockThreshold int             `gorm:"type:int;default:10;not null" json:"low_stock_threshold"`
	Unit              string          `gorm:"type:varchar(20);not null;default:'tablet'" json:"unit"`
	DepartmentID      *uuid.UUID      `gorm:"type:uuid;index" json:"department_id"`
	Department        *Department     `gorm:"foreignKey:DepartmentID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"department,omitempty"`
	CreatedBy         *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	Creator           *User           `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL;" json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (m *Medicine) IsOutOfStock() bool {
	return m.Stock <= 0
}

func (m *Medicine) IsLowStock() bool {
	return m.Stock <= m.LowStockThreshold
}

// IsExpired compares calendar dates, so a medicine expiring today is still sellable.
func (m *Medicine) IsExpired(now time.Time) bool {
	return dateOnly(now).After(dateOnly(m.ExpireDate))
}

func (m *Medicine) IsNearlyExpired(now time.Time, days int) bool {
	delta := int(dateOnly(m.ExpireDate).Sub(dateOnly(now)).Hours() / 24)
	return delta >= 0 && delta <= days
}

// IsValidUnit reports whether unit is one of Units
func IsValidUnit(unit string) bool {
	for _, u := range Units {
		if u == unit {
			return true
		}
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

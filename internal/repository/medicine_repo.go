package repository

import (
	"context"
	"strings"
	"time"

	"pharmacy/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MedicineFilter narrows a medicine listing
type MedicineFilter struct {
	Search       string // code_no, brand_name or generic_name
	DepartmentID *uuid.UUID
	Ordering     string // expire_date, price, stock; "-" prefix for descending
	Page         int
	Limit        int
}

var medicineOrderings = map[string]bool{"expire_date": true, "price": true, "stock": true}

// MedicineRepository is the inventory store. FindByIDForUpdate and AdjustStock
// are the only way stock changes, and callers must hold them inside a
// transaction started by TransactionManager.
type MedicineRepository interface {
	Create(ctx context.Context, medicine *model.Medicine) error
	Update(ctx context.Context, medicine *model.Medicine) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Medicine, error)
	List(ctx context.Context, filter MedicineFilter) ([]model.Medicine, int64, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Medicine, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*model.Medicine, error)
	UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error
	HasSaleHistory(ctx context.Context, id uuid.UUID) (bool, error)
}

type medicineRepository struct {
	db *gorm.DB
}

func NewMedicineRepository(db *gorm.DB) MedicineRepository {
	return &medicineRepository{db: db}
}

func (r *medicineRepository) Create(ctx context.Context, medicine *model.Medicine) error {
	return classifyError(GetDB(ctx, r.db).Omit(clause.Associations).Create(medicine).Error)
}

// Update writes catalog metadata only; stock and price are left to AdjustStock and UpdatePrice.
func (r *medicineRepository) Update(ctx context.Context, medicine *model.Medicine) error {
	return classifyError(GetDB(ctx, r.db).Model(medicine).
		Select("code_no", "brand_name", "generic_name", "batch_no", "manufacture_date",
			"expire_date", "low_stock_threshold", "unit", "department_id").
		Omit(clause.Associations).
		Updates(medicine).Error)
}

func (r *medicineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return classifyError(GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Medicine{}).Error)
}

func (r *medicineRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	var medicine model.Medicine
	if err := GetDB(ctx, r.db).Preload("Department").First(&medicine, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &medicine, nil
}

func (r *medicineRepository) List(ctx context.Context, filter MedicineFilter) ([]model.Medicine, int64, error) {
	var medicines []model.Medicine
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Medicine{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where("code_no ILIKE ? OR brand_name ILIKE ? OR generic_name ILIKE ?", like, like, like)
	}
	if filter.DepartmentID != nil {
		db = db.Where("department_id = ?", *filter.DepartmentID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at desc"
	if column := strings.TrimPrefix(filter.Ordering, "-"); medicineOrderings[column] {
		order = column + " asc"
		if strings.HasPrefix(filter.Ordering, "-") {
			order = column + " desc"
		}
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Preload("Department").Order(order).Offset(offset).Limit(filter.Limit).Find(&medicines).Error; err != nil {
		return nil, 0, err
	}

	return medicines, total, nil
}

// FindByIDForUpdate takes an exclusive row lock held until the enclosing transaction ends.
func (r *medicineRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	if !InTx(ctx) {
		return nil, ErrLockOutsideTx
	}
	var medicine model.Medicine
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&medicine).Error; err != nil {
		return nil, classifyError(err)
	}
	return &medicine, nil
}

// AdjustStock applies stock += delta in one statement and returns the updated row.
// It does not guard against going below zero.
func (r *medicineRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*model.Medicine, error) {
	var medicine model.Medicine
	res := GetDB(ctx, r.db).Model(&medicine).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", delta),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, classifyError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &medicine, nil
}

func (r *medicineRepository) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	res := GetDB(ctx, r.db).Model(&model.Medicine{}).Where("id = ?", id).
		Updates(map[string]interface{}{"price": price, "updated_at": time.Now()})
	if res.Error != nil {
		return classifyError(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *medicineRepository) HasSaleHistory(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.SaleItem{}).Where("medicine_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

package repository

import (
	"context"

	"pharmacy/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RefillRepository is append-only: refills are never updated or deleted directly.
type RefillRepository interface {
	Create(ctx context.Context, refill *model.Refill) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Refill, error)
	List(ctx context.Context, medicineID *uuid.UUID, page, limit int) ([]model.Refill, int64, error)
}

type refillRepository struct {
	db *gorm.DB
}

func NewRefillRepository(db *gorm.DB) RefillRepository {
	return &refillRepository{db: db}
}

func (r *refillRepository) Create(ctx context.Context, refill *model.Refill) error {
	return classifyError(GetDB(ctx, r.db).Omit(clause.Associations).Create(refill).Error)
}

func (r *refillRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Refill, error) {
	var refill model.Refill
	if err := GetDB(ctx, r.db).Preload("Medicine").First(&refill, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &refill, nil
}

func (r *refillRepository) List(ctx context.Context, medicineID *uuid.UUID, page, limit int) ([]model.Refill, int64, error) {
	var refills []model.Refill
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Refill{})
	if medicineID != nil {
		db = db.Where("medicine_id = ?", *medicineID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Medicine").Order("refill_date desc, created_at desc").
		Offset(offset).Limit(limit).Find(&refills).Error; err != nil {
		return nil, 0, err
	}

	return refills, total, nil
}

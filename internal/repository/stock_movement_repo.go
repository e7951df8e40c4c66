package repository

import (
	"context"

	"pharmacy/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockMovementRepository interface {
	Create(ctx context.Context, movement *model.StockMovement) error
	ListByMedicine(ctx context.Context, medicineID uuid.UUID, limit int) ([]model.StockMovement, error)
}

type stockMovementRepository struct {
	db *gorm.DB
}

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) Create(ctx context.Context, movement *model.StockMovement) error {
	return classifyError(GetDB(ctx, r.db).Omit(clause.Associations).Create(movement).Error)
}

func (r *stockMovementRepository) ListByMedicine(ctx context.Context, medicineID uuid.UUID, limit int) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	if err := GetDB(ctx, r.db).Where("medicine_id = ?", medicineID).
		Order("created_at desc").Limit(limit).Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

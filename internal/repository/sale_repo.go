package repository

import (
	"context"

	"pharmacy/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	CreateItem(ctx context.Context, item *model.SaleItem) error
	UpdateHeader(ctx context.Context, sale *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	ListItems(ctx context.Context, saleID uuid.UUID) ([]model.SaleItem, error)
	DeleteItems(ctx context.Context, saleID uuid.UUID) error
	List(ctx context.Context, page, limit int) ([]model.Sale, int64, error)
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return classifyError(GetDB(ctx, r.db).Omit(clause.Associations).Create(sale).Error)
}

func (r *saleRepository) CreateItem(ctx context.Context, item *model.SaleItem) error {
	return classifyError(GetDB(ctx, r.db).Omit(clause.Associations).Create(item).Error)
}

// UpdateHeader writes every mutable header column, including zero values and nulls.
// sold_at and sold_by are never rewritten.
func (r *saleRepository) UpdateHeader(ctx context.Context, sale *model.Sale) error {
	return classifyError(GetDB(ctx, r.db).Model(sale).
		Select("customer_name", "customer_phone", "payment_method", "discount_percentage",
			"base_price", "discounted_amount", "total_amount", "discounted_by", "updated_at").
		Omit(clause.Associations).
		Updates(sale).Error)
}

func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Items.Medicine").
		First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// FindByIDForUpdate locks the sale header only; items are read without a lock.
func (r *saleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	if !InTx(ctx) {
		return nil, ErrLockOutsideTx
	}
	var sale model.Sale
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&sale).Error; err != nil {
		return nil, classifyError(err)
	}
	return &sale, nil
}

func (r *saleRepository) ListItems(ctx context.Context, saleID uuid.UUID) ([]model.SaleItem, error) {
	var items []model.SaleItem
	if err := GetDB(ctx, r.db).Preload("Medicine").
		Where("sale_id = ?", saleID).Order("created_at asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *saleRepository) DeleteItems(ctx context.Context, saleID uuid.UUID) error {
	return classifyError(GetDB(ctx, r.db).Where("sale_id = ?", saleID).Delete(&model.SaleItem{}).Error)
}

func (r *saleRepository) List(ctx context.Context, page, limit int) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Sale{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Items.Medicine").
		Order("sold_at DESC").
		Offset(offset).Limit(limit).
		Find(&sales).Error; err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}

package repository

import (
	"context"

	"pharmacy/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DepartmentRepository interface {
	Create(ctx context.Context, department *model.Department) error
	Update(ctx context.Context, department *model.Department) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Department, error)
	List(ctx context.Context) ([]model.Department, error)
}

type departmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) Create(ctx context.Context, department *model.Department) error {
	return classifyError(GetDB(ctx, r.db).Create(department).Error)
}

func (r *departmentRepository) Update(ctx context.Context, department *model.Department) error {
	return classifyError(GetDB(ctx, r.db).Save(department).Error)
}

// Delete relies on ON DELETE SET NULL to detach medicines and refills.
func (r *departmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return classifyError(GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Department{}).Error)
}

func (r *departmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	var department model.Department
	if err := GetDB(ctx, r.db).First(&department, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]model.Department, error) {
	var departments []model.Department
	if err := GetDB(ctx, r.db).Order("code asc").Find(&departments).Error; err != nil {
		return nil, err
	}
	return departments, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pharmacy/internal/apperror"
	"pharmacy/internal/model"
	"pharmacy/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DepartmentRequest struct {
	Code string `json:"code" binding:"required,max=10"`
	Name string `json:"name" binding:"required,max=255"`
}

type DepartmentResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type DepartmentService interface {
	CreateDepartment(ctx context.Context, userID string, req DepartmentRequest) (DepartmentResponse, error)
	UpdateDepartment(ctx context.Context, userID, id string, req DepartmentRequest) (DepartmentResponse, error)
	DeleteDepartment(ctx context.Context, userID, id string) error
	ListDepartments(ctx context.Context) ([]DepartmentResponse, error)
}

type departmentService struct {
	repo      repository.DepartmentRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewDepartmentService(repo repository.DepartmentRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) DepartmentService {
	return &departmentService{repo: repo, auditRepo: auditRepo, txManager: txManager}
}

func validateDepartment(req DepartmentRequest) (DepartmentRequest, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if req.Code == "" {
		return req, apperror.NewValidation("code", "This field may not be blank.")
	}
	if len(req.Code) > 10 {
		return req, apperror.NewValidation("code", "Ensure this field has no more than 10 characters.")
	}
	if req.Name == "" {
		return req, apperror.NewValidation("name", "This field may not be blank.")
	}
	return req, nil
}

func (s *departmentService) CreateDepartment(ctx context.Context, userID string, req DepartmentRequest) (DepartmentResponse, error) {
	req, err := validateDepartment(req)
	if err != nil {
		return DepartmentResponse{}, err
	}

	department := &model.Department{Code: req.Code, Name: req.Name}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, department); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, parseActor(userID), model.ActionCreateDepartment, department.ID.String(), department.Name, req)
	})
	if err != nil {
		return DepartmentResponse{}, err
	}
	return toDepartmentResponse(department), nil
}

func (s *departmentService) UpdateDepartment(ctx context.Context, userID, id string, req DepartmentRequest) (DepartmentResponse, error) {
	departmentID, err := uuid.Parse(id)
	if err != nil {
		return DepartmentResponse{}, apperror.NewNotFound("Department", id)
	}
	req, err = validateDepartment(req)
	if err != nil {
		return DepartmentResponse{}, err
	}

	var department *model.Department
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		department, findErr = s.repo.FindByID(txCtx, departmentID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NewNotFound("Department", id)
			}
			return fmt.Errorf("database error: %w", findErr)
		}
		department.Code = req.Code
		department.Name = req.Name
		if err := s.repo.Update(txCtx, department); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, parseActor(userID), model.ActionUpdateDepartment, department.ID.String(), department.Name, req)
	})
	if err != nil {
		return DepartmentResponse{}, err
	}
	return toDepartmentResponse(department), nil
}

// DeleteDepartment detaches its medicines and refills instead of removing them.
func (s *departmentService) DeleteDepartment(ctx context.Context, userID, id string) error {
	departmentID, err := uuid.Parse(id)
	if err != nil {
		return apperror.NewNotFound("Department", id)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		department, err := s.repo.FindByID(txCtx, departmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NewNotFound("Department", id)
			}
			return fmt.Errorf("database error: %w", err)
		}
		if err := s.repo.Delete(txCtx, departmentID); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, parseActor(userID), model.ActionDeleteDepartment, id, department.Name, map[string]string{"code": department.Code})
	})
}

func (s *departmentService) ListDepartments(ctx context.Context) ([]DepartmentResponse, error) {
	departments, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]DepartmentResponse, 0, len(departments))
	for i := range departments {
		res = append(res, toDepartmentResponse(&departments[i]))
	}
	return res, nil
}

func toDepartmentResponse(d *model.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:        d.ID.String(),
		Code:      d.Code,
		Name:      d.Name,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
	}
}

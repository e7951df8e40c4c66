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
	"pharmacy/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateMedicineRequest struct {
	CodeNo            string           `json:"code_no" binding:"required,max=50"`
	BrandName         string           `json:"brand_name" binding:"required,max=255"`
	GenericName       *string          `json:"generic_name" binding:"omitempty,max=255"`
	BatchNo           string           `json:"batch_no" binding:"max=100"`
	ManufactureDate   string           `json:"manufacture_date" binding:"required" example:"2026-01-31"`
	ExpireDate        string           `json:"expire_date" binding:"required" example:"2028-01-31"`
	Price             *decimal.Decimal `json:"price" swaggertype:"string"`
	Stock             int              `json:"stock"`
	LowStockThreshold *int             `json:"low_stock_threshold"`
	Unit              string           `json:"unit"`
	Department        *string          `json:"department"`
}

// UpdateMedicineRequest carries catalog metadata only. Stock and price
// change through sales and refills.
type UpdateMedicineRequest struct {
	CodeNo            string  `json:"code_no" binding:"required,max=50"`
	BrandName         string  `json:"brand_name" binding:"required,max=255"`
	GenericName       *string `json:"generic_name" binding:"omitempty,max=255"`
	BatchNo           string  `json:"batch_no" binding:"max=100"`
	ManufactureDate   string  `json:"manufacture_date" binding:"required" example:"2026-01-31"`
	ExpireDate        string  `json:"expire_date" binding:"required" example:"2028-01-31"`
	LowStockThreshold *int    `json:"low_stock_threshold"`
	Unit              string  `json:"unit"`
	Department        *string `json:"department"`
}

type MedicineResponse struct {
	ID                string  `json:"id"`
	CodeNo            string  `json:"code_no"`
	BrandName         string  `json:"brand_name"`
	GenericName       *string `json:"generic_name"`
	BatchNo           string  `json:"batch_no"`
	ManufactureDate   string  `json:"manufacture_date"`
	ExpireDate        string  `json:"expire_date"`
	Price             string  `json:"price"`
	Stock             int     `json:"stock"`
	LowStockThreshold int     `json:"low_stock_threshold"`
	Unit              string  `json:"unit"`
	DepartmentID      *string `json:"department"`
	DepartmentName    string  `json:"department_name,omitempty"`
	IsOutOfStock      bool    `json:"is_out_of_stock"`
	IsLowStock        bool    `json:"is_low_stock"`
	IsExpired         bool    `json:"is_expired"`
	IsNearlyExpired   bool    `json:"is_nearly_expired"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

type StockMovementResponse struct {
	ID              string `json:"id"`
	Reason          string `json:"reason"`
	ReferenceID     string `json:"reference_id"`
	QuantityChanged int    `json:"quantity_changed"`
	StockAfter      int    `json:"stock_after"`
	CreatedAt       string `json:"created_at"`
}

type MedicineService interface {
	CreateMedicine(ctx context.Context, userID string, req CreateMedicineRequest) (MedicineResponse, error)
	UpdateMedicine(ctx context.Context, userID, id string, req UpdateMedicineRequest) (MedicineResponse, error)
	DeleteMedicine(ctx context.Context, userID, id string) error
	GetMedicine(ctx context.Context, id string) (MedicineResponse, error)
	ListMedicines(ctx context.Context, filter repository.MedicineFilter) ([]MedicineResponse, int64, error)
	ListMovements(ctx context.Context, id string, limit int) ([]StockMovementResponse, error)
}

type medicineService struct {
	medicineRepo   repository.MedicineRepository
	departmentRepo repository.DepartmentRepository
	movementRepo   repository.StockMovementRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	now            func() time.Time
}

func NewMedicineService(
	medicineRepo repository.MedicineRepository,
	departmentRepo repository.DepartmentRepository,
	movementRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) MedicineService {
	return &medicineService{
		medicineRepo:   medicineRepo,
		departmentRepo: departmentRepo,
		movementRepo:   movementRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// medicineMetadata is the validated, editable part of a medicine
type medicineMetadata struct {
	CodeNo            string
	BrandName         string
	GenericName       *string
	BatchNo           string
	ManufactureDate   time.Time
	ExpireDate        time.Time
	LowStockThreshold int
	Unit              string
	DepartmentID      *uuid.UUID
}

func validateMetadata(codeNo, brandName string, genericName *string, batchNo, manufactureDate, expireDate string, threshold *int, unit string, department *string) (medicineMetadata, error) {
	var m medicineMetadata
	var err error

	if m.CodeNo = strings.TrimSpace(codeNo); m.CodeNo == "" {
		return m, apperror.NewValidation("code_no", "This field may not be blank.")
	}
	if m.BrandName = strings.TrimSpace(brandName); m.BrandName == "" {
		return m, apperror.NewValidation("brand_name", "This field may not be blank.")
	}
	m.GenericName = optionalString(genericName)
	m.BatchNo = strings.TrimSpace(batchNo)

	if m.ManufactureDate, err = time.Parse(dateLayout, manufactureDate); err != nil {
		return m, apperror.NewValidation("manufacture_date", "Date has wrong format. Use YYYY-MM-DD.")
	}
	if m.ExpireDate, err = time.Parse(dateLayout, expireDate); err != nil {
		return m, apperror.NewValidation("expire_date", "Date has wrong format. Use YYYY-MM-DD.")
	}
	if m.ExpireDate.Before(m.ManufactureDate) {
		return m, apperror.NewValidation("expire_date", "Expire date must not be before manufacture date.")
	}

	m.LowStockThreshold = 10
	if threshold != nil {
		if *threshold < 0 {
			return m, apperror.NewValidation("low_stock_threshold", "Ensure this value is greater than or equal to 0.")
		}
		m.LowStockThreshold = *threshold
	}

	m.Unit = strings.ToLower(strings.TrimSpace(unit))
	if m.Unit == "" {
		m.Unit = model.UnitTablet
	}
	if !model.IsValidUnit(m.Unit) {
		return m, apperror.NewValidation("unit", fmt.Sprintf("%q is not a valid unit. Use one of: %s.", unit, strings.Join(model.Units, ", ")))
	}

	if dept := optionalString(department); dept != nil {
		departmentID, err := uuid.Parse(*dept)
		if err != nil {
			return m, apperror.NewValidation("department", fmt.Sprintf("%q is not a valid department id.", *dept))
		}
		m.DepartmentID = &departmentID
	}
	return m, nil
}

func (s *medicineService) checkDepartment(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.departmentRepo.FindByID(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NewValidation("department", fmt.Sprintf("Department %s does not exist.", id))
		}
		return fmt.Errorf("failed to find department: %w", err)
	}
	return nil
}

func (s *medicineService) CreateMedicine(ctx context.Context, userID string, req CreateMedicineRequest) (MedicineResponse, error) {
	meta, err := validateMetadata(req.CodeNo, req.BrandName, req.GenericName, req.BatchNo, req.ManufactureDate, req.ExpireDate, req.LowStockThreshold, req.Unit, req.Department)
	if err != nil {
		return MedicineResponse{}, err
	}
	if req.Price == nil {
		return MedicineResponse{}, apperror.NewValidation("price", "This field is required.")
	}
	if req.Price.IsNegative() || !hasAtMostTwoDecimals(*req.Price) {
		return MedicineResponse{}, apperror.NewValidation("price", "Price must be a non-negative amount with at most 2 decimal places.")
	}
	if req.Stock < 0 {
		return MedicineResponse{}, apperror.NewValidation("stock", "Ensure this value is greater than or equal to 0.")
	}
	actor := parseActor(userID)

	medicine := &model.Medicine{
		CodeNo:            meta.CodeNo,
		BrandName:         meta.BrandName,
		GenericName:       meta.GenericName,
		BatchNo:           meta.BatchNo,
		ManufactureDate:   meta.ManufactureDate,
		ExpireDate:        meta.ExpireDate,
		Price:             *req.Price,
		Stock:             req.Stock,
		LowStockThreshold: meta.LowStockThreshold,
		Unit:              meta.Unit,
		DepartmentID:      meta.DepartmentID,
		CreatedBy:         actor,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.checkDepartment(txCtx, medicine.DepartmentID); err != nil {
			return err
		}
		if err := s.medicineRepo.Create(txCtx, medicine); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateMedicine, medicine.ID.String(), medicine.BrandName, map[string]interface{}{
			"code_no": medicine.CodeNo,
			"price":   money(medicine.Price),
			"stock":   medicine.Stock,
		})
	})
	if err != nil {
		return MedicineResponse{}, err
	}

	logger.Info(ctx, "medicine created", "medicine_id", medicine.ID, "code_no", medicine.CodeNo)
	return s.toResponse(medicine), nil
}

func (s *medicineService) UpdateMedicine(ctx context.Context, userID, id string, req UpdateMedicineRequest) (MedicineResponse, error) {
	medicineID, err := uuid.Parse(id)
	if err != nil {
		return MedicineResponse{}, apperror.NewNotFound("Medicine", id)
	}
	meta, err := validateMetadata(req.CodeNo, req.BrandName, req.GenericName, req.BatchNo, req.ManufactureDate, req.ExpireDate, req.LowStockThreshold, req.Unit, req.Department)
	if err != nil {
		return MedicineResponse{}, err
	}
	actor := parseActor(userID)

	var medicine *model.Medicine
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		medicine, findErr = s.medicineRepo.FindByIDForUpdate(txCtx, medicineID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NewNotFound("Medicine", id)
			}
			return fmt.Errorf("failed to lock medicine: %w", findErr)
		}
		if err := s.checkDepartment(txCtx, meta.DepartmentID); err != nil {
			return err
		}

		medicine.CodeNo = meta.CodeNo
		medicine.BrandName = meta.BrandName
		medicine.GenericName = meta.GenericName
		medicine.BatchNo = meta.BatchNo
		medicine.ManufactureDate = meta.ManufactureDate
		medicine.ExpireDate = meta.ExpireDate
		medicine.LowStockThreshold = meta.LowStockThreshold
		medicine.Unit = meta.Unit
		medicine.DepartmentID = meta.DepartmentID
		medicine.Department = nil

		if err := s.medicineRepo.Update(txCtx, medicine); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateMedicine, medicine.ID.String(), medicine.BrandName, map[string]interface{}{
			"code_no":    medicine.CodeNo,
			"unit":       medicine.Unit,
			"department": uuidString(medicine.DepartmentID),
		})
	})
	if err != nil {
		return MedicineResponse{}, err
	}

	return s.toResponse(medicine), nil
}

// DeleteMedicine refuses to remove a medicine that any sale line references.
func (s *medicineService) DeleteMedicine(ctx context.Context, userID, id string) error {
	medicineID, err := uuid.Parse(id)
	if err != nil {
		return apperror.NewNotFound("Medicine", id)
	}
	actor := parseActor(userID)

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		medicine, err := s.medicineRepo.FindByIDForUpdate(txCtx, medicineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NewNotFound("Medicine", id)
			}
			return fmt.Errorf("failed to lock medicine: %w", err)
		}

		sold, err := s.medicineRepo.HasSaleHistory(txCtx, medicineID)
		if err != nil {
			return fmt.Errorf("failed to check sale history: %w", err)
		}
		if sold {
			return apperror.NewConflict(fmt.Sprintf("Medicine %s has sale history and cannot be deleted.", medicine.BrandName)).
				WithDetail("medicine_id", id)
		}

		if err := s.medicineRepo.Delete(txCtx, medicineID); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteMedicine, id, medicine.BrandName, map[string]interface{}{
			"code_no": medicine.CodeNo,
		})
	})
}

func (s *medicineService) GetMedicine(ctx context.Context, id string) (MedicineResponse, error) {
	medicineID, err := uuid.Parse(id)
	if err != nil {
		return MedicineResponse{}, apperror.NewNotFound("Medicine", id)
	}
	medicine, err := s.medicineRepo.FindByID(ctx, medicineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MedicineResponse{}, apperror.NewNotFound("Medicine", id)
		}
		return MedicineResponse{}, fmt.Errorf("database error: %w", err)
	}
	return s.toResponse(medicine), nil
}

func (s *medicineService) ListMedicines(ctx context.Context, filter repository.MedicineFilter) ([]MedicineResponse, int64, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	medicines, total, err := s.medicineRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	res := make([]MedicineResponse, 0, len(medicines))
	for i := range medicines {
		res = append(res, s.toResponse(&medicines[i]))
	}
	return res, total, nil
}

// ListMovements returns the newest stock movements of one medicine.
func (s *medicineService) ListMovements(ctx context.Context, id string, limit int) ([]StockMovementResponse, error) {
	medicineID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NewNotFound("Medicine", id)
	}
	if _, err := s.medicineRepo.FindByID(ctx, medicineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Medicine", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	movements, err := s.movementRepo.ListByMedicine(ctx, medicineID, limit)
	if err != nil {
		return nil, err
	}
	res := make([]StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		res = append(res, StockMovementResponse{
			ID:              m.ID.String(),
			Reason:          m.Reason,
			ReferenceID:     m.ReferenceID.String(),
			QuantityChanged: m.QuantityChanged,
			StockAfter:      m.StockAfter,
			CreatedAt:       m.CreatedAt.Format(time.RFC3339),
		})
	}
	return res, nil
}

func (s *medicineService) toResponse(m *model.Medicine) MedicineResponse {
	now := s.now()
	res := MedicineResponse{
		ID:                m.ID.String(),
		CodeNo:            m.CodeNo,
		BrandName:         m.BrandName,
		GenericName:       m.GenericName,
		BatchNo:           m.BatchNo,
		ManufactureDate:   formatDate(m.ManufactureDate),
		ExpireDate:        formatDate(m.ExpireDate),
		Price:             money(m.Price),
		Stock:             m.Stock,
		LowStockThreshold: m.LowStockThreshold,
		Unit:              m.Unit,
		DepartmentID:      uuidString(m.DepartmentID),
		IsOutOfStock:      m.IsOutOfStock(),
		IsLowStock:        m.IsLowStock(),
		IsExpired:         m.IsExpired(now),
		IsNearlyExpired:   m.IsNearlyExpired(now, model.NearlyExpiredDays),
		CreatedAt:         m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         m.UpdatedAt.Format(time.RFC3339),
	}
	if m.Department != nil {
		res.DepartmentName = m.Department.Name
	}
	return res
}

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
type RefillRequest struct {
	Medicine        string           `json:"medicine" binding:"required"`
	BatchNo         string           `json:"batch_no" binding:"required,max=100"`
	ManufactureDate string           `json:"manufacture_date" binding:"required" example:"2026-01-31"`
	ExpireDate      string           `json:"expire_date" binding:"required" example:"2028-01-31"`
	RefillDate      string           `json:"refill_date" example:"2026-02-15"`
	Price           *decimal.Decimal `json:"price" swaggertype:"string"`
	Quantity        int              `json:"quantity"`
	Department      *string          `json:"department"`
}

type RefillResponse struct {
	ID              string  `json:"id"`
	MedicineID      string  `json:"medicine"`
	MedicineName    string  `json:"medicine_name"`
	DepartmentID    *string `json:"department"`
	BatchNo         string  `json:"batch_no"`
	ManufactureDate string  `json:"manufacture_date"`
	ExpireDate      string  `json:"expire_date"`
	Price           string  `json:"price"`
	Quantity        int     `json:"quantity"`
	RefillDate      string  `json:"refill_date"`
	CreatedBy       *string `json:"created_by"`
	CreatedAt       string  `json:"created_at"`
	StockAfter      *int    `json:"stock_after,omitempty"`
}

type RefillService interface {
	CreateRefill(ctx context.Context, userID string, req RefillRequest) (RefillResponse, error)
	GetRefill(ctx context.Context, id string) (RefillResponse, error)
	ListRefills(ctx context.Context, medicineID string, page, limit int) ([]RefillResponse, int64, error)
}

type refillService struct {
	refillRepo     repository.RefillRepository
	medicineRepo   repository.MedicineRepository
	departmentRepo repository.DepartmentRepository
	movementRepo   repository.StockMovementRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	notifier       *stockNotifier
	now            func() time.Time
}

func NewRefillService(
	refillRepo repository.RefillRepository,
	medicineRepo repository.MedicineRepository,
	departmentRepo repository.DepartmentRepository,
	movementRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher Publisher,
) RefillService {
	return &refillService{
		refillRepo:     refillRepo,
		medicineRepo:   medicineRepo,
		departmentRepo: departmentRepo,
		movementRepo:   movementRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		notifier:       newStockNotifier(publisher, false),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

type refillInput struct {
	MedicineID      uuid.UUID
	DepartmentID    *uuid.UUID
	BatchNo         string
	ManufactureDate time.Time
	ExpireDate      time.Time
	RefillDate      time.Time
	Price           decimal.Decimal
	Quantity        int
}

func (s *refillService) validate(req RefillRequest) (refillInput, error) {
	var input refillInput

	medicineID, err := uuid.Parse(strings.TrimSpace(req.Medicine))
	if err != nil {
		return input, apperror.NewValidation("medicine", fmt.Sprintf("%q is not a valid medicine id.", req.Medicine))
	}
	input.MedicineID = medicineID

	input.BatchNo = strings.TrimSpace(req.BatchNo)
	if input.BatchNo == "" {
		return input, apperror.NewValidation("batch_no", "This field may not be blank.")
	}

	if input.ManufactureDate, err = time.Parse(dateLayout, req.ManufactureDate); err != nil {
		return input, apperror.NewValidation("manufacture_date", "Date has wrong format. Use YYYY-MM-DD.")
	}
	if input.ExpireDate, err = time.Parse(dateLayout, req.ExpireDate); err != nil {
		return input, apperror.NewValidation("expire_date", "Date has wrong format. Use YYYY-MM-DD.")
	}
	if input.ExpireDate.Before(input.ManufactureDate) {
		return input, apperror.NewValidation("expire_date", "Expire date must not be before manufacture date.")
	}

	input.RefillDate = s.now()
	if req.RefillDate != "" {
		if input.RefillDate, err = time.Parse(dateLayout, req.RefillDate); err != nil {
			return input, apperror.NewValidation("refill_date", "Date has wrong format. Use YYYY-MM-DD.")
		}
	}

	if req.Price == nil {
		return input, apperror.NewValidation("price", "This field is required.")
	}
	if req.Price.IsNegative() || !hasAtMostTwoDecimals(*req.Price) {
		return input, apperror.NewValidation("price", "Price must be a non-negative amount with at most 2 decimal places.")
	}
	input.Price = *req.Price

	if req.Quantity <= 0 {
		return input, apperror.NewValidation("quantity", "Quantity must be greater than zero.")
	}
	input.Quantity = req.Quantity

	if dept := optionalString(req.Department); dept != nil {
		departmentID, err := uuid.Parse(*dept)
		if err != nil {
			return input, apperror.NewValidation("department", fmt.Sprintf("%q is not a valid department id.", *dept))
		}
		input.DepartmentID = &departmentID
	}

	return input, nil
}

// CreateRefill appends the ledger row, adds its quantity to the medicine's
// stock and makes its price the medicine's current price, all under the
// same row lock the sale engine uses.
func (s *refillService) CreateRefill(ctx context.Context, userID string, req RefillRequest) (RefillResponse, error) {
	input, err := s.validate(req)
	if err != nil {
		return RefillResponse{}, err
	}
	actor := parseActor(userID)

	var refill model.Refill
	var updated *model.Medicine
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		medicine, lockErr := s.medicineRepo.FindByIDForUpdate(txCtx, input.MedicineID)
		if lockErr != nil {
			if errors.Is(lockErr, gorm.ErrRecordNotFound) {
				return apperror.NewMedicineNotFound(input.MedicineID).WithField("medicine")
			}
			return fmt.Errorf("failed to lock medicine: %w", lockErr)
		}

		if input.DepartmentID != nil {
			if _, deptErr := s.departmentRepo.FindByID(txCtx, *input.DepartmentID); deptErr != nil {
				if errors.Is(deptErr, gorm.ErrRecordNotFound) {
					return apperror.NewValidation("department", fmt.Sprintf("Department %s does not exist.", input.DepartmentID))
				}
				return fmt.Errorf("failed to find department: %w", deptErr)
			}
		}

		refill = model.Refill{
			MedicineID:      medicine.ID,
			DepartmentID:    input.DepartmentID,
			BatchNo:         input.BatchNo,
			ManufactureDate: input.ManufactureDate,
			ExpireDate:      input.ExpireDate,
			Price:           input.Price,
			Quantity:        input.Quantity,
			RefillDate:      input.RefillDate,
			CreatedBy:       actor,
		}
		if err := s.refillRepo.Create(txCtx, &refill); err != nil {
			return fmt.Errorf("failed to create refill: %w", err)
		}

		var adjustErr error
		updated, adjustErr = s.medicineRepo.AdjustStock(txCtx, medicine.ID, input.Quantity)
		if adjustErr != nil {
			return fmt.Errorf("failed to update stock: %w", adjustErr)
		}
		if err := s.medicineRepo.UpdatePrice(txCtx, medicine.ID, input.Price); err != nil {
			return fmt.Errorf("failed to update price: %w", err)
		}
		updated.Price = input.Price
		refill.Medicine = *updated

		movement := &model.StockMovement{
			MedicineID:      medicine.ID,
			Reason:          model.MovementRefill,
			ReferenceID:     refill.ID,
			QuantityChanged: input.Quantity,
			StockAfter:      updated.Stock,
		}
		if err := s.movementRepo.Create(txCtx, movement); err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateRefill, refill.ID.String(), medicine.BrandName, map[string]interface{}{
			"medicine_id": medicine.ID.String(),
			"batch_no":    refill.BatchNo,
			"quantity":    refill.Quantity,
			"price":       money(refill.Price),
			"stock_after": updated.Stock,
		})
	})
	if err != nil {
		logger.Warn(ctx, "refill rejected", "medicine_id", req.Medicine, "error", err)
		return RefillResponse{}, err
	}

	logger.Info(ctx, "refill committed",
		"refill_id", refill.ID,
		"medicine_id", updated.ID,
		"quantity", refill.Quantity,
		"stock_after", updated.Stock,
	)
	s.notifier.notify(ctx, []stockChange{{
		MedicineID: updated.ID,
		Name:       updated.BrandName,
		Delta:      refill.Quantity,
		StockAfter: updated.Stock,
		Threshold:  updated.LowStockThreshold,
		Reason:     model.MovementRefill,
	}})

	res := toRefillResponse(&refill)
	stock := updated.Stock
	res.StockAfter = &stock
	return res, nil
}

func (s *refillService) GetRefill(ctx context.Context, id string) (RefillResponse, error) {
	refillID, err := uuid.Parse(id)
	if err != nil {
		return RefillResponse{}, apperror.NewNotFound("Refill", id)
	}

	refill, err := s.refillRepo.FindByID(ctx, refillID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RefillResponse{}, apperror.NewNotFound("Refill", id)
		}
		return RefillResponse{}, fmt.Errorf("database error: %w", err)
	}
	return toRefillResponse(refill), nil
}

func (s *refillService) ListRefills(ctx context.Context, medicineID string, page, limit int) ([]RefillResponse, int64, error) {
	var filter *uuid.UUID
	if medicineID != "" {
		parsed, err := uuid.Parse(medicineID)
		if err != nil {
			return nil, 0, apperror.NewValidation("medicine_id", fmt.Sprintf("%q is not a valid medicine id.", medicineID))
		}
		filter = &parsed
	}

	refills, total, err := s.refillRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]RefillResponse, 0, len(refills))
	for i := range refills {
		res = append(res, toRefillResponse(&refills[i]))
	}
	return res, total, nil
}

func toRefillResponse(r *model.Refill) RefillResponse {
	return RefillResponse{
		ID:              r.ID.String(),
		MedicineID:      r.MedicineID.String(),
		MedicineName:    r.Medicine.BrandName,
		DepartmentID:    uuidString(r.DepartmentID),
		BatchNo:         r.BatchNo,
		ManufactureDate: formatDate(r.ManufactureDate),
		ExpireDate:      formatDate(r.ExpireDate),
		Price:           money(r.Price),
		Quantity:        r.Quantity,
		RefillDate:      formatDate(r.RefillDate),
		CreatedBy:       uuidString(r.CreatedBy),
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
}

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
type SaleItemRequest struct {
	Medicine string           `json:"medicine" binding:"required"`
	Quantity int              `json:"quantity"`
	Price    *decimal.Decimal `json:"price" swaggertype:"string"`
}

// SaleRequest is the body of both sale creation and sale update
type SaleRequest struct {
	CustomerName       *string           `json:"customer_name" binding:"omitempty,max=255"`
	CustomerPhone      *string           `json:"customer_phone" binding:"omitempty,max=20"`
	PaymentMethod      string            `json:"payment_method" binding:"omitempty,oneof=cash transfer"`
	DiscountPercentage *decimal.Decimal  `json:"discount_percentage" swaggertype:"string"`
	InputItems         []SaleItemRequest `json:"input_items" binding:"dive"`
}

type SaleItemResponse struct {
	ID           string `json:"id"`
	MedicineID   string `json:"medicine"`
	MedicineName string `json:"medicine_name"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
	LineTotal    string `json:"line_total"`
}

type SaleResponse struct {
	ID                 string             `json:"id"`
	CustomerName       *string            `json:"customer_name"`
	CustomerPhone      *string            `json:"customer_phone"`
	SoldAt             string             `json:"sold_at"`
	PaymentMethod      string             `json:"payment_method"`
	DiscountPercentage string             `json:"discount_percentage"`
	BasePrice          string             `json:"base_price"`
	DiscountedAmount   string             `json:"discounted_amount"`
	TotalAmount        string             `json:"total_amount"`
	SoldBy             *string            `json:"sold_by"`
	DiscountedBy       *string            `json:"discounted_by"`
	Items              []SaleItemResponse `json:"items"`
}

type SaleService interface {
	CreateSale(ctx context.Context, userID string, req SaleRequest) (SaleResponse, error)
	UpdateSale(ctx context.Context, userID string, id string, req SaleRequest) (SaleResponse, error)
	GetSale(ctx context.Context, id string) (SaleResponse, error)
	ListSales(ctx context.Context, page, limit int) ([]SaleResponse, int64, error)
}

type saleService struct {
	saleRepo     repository.SaleRepository
	medicineRepo repository.MedicineRepository
	movementRepo repository.StockMovementRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	notifier     *stockNotifier
	now          func() time.Time
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	medicineRepo repository.MedicineRepository,
	movementRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher Publisher,
	lowStockAlerts bool,
) SaleService {
	return &saleService{
		saleRepo:     saleRepo,
		medicineRepo: medicineRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		notifier:     newStockNotifier(publisher, lowStockAlerts),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// saleLine is one validated request item
type saleLine struct {
	MedicineID uuid.UUID
	Quantity   int
	Price      *decimal.Decimal
}

type saleInput struct {
	CustomerName  *string
	CustomerPhone *string
	PaymentMethod string
	Discount      decimal.Decimal
	Lines         []saleLine
}

// validateSaleRequest rejects malformed input before anything is persisted.
func validateSaleRequest(req SaleRequest) (saleInput, error) {
	if len(req.InputItems) == 0 {
		return saleInput{}, apperror.NewEmptyItemList()
	}

	input := saleInput{
		CustomerName:  optionalString(req.CustomerName),
		CustomerPhone: optionalString(req.CustomerPhone),
		PaymentMethod: strings.ToLower(strings.TrimSpace(req.PaymentMethod)),
		Discount:      decimal.Zero,
		Lines:         make([]saleLine, 0, len(req.InputItems)),
	}

	switch input.PaymentMethod {
	case "":
		input.PaymentMethod = model.PaymentCash
	case model.PaymentCash, model.PaymentTransfer:
	default:
		return saleInput{}, apperror.NewValidation("payment_method", fmt.Sprintf("%q is not a valid payment method.", req.PaymentMethod))
	}

	if req.DiscountPercentage != nil {
		d := *req.DiscountPercentage
		if d.IsNegative() || d.GreaterThan(hundred) || !hasAtMostTwoDecimals(d) {
			return saleInput{}, apperror.NewInvalidDiscount(d.String())
		}
		input.Discount = d
	}

	for i, item := range req.InputItems {
		if item.Quantity <= 0 {
			return saleInput{}, apperror.NewInvalidQuantity(i, item.Quantity)
		}
		medicineID, err := uuid.Parse(strings.TrimSpace(item.Medicine))
		if err != nil {
			return saleInput{}, apperror.NewValidation(apperror.ItemsField, fmt.Sprintf("Item %d: %q is not a valid medicine id.", i, item.Medicine)).
				WithDetail("index", i)
		}
		if item.Price != nil && (item.Price.IsNegative() || !hasAtMostTwoDecimals(*item.Price)) {
			return saleInput{}, apperror.NewInvalidPrice(i, item.Price.String())
		}
		input.Lines = append(input.Lines, saleLine{MedicineID: medicineID, Quantity: item.Quantity, Price: item.Price})
	}

	return input, nil
}

func (s *saleService) CreateSale(ctx context.Context, userID string, req SaleRequest) (SaleResponse, error) {
	input, err := validateSaleRequest(req)
	if err != nil {
		return SaleResponse{}, err
	}
	actor := parseActor(userID)

	var sale model.Sale
	var changes []stockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale = model.Sale{
			CustomerName:       input.CustomerName,
			CustomerPhone:      input.CustomerPhone,
			SoldAt:             s.now(),
			PaymentMethod:      input.PaymentMethod,
			DiscountPercentage: input.Discount,
			BasePrice:          decimal.Zero,
			DiscountedAmount:   decimal.Zero,
			TotalAmount:        decimal.Zero,
			SoldBy:             actor,
		}
		if err := s.saleRepo.Create(txCtx, &sale); err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}

		var populateErr error
		changes, populateErr = s.populateSale(txCtx, &sale, input.Lines, actor)
		if populateErr != nil {
			return populateErr
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateSale, sale.ID.String(), saleEntityName(&sale), saleAuditDetails(&sale))
	})
	if err != nil {
		logger.Warn(ctx, "sale rejected", "error", err)
		return SaleResponse{}, err
	}

	logger.Info(ctx, "sale committed",
		"sale_id", sale.ID,
		"items", len(sale.Items),
		"total_amount", money(sale.TotalAmount),
	)
	s.notifier.notify(ctx, changes)

	return toSaleResponse(&sale), nil
}

func (s *saleService) UpdateSale(ctx context.Context, userID string, id string, req SaleRequest) (SaleResponse, error) {
	saleID, err := uuid.Parse(id)
	if err != nil {
		return SaleResponse{}, apperror.NewNotFound("Sale", id)
	}
	input, err := validateSaleRequest(req)
	if err != nil {
		return SaleResponse{}, err
	}
	actor := parseActor(userID)

	var sale *model.Sale
	var changes []stockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		sale, findErr = s.saleRepo.FindByIDForUpdate(txCtx, saleID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NewNotFound("Sale", id)
			}
			return fmt.Errorf("failed to lock sale: %w", findErr)
		}

		restored, restoreErr := s.restoreStock(txCtx, sale.ID)
		if restoreErr != nil {
			return restoreErr
		}
		changes = append(changes, restored...)

		if err := s.saleRepo.DeleteItems(txCtx, sale.ID); err != nil {
			return fmt.Errorf("failed to remove sale items: %w", err)
		}

		sale.CustomerName = input.CustomerName
		sale.CustomerPhone = input.CustomerPhone
		sale.PaymentMethod = input.PaymentMethod
		sale.DiscountPercentage = input.Discount

		applied, populateErr := s.populateSale(txCtx, sale, input.Lines, actor)
		if populateErr != nil {
			return populateErr
		}
		changes = append(changes, applied...)

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateSale, sale.ID.String(), saleEntityName(sale), saleAuditDetails(sale))
	})
	if err != nil {
		logger.Warn(ctx, "sale update rejected", "sale_id", id, "error", err)
		return SaleResponse{}, err
	}

	logger.Info(ctx, "sale updated", "sale_id", sale.ID, "total_amount", money(sale.TotalAmount))
	s.notifier.notify(ctx, changes)

	return toSaleResponse(sale), nil
}

// restoreStock gives back the stock taken by the sale's current items.
func (s *saleService) restoreStock(ctx context.Context, saleID uuid.UUID) ([]stockChange, error) {
	items, err := s.saleRepo.ListItems(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sale items: %w", err)
	}

	changes := make([]stockChange, 0, len(items))
	for _, item := range items {
		if _, err := s.medicineRepo.FindByIDForUpdate(ctx, item.MedicineID); err != nil {
			return nil, fmt.Errorf("failed to lock medicine %s: %w", item.MedicineID, err)
		}
		updated, err := s.medicineRepo.AdjustStock(ctx, item.MedicineID, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to restore stock for medicine %s: %w", item.MedicineID, err)
		}
		if err := s.recordMovement(ctx, updated, model.MovementSaleReversal, saleID, item.Quantity); err != nil {
			return nil, err
		}
		changes = append(changes, stockChange{
			MedicineID: updated.ID,
			Name:       updated.BrandName,
			Delta:      item.Quantity,
			StockAfter: updated.Stock,
			Threshold:  updated.LowStockThreshold,
			Reason:     model.MovementSaleReversal,
		})
	}
	return changes, nil
}

// populateSale creates the sale's items, takes their stock and derives the
// totals. It must run inside the transaction that created or locked the sale.
// A sale that already has items is returned untouched, so a repeated call
// never takes stock twice.
func (s *saleService) populateSale(ctx context.Context, sale *model.Sale, lines []saleLine, actor *uuid.UUID) ([]stockChange, error) {
	existing, err := s.saleRepo.ListItems(ctx, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sale items: %w", err)
	}
	if len(existing) > 0 {
		logger.Warn(ctx, "sale already has items, skipping populate", "sale_id", sale.ID, "items", len(existing))
		sale.Items = existing
		return nil, nil
	}

	items := make([]model.SaleItem, 0, len(lines))
	changes := make([]stockChange, 0, len(lines))
	for _, line := range lines {
		medicine, err := s.medicineRepo.FindByIDForUpdate(ctx, line.MedicineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.NewMedicineNotFound(line.MedicineID)
			}
			return nil, fmt.Errorf("failed to lock medicine %s: %w", line.MedicineID, err)
		}

		if medicine.Stock < line.Quantity {
			return nil, apperror.NewInsufficientStock(medicine.BrandName, medicine.Stock, line.Quantity)
		}

		price := medicine.Price
		if line.Price != nil {
			price = *line.Price
		}

		item := model.SaleItem{
			SaleID:     sale.ID,
			MedicineID: medicine.ID,
			Quantity:   line.Quantity,
			Price:      price,
		}
		if err := s.saleRepo.CreateItem(ctx, &item); err != nil {
			return nil, fmt.Errorf("failed to create sale item: %w", err)
		}

		updated, err := s.medicineRepo.AdjustStock(ctx, medicine.ID, -line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to update stock for medicine %s: %w", medicine.BrandName, err)
		}
		if err := s.recordMovement(ctx, updated, model.MovementSale, sale.ID, -line.Quantity); err != nil {
			return nil, err
		}

		item.Medicine = *updated
		items = append(items, item)
		changes = append(changes, stockChange{
			MedicineID: updated.ID,
			Name:       updated.BrandName,
			Delta:      -line.Quantity,
			StockAfter: updated.Stock,
			Threshold:  updated.LowStockThreshold,
			Reason:     model.MovementSale,
		})
	}

	totals := ComputeSaleTotals(items, sale.DiscountPercentage)
	sale.BasePrice = totals.BasePrice
	sale.DiscountedAmount = totals.DiscountedAmount
	sale.TotalAmount = totals.TotalAmount
	sale.DiscountedBy = nil
	if sale.DiscountPercentage.IsPositive() {
		sale.DiscountedBy = actor
	}

	if err := s.saleRepo.UpdateHeader(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to save sale totals: %w", err)
	}
	sale.Items = items

	return changes, nil
}

func (s *saleService) recordMovement(ctx context.Context, medicine *model.Medicine, reason string, referenceID uuid.UUID, delta int) error {
	movement := &model.StockMovement{
		MedicineID:      medicine.ID,
		Reason:          reason,
		ReferenceID:     referenceID,
		QuantityChanged: delta,
		StockAfter:      medicine.Stock,
	}
	if err := s.movementRepo.Create(ctx, movement); err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}

func (s *saleService) GetSale(ctx context.Context, id string) (SaleResponse, error) {
	saleID, err := uuid.Parse(id)
	if err != nil {
		return SaleResponse{}, apperror.NewNotFound("Sale", id)
	}

	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SaleResponse{}, apperror.NewNotFound("Sale", id)
		}
		return SaleResponse{}, fmt.Errorf("database error: %w", err)
	}

	return toSaleResponse(sale), nil
}

func (s *saleService) ListSales(ctx context.Context, page, limit int) ([]SaleResponse, int64, error) {
	sales, total, err := s.saleRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]SaleResponse, 0, len(sales))
	for i := range sales {
		res = append(res, toSaleResponse(&sales[i]))
	}
	return res, total, nil
}

// --- Helpers ---

func toSaleResponse(sale *model.Sale) SaleResponse {
	items := make([]SaleItemResponse, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, SaleItemResponse{
			ID:           item.ID.String(),
			MedicineID:   item.MedicineID.String(),
			MedicineName: item.Medicine.BrandName,
			Quantity:     item.Quantity,
			Price:        money(item.Price),
			LineTotal:    money(item.LineTotal()),
		})
	}

	return SaleResponse{
		ID:                 sale.ID.String(),
		CustomerName:       sale.CustomerName,
		CustomerPhone:      sale.CustomerPhone,
		SoldAt:             sale.SoldAt.Format(time.RFC3339),
		PaymentMethod:      sale.PaymentMethod,
		DiscountPercentage: money(sale.DiscountPercentage),
		BasePrice:          money(sale.BasePrice),
		DiscountedAmount:   money(sale.DiscountedAmount),
		TotalAmount:        money(sale.TotalAmount),
		SoldBy:             uuidString(sale.SoldBy),
		DiscountedBy:       uuidString(sale.DiscountedBy),
		Items:              items,
	}
}

func saleEntityName(sale *model.Sale) string {
	names := make([]string, 0, len(sale.Items))
	for _, item := range sale.Items {
		names = append(names, item.Medicine.BrandName)
	}
	return strings.Join(names, ", ")
}

func saleAuditDetails(sale *model.Sale) map[string]interface{} {
	type itemAudit struct {
		MedicineID string `json:"medicine_id"`
		Quantity   int    `json:"quantity"`
		Price      string `json:"price"`
	}
	items := make([]itemAudit, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, itemAudit{
			MedicineID: item.MedicineID.String(),
			Quantity:   item.Quantity,
			Price:      money(item.Price),
		})
	}
	return map[string]interface{}{
		"payment_method":      sale.PaymentMethod,
		"discount_percentage": money(sale.DiscountPercentage),
		"base_price":          money(sale.BasePrice),
		"discounted_amount":   money(sale.DiscountedAmount),
		"total_amount":        money(sale.TotalAmount),
		"items":               items,
	}
}

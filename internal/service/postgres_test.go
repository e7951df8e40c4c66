package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"pharmacy/internal/apperror"
	"pharmacy/internal/database"
	"pharmacy/internal/model"
	"pharmacy/internal/repository"
	"pharmacy/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// pgStack wires the services to a real Postgres through the gorm repositories
type pgStack struct {
	db      *gorm.DB
	sales   SaleService
	refills RefillService
	userID  string
}

func newPGStack(t *testing.T) *pgStack {
	t.Helper()
	dsn := os.Getenv("PHARMACY_TEST_DSN")
	if dsn == "" {
		t.Skip("PHARMACY_TEST_DSN not set")
	}
	db, err := database.NewConnection(dsn, logger.Nop())
	require.NoError(t, err)

	user := model.User{
		Username: "it-" + uuid.NewString()[:8],
		Password: "x",
		Role:     model.RolePharmacist,
	}
	user.Email = user.Username + "@example.com"
	require.NoError(t, db.Create(&user).Error)

	t.Cleanup(func() {
		db.Where("user_id = ?", user.ID).Delete(&model.AuditLog{})
		db.Where("id = ?", user.ID).Delete(&model.User{})
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	tm := repository.NewTransactionManager(db, 5*time.Second)
	medicines := repository.NewMedicineRepository(db)
	movements := repository.NewStockMovementRepository(db)
	audits := repository.NewAuditRepository(db)

	return &pgStack{
		db:      db,
		sales:   NewSaleService(repository.NewSaleRepository(db), medicines, movements, audits, tm, nil, false),
		refills: NewRefillService(repository.NewRefillRepository(db), medicines, repository.NewDepartmentRepository(db), movements, audits, tm, nil),
		userID:  user.ID.String(),
	}
}

func (p *pgStack) seed(t *testing.T, stock int) model.Medicine {
	t.Helper()
	m := model.Medicine{
		CodeNo:            "IT-" + uuid.NewString()[:8],
		BrandName:         "Race Paracetamol",
		ManufactureDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpireDate:        time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC),
		Price:             decimal.RequireFromString("5.00"),
		Stock:             stock,
		LowStockThreshold: 2,
		Unit:              model.UnitTablet,
	}
	require.NoError(t, p.db.Create(&m).Error)
	t.Cleanup(func() {
		p.db.Exec("DELETE FROM sales WHERE id IN (SELECT sale_id FROM sale_items WHERE medicine_id = ?)", m.ID)
		p.db.Where("medicine_id = ?", m.ID).Delete(&model.StockMovement{})
		p.db.Where("medicine_id = ?", m.ID).Delete(&model.Refill{})
		p.db.Where("id = ?", m.ID).Delete(&model.Medicine{})
	})
	return m
}

func (p *pgStack) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var m model.Medicine
	require.NoError(t, p.db.First(&m, "id = ?", id).Error)
	return m.Stock
}

// race runs fns together and returns their errors in order
func race(fns ...func() error) []error {
	errs := make([]error, len(fns))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func(i int, fn func() error) {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}(i, fn)
	}
	close(start)
	wg.Wait()
	return errs
}

func TestPostgresConcurrentSalesForLastUnits(t *testing.T) {
	p := newPGStack(t)
	ctx := context.Background()

	for round := 0; round < 10; round++ {
		med := p.seed(t, 10)
		sell := func() error {
			_, err := p.sales.CreateSale(ctx, p.userID, saleOf(line(med, 6)))
			return err
		}

		var ok, short int
		for _, err := range race(sell, sell) {
			switch {
			case err == nil:
				ok++
			case apperror.IsCode(err, apperror.CodeInsufficientStock):
				short++
			default:
				t.Fatalf("round %d: unexpected error: %v", round, err)
			}
		}
		require.Equal(t, 1, ok, "round %d", round)
		require.Equal(t, 1, short, "round %d", round)
		require.Equal(t, 4, p.stockOf(t, med.ID), "round %d", round)
	}
}

func TestPostgresRefillRacingSale(t *testing.T) {
	p := newPGStack(t)
	ctx := context.Background()

	for round := 0; round < 10; round++ {
		med := p.seed(t, 5)

		errs := race(
			func() error {
				_, err := p.sales.CreateSale(ctx, p.userID, saleOf(line(med, 8)))
				return err
			},
			func() error {
				_, err := p.refills.CreateRefill(ctx, p.userID, refillOf(med, 20, "7.50"))
				return err
			},
		)
		require.NoError(t, errs[1], "round %d", round)

		sold := 0
		if errs[0] == nil {
			sold = 8
		} else {
			require.True(t, apperror.IsCode(errs[0], apperror.CodeInsufficientStock), "round %d: %v", round, errs[0])
		}
		assert.Equal(t, 5+20-sold, p.stockOf(t, med.ID), "round %d", round)

		var movements []model.StockMovement
		require.NoError(t, p.db.Where("medicine_id = ?", med.ID).Order("created_at").Find(&movements).Error)
		for _, mv := range movements {
			assert.GreaterOrEqual(t, mv.StockAfter, 0, "round %d", round)
		}
	}
}

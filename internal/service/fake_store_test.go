package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pharmacy/internal/model"
	"pharmacy/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// memStore is an in-memory stand-in for Postgres. Transactions are
// serialized and a failed transaction restores the state it started from.
// Stock may only change on a row locked earlier in the same transaction.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	medicines   map[uuid.UUID]model.Medicine
	departments map[uuid.UUID]model.Department
	sales       map[uuid.UUID]model.Sale
	items       map[uuid.UUID][]model.SaleItem
	refills     []model.Refill
	movements   []model.StockMovement
	audits      []model.AuditLog
	users       []model.User

	commits   int
	rollbacks int
	locks     []uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		medicines:   map[uuid.UUID]model.Medicine{},
		departments: map[uuid.UUID]model.Department{},
		sales:       map[uuid.UUID]model.Sale{},
		items:       map[uuid.UUID][]model.SaleItem{},
	}
}

type memSnapshot struct {
	medicines   map[uuid.UUID]model.Medicine
	departments map[uuid.UUID]model.Department
	sales       map[uuid.UUID]model.Sale
	items       map[uuid.UUID][]model.SaleItem
	refills     []model.Refill
	movements   []model.StockMovement
	audits      []model.AuditLog
	users       []model.User
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		medicines:   make(map[uuid.UUID]model.Medicine, len(s.medicines)),
		departments: make(map[uuid.UUID]model.Department, len(s.departments)),
		sales:       make(map[uuid.UUID]model.Sale, len(s.sales)),
		items:       make(map[uuid.UUID][]model.SaleItem, len(s.items)),
		refills:     append([]model.Refill(nil), s.refills...),
		movements:   append([]model.StockMovement(nil), s.movements...),
		audits:      append([]model.AuditLog(nil), s.audits...),
		users:       append([]model.User(nil), s.users...),
	}
	for k, v := range s.medicines {
		snap.medicines[k] = v
	}
	for k, v := range s.departments {
		snap.departments[k] = v
	}
	for k, v := range s.sales {
		snap.sales[k] = v
	}
	for k, v := range s.items {
		snap.items[k] = append([]model.SaleItem(nil), v...)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.medicines = snap.medicines
	s.departments = snap.departments
	s.sales = snap.sales
	s.items = snap.items
	s.refills = snap.refills
	s.movements = snap.movements
	s.audits = snap.audits
	s.users = snap.users
}

type memTxKey struct{}

// memTx holds the medicine rows locked by one transaction
type memTx struct {
	locked map[uuid.UUID]bool
}

func currentMemTx(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

func inMemTx(ctx context.Context) bool {
	return currentMemTx(ctx) != nil
}

// --- TransactionManager ---

type memTxManager struct {
	store *memStore
}

func (m *memTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) (err error) {
	if inMemTx(ctx) {
		return fn(ctx)
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	snap := m.store.snapshot()
	defer func() {
		if p := recover(); p != nil {
			m.store.restore(snap)
			panic(p)
		}
		m.store.mu.Lock()
		if err != nil {
			m.store.rollbacks++
		} else {
			m.store.commits++
		}
		m.store.mu.Unlock()
		if err != nil {
			m.store.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, memTxKey{}, &memTx{locked: map[uuid.UUID]bool{}}))
}

var (
	errNoTx      = repository.ErrLockOutsideTx
	errNotLocked = errors.New("stock changed on a row that was not locked")
)

// --- MedicineRepository ---

type memMedicineRepo struct {
	store *memStore
}

func (r *memMedicineRepo) Create(_ context.Context, m *model.Medicine) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.medicines {
		if existing.CodeNo == m.CodeNo {
			return errors.New("duplicate code_no")
		}
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	stored := *m
	stored.Department = nil
	r.store.medicines[m.ID] = stored
	return nil
}

func (r *memMedicineRepo) Update(_ context.Context, m *model.Medicine) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.medicines[m.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	current.CodeNo = m.CodeNo
	current.BrandName = m.BrandName
	current.GenericName = m.GenericName
	current.BatchNo = m.BatchNo
	current.ManufactureDate = m.ManufactureDate
	current.ExpireDate = m.ExpireDate
	current.LowStockThreshold = m.LowStockThreshold
	current.Unit = m.Unit
	current.DepartmentID = m.DepartmentID
	current.UpdatedAt = time.Now()
	r.store.medicines[m.ID] = current
	return nil
}

func (r *memMedicineRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.medicines, id)
	return nil
}

func (r *memMedicineRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Medicine, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.medicines[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if m.DepartmentID != nil {
		if d, ok := r.store.departments[*m.DepartmentID]; ok {
			m.Department = &d
		}
	}
	return &m, nil
}

func (r *memMedicineRepo) List(_ context.Context, filter repository.MedicineFilter) ([]model.Medicine, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	search := strings.ToLower(filter.Search)
	var out []model.Medicine
	for _, m := range r.store.medicines {
		if search != "" {
			generic := ""
			if m.GenericName != nil {
				generic = *m.GenericName
			}
			haystack := strings.ToLower(m.CodeNo + " " + m.BrandName + " " + generic)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		if filter.DepartmentID != nil && (m.DepartmentID == nil || *m.DepartmentID != *filter.DepartmentID) {
			continue
		}
		out = append(out, m)
	}

	desc := strings.HasPrefix(filter.Ordering, "-")
	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		switch strings.TrimPrefix(filter.Ordering, "-") {
		case "stock":
			less = out[i].Stock < out[j].Stock
		case "price":
			less = out[i].Price.LessThan(out[j].Price)
		case "expire_date":
			less = out[i].ExpireDate.Before(out[j].ExpireDate)
		default:
			return out[i].CodeNo < out[j].CodeNo
		}
		if desc {
			return !less
		}
		return less
	})

	total := int64(len(out))
	start := (filter.Page - 1) * filter.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + filter.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r *memMedicineRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	tx := currentMemTx(ctx)
	if tx == nil {
		return nil, errNoTx
	}
	m, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tx.locked[id] = true
	r.store.mu.Lock()
	r.store.locks = append(r.store.locks, id)
	r.store.mu.Unlock()
	return m, nil
}

func (r *memMedicineRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*model.Medicine, error) {
	tx := currentMemTx(ctx)
	if tx == nil {
		return nil, errNoTx
	}
	if !tx.locked[id] {
		return nil, errNotLocked
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.medicines[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	m.Stock += delta
	m.UpdatedAt = time.Now()
	r.store.medicines[id] = m
	return &m, nil
}

func (r *memMedicineRepo) UpdatePrice(_ context.Context, id uuid.UUID, price decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.medicines[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.Price = price
	r.store.medicines[id] = m
	return nil
}

func (r *memMedicineRepo) HasSaleHistory(_ context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, items := range r.store.items {
		for _, item := range items {
			if item.MedicineID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

// --- DepartmentRepository ---

type memDepartmentRepo struct {
	store *memStore
}

func (r *memDepartmentRepo) Create(_ context.Context, d *model.Department) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	r.store.departments[d.ID] = *d
	return nil
}

func (r *memDepartmentRepo) Update(_ context.Context, d *model.Department) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	d.UpdatedAt = time.Now()
	r.store.departments[d.ID] = *d
	return nil
}

func (r *memDepartmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.departments, id)
	for mid, m := range r.store.medicines {
		if m.DepartmentID != nil && *m.DepartmentID == id {
			m.DepartmentID = nil
			r.store.medicines[mid] = m
		}
	}
	return nil
}

func (r *memDepartmentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Department, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	d, ok := r.store.departments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

func (r *memDepartmentRepo) List(_ context.Context) ([]model.Department, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]model.Department, 0, len(r.store.departments))
	for _, d := range r.store.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// --- SaleRepository ---

type memSaleRepo struct {
	store *memStore
}

func (r *memSaleRepo) Create(_ context.Context, sale *model.Sale) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	sale.CreatedAt = time.Now()
	sale.UpdatedAt = sale.CreatedAt
	stored := *sale
	stored.Items = nil
	r.store.sales[sale.ID] = stored
	return nil
}

func (r *memSaleRepo) CreateItem(_ context.Context, item *model.SaleItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.sales[item.SaleID]; !ok {
		return errors.New("sale does not exist")
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = time.Now()
	stored := *item
	stored.Medicine = model.Medicine{}
	r.store.items[item.SaleID] = append(r.store.items[item.SaleID], stored)
	return nil
}

func (r *memSaleRepo) UpdateHeader(_ context.Context, sale *model.Sale) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.sales[sale.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	current.CustomerName = sale.CustomerName
	current.CustomerPhone = sale.CustomerPhone
	current.PaymentMethod = sale.PaymentMethod
	current.DiscountPercentage = sale.DiscountPercentage
	current.BasePrice = sale.BasePrice
	current.DiscountedAmount = sale.DiscountedAmount
	current.TotalAmount = sale.TotalAmount
	current.DiscountedBy = sale.DiscountedBy
	current.UpdatedAt = time.Now()
	r.store.sales[sale.ID] = current
	return nil
}

func (r *memSaleRepo) itemsWithMedicine(saleID uuid.UUID) []model.SaleItem {
	items := append([]model.SaleItem(nil), r.store.items[saleID]...)
	for i := range items {
		items[i].Medicine = r.store.medicines[items[i].MedicineID]
	}
	return items
}

func (r *memSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sale, ok := r.store.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	sale.Items = r.itemsWithMedicine(id)
	return &sale, nil
}

func (r *memSaleRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	if !inMemTx(ctx) {
		return nil, errNoTx
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sale, ok := r.store.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &sale, nil
}

func (r *memSaleRepo) ListItems(_ context.Context, saleID uuid.UUID) ([]model.SaleItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.itemsWithMedicine(saleID), nil
}

func (r *memSaleRepo) DeleteItems(_ context.Context, saleID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.items, saleID)
	return nil
}

func (r *memSaleRepo) List(_ context.Context, page, limit int) ([]model.Sale, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]model.Sale, 0, len(r.store.sales))
	for id, sale := range r.store.sales {
		sale.Items = r.itemsWithMedicine(id)
		out = append(out, sale)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SoldAt.After(out[j].SoldAt) })
	total := int64(len(out))
	start := (page - 1) * limit
	if start > len(out) {
		start = len(out)
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

// --- RefillRepository ---

type memRefillRepo struct {
	store *memStore
}

func (r *memRefillRepo) Create(_ context.Context, refill *model.Refill) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if refill.ID == uuid.Nil {
		refill.ID = uuid.New()
	}
	refill.CreatedAt = time.Now()
	stored := *refill
	stored.Medicine = model.Medicine{}
	r.store.refills = append(r.store.refills, stored)
	return nil
}

func (r *memRefillRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Refill, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, refill := range r.store.refills {
		if refill.ID == id {
			refill.Medicine = r.store.medicines[refill.MedicineID]
			return &refill, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRefillRepo) List(_ context.Context, medicineID *uuid.UUID, page, limit int) ([]model.Refill, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.Refill
	for i := len(r.store.refills) - 1; i >= 0; i-- {
		refill := r.store.refills[i]
		if medicineID != nil && refill.MedicineID != *medicineID {
			continue
		}
		refill.Medicine = r.store.medicines[refill.MedicineID]
		out = append(out, refill)
	}
	total := int64(len(out))
	start := (page - 1) * limit
	if start > len(out) {
		start = len(out)
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

// --- StockMovementRepository ---

type memMovementRepo struct {
	store *memStore
}

func (r *memMovementRepo) Create(_ context.Context, m *model.StockMovement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	r.store.movements = append(r.store.movements, *m)
	return nil
}

func (r *memMovementRepo) ListByMedicine(_ context.Context, medicineID uuid.UUID, limit int) ([]model.StockMovement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.StockMovement
	for i := len(r.store.movements) - 1; i >= 0 && len(out) < limit; i-- {
		if r.store.movements[i].MedicineID == medicineID {
			out = append(out, r.store.movements[i])
		}
	}
	return out, nil
}

// --- AuditRepository ---

type memAuditRepo struct {
	store *memStore
}

func (r *memAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	r.store.audits = append(r.store.audits, *entry)
	return nil
}

func (r *memAuditRepo) List(_ context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.AuditLog
	for i := len(r.store.audits) - 1; i >= 0; i-- {
		entry := r.store.audits[i]
		if entry.UserID != nil {
			for j := range r.store.users {
				if r.store.users[j].ID == *entry.UserID {
					u := r.store.users[j]
					entry.User = &u
				}
			}
		}
		out = append(out, entry)
	}
	total := int64(len(out))
	start := (page - 1) * limit
	if start > len(out) {
		start = len(out)
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

// --- UserRepository ---

type memUserRepo struct {
	store *memStore
}

func (r *memUserRepo) Create(_ context.Context, u *model.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.store.users = append(r.store.users, *u)
	return nil
}

func (r *memUserRepo) find(match func(model.User) bool) (*model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID.String() == id })
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username })
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email })
}

func (r *memUserRepo) Count(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.users)), nil
}

func (r *memUserRepo) List(_ context.Context, page, limit int) ([]model.User, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := append([]model.User(nil), r.store.users...)
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	total := int64(len(out))
	start := (page - 1) * limit
	if start > len(out) {
		start = len(out)
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

// --- Publisher ---

type recordingPublisher struct {
	mu       sync.Mutex
	messages [][]byte
}

func (p *recordingPublisher) Publish(message []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
}

func (p *recordingPublisher) events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		out = append(out, string(m))
	}
	return out
}

// --- fixture ---

type fixture struct {
	store     *memStore
	tx        *memTxManager
	medicines *memMedicineRepo
	depts     *memDepartmentRepo
	sales     *memSaleRepo
	refills   *memRefillRepo
	movements *memMovementRepo
	audits    *memAuditRepo
	users     *memUserRepo
	publisher *recordingPublisher
}

func newFixture() *fixture {
	store := newMemStore()
	return &fixture{
		store:     store,
		tx:        &memTxManager{store: store},
		medicines: &memMedicineRepo{store: store},
		depts:     &memDepartmentRepo{store: store},
		sales:     &memSaleRepo{store: store},
		refills:   &memRefillRepo{store: store},
		movements: &memMovementRepo{store: store},
		audits:    &memAuditRepo{store: store},
		users:     &memUserRepo{store: store},
		publisher: &recordingPublisher{},
	}
}

func (f *fixture) saleService() *saleService {
	return NewSaleService(f.sales, f.medicines, f.movements, f.audits, f.tx, f.publisher, true).(*saleService)
}

func (f *fixture) refillService() *refillService {
	return NewRefillService(f.refills, f.medicines, f.depts, f.movements, f.audits, f.tx, f.publisher).(*refillService)
}

func (f *fixture) medicineService() *medicineService {
	return NewMedicineService(f.medicines, f.depts, f.movements, f.audits, f.tx).(*medicineService)
}

// seedMedicine stores a medicine with the given stock and price ("5.00")
func (f *fixture) seedMedicine(name string, stock int, price string) model.Medicine {
	m := model.Medicine{
		ID:                uuid.New(),
		CodeNo:            strings.ToUpper(name),
		BrandName:         name,
		ManufactureDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpireDate:        time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC),
		Price:             decimal.RequireFromString(price),
		Stock:             stock,
		LowStockThreshold: 2,
		Unit:              model.UnitTablet,
	}
	f.store.mu.Lock()
	f.store.medicines[m.ID] = m
	f.store.mu.Unlock()
	return m
}

func (f *fixture) stockOf(id uuid.UUID) int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.medicines[id].Stock
}

// lockedRows lists medicine row locks in the order they were taken
func (f *fixture) lockedRows() []uuid.UUID {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return append([]uuid.UUID(nil), f.store.locks...)
}

func (f *fixture) priceOf(id uuid.UUID) decimal.Decimal {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.medicines[id].Price
}

func (f *fixture) saleCount() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return len(f.store.sales)
}

func (f *fixture) itemCount() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	n := 0
	for _, items := range f.store.items {
		n += len(items)
	}
	return n
}

func (f *fixture) movementsOf(id uuid.UUID) []model.StockMovement {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []model.StockMovement
	for _, m := range f.store.movements {
		if m.MedicineID == id {
			out = append(out, m)
		}
	}
	return out
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}

package tests

import (
	"context"
	"errors"
	"sort"
	"sync"

	"scalepos/internal/dto"
	"scalepos/internal/model"
	"scalepos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ── Product stub ──────────────────────────────────────────────────────────────

// stubProductRepo is an in-memory ProductRepository. Guarded decrements
// behave like the SQL conditional UPDATE: they fail when stock is short,
// and the mutex serializes them the way the row lock does, so commit
// races can be driven from concurrent goroutines.
type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductRepo) FindByBarcode(_ context.Context, barcode string) (*model.Product, error) {
	for _, p := range r.products {
		if p.Barcode == barcode {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Active = false
	return nil
}

func (r *stubProductRepo) DecrementStockGuarded(_ *gorm.DB, id uuid.UUID, qty decimal.Decimal) (decimal.Decimal, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return decimal.Zero, false, gorm.ErrRecordNotFound
	}
	if p.StockQuantity.LessThan(qty) {
		return decimal.Zero, false, nil
	}
	p.StockQuantity = p.StockQuantity.Sub(qty)
	return p.StockQuantity, true, nil
}

func (r *stubProductRepo) IncrementStockTx(_ *gorm.DB, id uuid.UUID, qty decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return decimal.Zero, gorm.ErrRecordNotFound
	}
	p.StockQuantity = p.StockQuantity.Add(qty)
	return p.StockQuantity, nil
}

func (r *stubProductRepo) SetStockTx(_ *gorm.DB, id uuid.UUID, qty decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || !p.Active {
		return gorm.ErrRecordNotFound
	}
	p.StockQuantity = qty
	return nil
}

func (r *stubProductRepo) ListBelowMinStock(_ context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.Active && p.StockQuantity.LessThanOrEqual(p.MinStock) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// ── Draft stub ────────────────────────────────────────────────────────────────

type stubDraftRepo struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]*model.DraftOrder
}

func newStubDraftRepo() *stubDraftRepo {
	return &stubDraftRepo{drafts: make(map[uuid.UUID]*model.DraftOrder)}
}

func (r *stubDraftRepo) Save(_ context.Context, d *model.DraftOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	cp.Items = append([]model.LineItem(nil), d.Items...)
	r.drafts[d.ID] = &cp
	return nil
}

func (r *stubDraftRepo) Find(_ context.Context, id uuid.UUID) (*model.DraftOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[id]
	if !ok {
		return nil, repository.ErrDraftNotFound
	}
	cp := *d
	cp.Items = append([]model.LineItem(nil), d.Items...)
	return &cp, nil
}

func (r *stubDraftRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, id)
	return nil
}

func (r *stubDraftRepo) ListOpen(_ context.Context) ([]model.DraftOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.DraftOrder, 0, len(r.drafts))
	for _, d := range r.drafts {
		out = append(out, *d)
	}
	return out, nil
}

func (r *stubDraftRepo) ListBySession(_ context.Context, sessionID string) ([]model.DraftOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.DraftOrder
	for _, d := range r.drafts {
		if d.SessionID == sessionID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var _ repository.DraftRepository = (*stubDraftRepo)(nil)

// ── Customer stub ─────────────────────────────────────────────────────────────

type stubCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
	movements []model.CreditMovement
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{customers: make(map[uuid.UUID]*model.Customer)}
}

func (r *stubCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.customers[c.ID] = c
	return nil
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCustomerRepo) List(_ context.Context, _ string) ([]model.Customer, error) {
	out := make([]model.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubCustomerRepo) Update(_ context.Context, c *model.Customer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *stubCustomerRepo) UpdateCreditsTx(_ *gorm.DB, id uuid.UUID, adminCredits, orderCredits decimal.Decimal) error {
	c, ok := r.customers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.AdminCredits = adminCredits
	c.OrderCredits = orderCredits
	return nil
}

func (r *stubCustomerRepo) CreateMovementTx(_ *gorm.DB, m *model.CreditMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubCustomerRepo) ListMovements(_ context.Context, customerID uuid.UUID) ([]model.CreditMovement, error) {
	var out []model.CreditMovement
	for _, m := range r.movements {
		if m.CustomerID == customerID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubCustomerRepo) DB() *gorm.DB { return nil }

var _ repository.CustomerRepository = (*stubCustomerRepo)(nil)

// ── Order stub ────────────────────────────────────────────────────────────────

type stubOrderRepo struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*model.Order
	orderSeq int
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *stubOrderRepo) Create(_ context.Context, _ *gorm.DB, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
		o.Items[i].OrderID = o.ID
	}
	r.orders[o.ID] = o
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (r *stubOrderRepo) NextOrderNumber(_ context.Context, _ *gorm.DB) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orderSeq++
	return r.orderSeq, nil
}

func (r *stubOrderRepo) List(_ context.Context, _ dto.OrderFilter) ([]model.Order, int64, error) {
	out := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Status = status
	return nil
}

func (r *stubOrderRepo) AddRefundedQuantityTx(_ *gorm.DB, itemID uuid.UUID, qty decimal.Decimal) error {
	for _, o := range r.orders {
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				o.Items[i].RefundedQuantity = o.Items[i].RefundedQuantity.Add(qty)
				return nil
			}
		}
	}
	return errors.New("order item not found")
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

var _ repository.OrderRepository = (*stubOrderRepo)(nil)

// ── Refund stub ───────────────────────────────────────────────────────────────

type stubRefundRepo struct {
	refunds   map[uuid.UUID]*model.Refund
	refundSeq int
}

func newStubRefundRepo() *stubRefundRepo {
	return &stubRefundRepo{refunds: make(map[uuid.UUID]*model.Refund)}
}

func (r *stubRefundRepo) Create(_ context.Context, _ *gorm.DB, rf *model.Refund) error {
	if rf.ID == uuid.Nil {
		rf.ID = uuid.New()
	}
	r.refunds[rf.ID] = rf
	return nil
}

func (r *stubRefundRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Refund, error) {
	rf, ok := r.refunds[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rf, nil
}

func (r *stubRefundRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]model.Refund, error) {
	var out []model.Refund
	for _, rf := range r.refunds {
		if rf.OrderID == orderID {
			out = append(out, *rf)
		}
	}
	return out, nil
}

func (r *stubRefundRepo) NextRefundNumber(_ context.Context, _ *gorm.DB) (int, error) {
	r.refundSeq++
	return r.refundSeq, nil
}

var _ repository.RefundRepository = (*stubRefundRepo)(nil)

// ── Stock movement stub ───────────────────────────────────────────────────────

type stubMovementRepo struct {
	mu        sync.Mutex
	movements []model.StockMovement

	// failCreate, when set, is returned by the next CreateTx calls —
	// simulates the ledger insert failing mid-transaction.
	failCreate error
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) ListByProduct(_ context.Context, productID uuid.UUID, _ int) ([]model.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// ── Seed helpers ──────────────────────────────────────────────────────────────

func seedProduct(repo *stubProductRepo, name, barcode string, stock, price string) *model.Product {
	p := &model.Product{
		ID:            uuid.New(),
		Barcode:       barcode,
		Name:          name,
		UnitType:      model.UnitTypeWeight,
		StockQuantity: dec(stock),
		DefaultPrice:  dec(price),
		Active:        true,
	}
	repo.products[p.ID] = p
	return p
}

func seedCustomer(repo *stubCustomerRepo, name, adminCredits, orderCredits string) *model.Customer {
	c := &model.Customer{
		ID:           uuid.New(),
		Name:         name,
		AdminCredits: dec(adminCredits),
		OrderCredits: dec(orderCredits),
	}
	repo.customers[c.ID] = c
	return c
}

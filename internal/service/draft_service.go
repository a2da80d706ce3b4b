package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"scalepos/internal/dto"
	"scalepos/internal/model"
	"scalepos/internal/policy"
	"scalepos/internal/pricing"
	"scalepos/internal/repository"
)

// DraftService owns the draft order ("tab") lifecycle. A draft is mutable only
// through its owning session; every mutation either fully applies or leaves
// the draft unchanged and reports the specific reason.
type DraftService interface {
	Create(ctx context.Context, sessionID string, cashierID uuid.UUID) (*dto.DraftResponse, error)
	Get(ctx context.Context, sessionID string, draftID uuid.UUID) (*dto.DraftResponse, error)
	ListBySession(ctx context.Context, sessionID string) (*dto.DraftListResponse, error)

	AddLineItem(ctx context.Context, sessionID string, draftID uuid.UUID, perms policy.PermissionSet, req dto.LineItemRequest) (*dto.DraftResponse, error)
	EditLineItem(ctx context.Context, sessionID string, draftID, itemID uuid.UUID, perms policy.PermissionSet, req dto.LineItemRequest) (*dto.DraftResponse, error)
	RemoveLineItem(ctx context.Context, sessionID string, draftID, itemID uuid.UUID) (*dto.DraftResponse, error)

	SetOrderDiscount(ctx context.Context, sessionID string, draftID uuid.UUID, perms policy.PermissionSet, req dto.OrderDiscountRequest) (*dto.DraftResponse, error)
	SetCustomer(ctx context.Context, sessionID string, draftID uuid.UUID, customerID uuid.UUID) (*dto.DraftResponse, error)
	ClearCustomer(ctx context.Context, sessionID string, draftID uuid.UUID) (*dto.DraftResponse, error)

	// Discard removes an EMPTY draft. A non-empty draft must be committed or
	// explicitly emptied first.
	Discard(ctx context.Context, sessionID string, draftID uuid.UUID) error
}

type draftService struct {
	draftRepo    repository.DraftRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	stock        StockService
}

func NewDraftService(
	draftRepo repository.DraftRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	stock StockService,
) DraftService {
	return &draftService{
		draftRepo:    draftRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		stock:        stock,
	}
}

func (s *draftService) Create(ctx context.Context, sessionID string, cashierID uuid.UUID) (*dto.DraftResponse, error) {
	d := &model.DraftOrder{
		ID:        uuid.New(),
		SessionID: sessionID,
		CashierID: cashierID,
		Items:     []model.LineItem{},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.draftRepo.Save(ctx, d); err != nil {
		return nil, err
	}
	return draftToResponse(d), nil
}

func (s *draftService) Get(ctx context.Context, sessionID string, draftID uuid.UUID) (*dto.DraftResponse, error) {
	d, err := s.owned(ctx, sessionID, draftID)
	if err != nil {
		return nil, err
	}
	return draftToResponse(d), nil
}

func (s *draftService) ListBySession(ctx context.Context, sessionID string) (*dto.DraftListResponse, error) {
	drafts, err := s.draftRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resp := &dto.DraftListResponse{Data: make([]dto.DraftResponse, 0, len(drafts))}
	for i := range drafts {
		resp.Data = append(resp.Data, *draftToResponse(&drafts[i]))
	}
	return resp, nil
}

// ── Line items ────────────────────────────────────────────────────────────────

func (s *draftService) AddLineItem(ctx context.Context, sessionID string, draftID uuid.UUID, perms policy.PermissionSet, req dto.LineItemRequest) (*dto.DraftResponse, error) {
	return s.putLineItem(ctx, sessionID, draftID, uuid.Nil, perms, req)
}

func (s *draftService) EditLineItem(ctx context.Context, sessionID string, draftID, itemID uuid.UUID, perms policy.PermissionSet, req dto.LineItemRequest) (*dto.DraftResponse, error) {
	return s.putLineItem(ctx, sessionID, draftID, itemID, perms, req)
}

// putLineItem computes, validates and stores one line item. replaceID==Nil
// means a fresh add. Order of checks: calculator diagnostics, permission
// gates, then stock — the draft is written only when everything passed.
func (s *draftService) putLineItem(ctx context.Context, sessionID string, draftID, replaceID uuid.UUID, perms policy.PermissionSet, req dto.LineItemRequest) (*dto.DraftResponse, error) {
	d, err := s.owned(ctx, sessionID, draftID)
	if err != nil {
		return nil, err
	}

	replaceIdx := -1
	if replaceID != uuid.Nil {
		replaceIdx = d.FindItem(replaceID)
		if replaceIdx < 0 {
			return nil, fmt.Errorf("line item %s not found in draft", replaceID)
		}
	}

	in := pricing.Input{
		QuantityType:    model.UnitTypeWeight,
		ItemKg:          req.ItemKg,
		ItemG:           req.ItemG,
		BoxKg:           req.BoxKg,
		BoxG:            req.BoxG,
		BoxCount:        req.BoxCount,
		PricePerUnit:    req.PricePerUnit,
		DiscountPercent: req.DiscountPercent,
	}
	name := req.Name

	var product *model.Product
	if req.ProductID != nil {
		pid, err := uuid.Parse(*req.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product_id invalid: %w", err)
		}
		product, err = s.productRepo.FindByID(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("product %s not found", pid)
		}
		if !product.Active {
			return nil, fmt.Errorf("product %s is inactive and cannot be sold", product.Name)
		}
		in.ProductID = &product.ID
		in.QuantityType = product.UnitType
		name = product.Name

		// Default price applies unless the cashier keyed an override
		if req.PricePerUnit.IsZero() {
			in.PricePerUnit = product.DefaultPrice
		} else if err := policy.AuthorizePriceEdit(perms, req.PricePerUnit, product.DefaultPrice); err != nil {
			return nil, err
		}
	}

	if err := policy.AuthorizeDiscount(perms, req.DiscountPercent); err != nil {
		return nil, err
	}

	item := pricing.Compute(in)
	item.ProductName = name
	if item.ExceedsBoxWeight {
		return nil, ErrBoxExceedsItem
	}
	if !item.IsValid {
		return nil, ErrInvalidWeight
	}

	if product != nil {
		if err := s.checkStock(ctx, d, product.ID, replaceIdx, item.ReservedQuantity()); err != nil {
			return nil, err
		}
	}

	if replaceIdx >= 0 {
		item.ID = replaceID
		d.Items[replaceIdx] = item
	} else {
		item.ID = uuid.New()
		d.Items = append(d.Items, item)
	}

	if err := s.draftRepo.Save(ctx, d); err != nil {
		return nil, err
	}
	return draftToResponse(d), nil
}

// checkStock verifies remaining ≥ requested, counting this draft's other
// reservations for the same product but excluding the item being replaced —
// a no-op or reduction edit is never blocked.
func (s *draftService) checkStock(ctx context.Context, d *model.DraftOrder, productID uuid.UUID, replaceIdx int, requested decimal.Decimal) error {
	rem, err := s.stock.Remaining(ctx, productID, d.ID)
	if err != nil {
		return err
	}
	ownReserved := decimal.Zero
	for i := range d.Items {
		if i == replaceIdx {
			continue
		}
		if d.Items[i].ProductID != nil && *d.Items[i].ProductID == productID {
			ownReserved = ownReserved.Add(d.Items[i].ReservedQuantity())
		}
	}
	if rem.Remaining.Sub(ownReserved).LessThan(requested) {
		return ErrInsufficientStock
	}
	return nil
}

func (s *draftService) RemoveLineItem(ctx context.Context, sessionID string, draftID, itemID uuid.UUID) (*dto.DraftResponse, error) {
	d, err := s.owned(ctx, sessionID, draftID)
	if err != nil {
		return nil, err
	}
	idx := d.FindItem(itemID)
	if idx < 0 {
		return nil, fmt.Errorf("line item %s not found in draft", itemID)
	}
	d.Items = append(d.Items[:idx], d.Items[idx+1:]...)
	if err := s.draftRepo.Save(ctx, d); err != nil {
		return nil, err
	}
	return draftToResponse(d), nil
}

// ── Discount / customer ──────────────────────────────────────────────────────

func (s *draftService) SetOrderDiscount(ctx context.Context, sessionID string, draftID uuid.UUID, perms policy.PermissionSet, req dto.OrderDiscountRequest) (*dto.DraftResponse, error) {
	d, err := s.owned(ctx, sessionID, draftID)
	if err != nil {
		return nil, err
	}

	percent := policy.NormalizeDiscount(req.Percent, req.Amount, d.Subtotal())
	if err := policy.AuthorizeDiscount(perms, percent); err != nil {
		// Denied: the previous discount stands
		return nil, err
	}

	d.OrderDiscountPercent = percent
	if err := s.draftRepo.Save(ctx, d); err != nil {
		return nil, err
	}
	return draftToResponse(d), nil
}

func (s *draftService) SetCustomer(ctx context.Context, sessionID string, draftID uuid.UUID, customerID uuid.UUID) (*dto.DraftResponse, error) {
	d, err := s.owned(ctx, sessionID, draftID)
	if err != nil {
		return nil, err
	}
	c, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("customer %s not found", customerID)
	}
	d.CustomerID = &c.ID
	if err := s.draftRepo.Save(ctx, d); err != nil {
		return nil, err
	}
	return draftToResponse(d), nil
}

func (s *draftService) ClearCustomer(ctx context.Context, sessionID string, draftID uuid.UUID) (*dto.DraftResponse, error) {
	d, err := s.owned(ctx, sessionID, draftID)
	if err != nil {
		return nil, err
	}
	d.CustomerID = nil
	if err := s.draftRepo.Save(ctx, d); err != nil {
		return nil, err
	}
	return draftToResponse(d), nil
}

func (s *draftService) Discard(ctx context.Context, sessionID string, draftID uuid.UUID) error {
	d, err := s.owned(ctx, sessionID, draftID)
	if err != nil {
		return err
	}
	if len(d.Items) > 0 {
		return ErrDraftNotEmpty
	}
	return s.draftRepo.Delete(ctx, d.ID)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *draftService) owned(ctx context.Context, sessionID string, draftID uuid.UUID) (*model.DraftOrder, error) {
	d, err := s.draftRepo.Find(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if d.SessionID != sessionID {
		return nil, ErrNotDraftOwner
	}
	return d, nil
}

func draftToResponse(d *model.DraftOrder) *dto.DraftResponse {
	items := make([]dto.LineItemResponse, 0, len(d.Items))
	for i := range d.Items {
		li := &d.Items[i]
		var pid *string
		if li.ProductID != nil {
			s := li.ProductID.String()
			pid = &s
		}
		items = append(items, dto.LineItemResponse{
			ID:              li.ID.String(),
			ProductID:       pid,
			ProductName:     li.ProductName,
			QuantityType:    li.QuantityType,
			ItemWeightTotal: li.ItemWeightTotal,
			TotalBoxWeight:  li.TotalBoxWeight,
			NetWeight:       li.NetWeight,
			PricePerUnit:    li.PricePerUnit,
			DiscountPercent: li.DiscountPercent,
			BaseTotal:       li.BaseTotal,
			DiscountAmount:  li.DiscountAmount,
			FinalTotal:      li.FinalTotal,
		})
	}
	var cid *string
	if d.CustomerID != nil {
		s := d.CustomerID.String()
		cid = &s
	}
	return &dto.DraftResponse{
		ID:                   d.ID.String(),
		SessionID:            d.SessionID,
		Items:                items,
		OrderDiscountPercent: d.OrderDiscountPercent,
		CustomerID:           cid,
		Subtotal:             d.Subtotal(),
		DiscountAmount:       d.DiscountAmount(),
		Total:                d.Total(),
		CreatedAt:            d.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

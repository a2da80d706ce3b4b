package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"scalepos/internal/dto"
	"scalepos/internal/model"
	"scalepos/internal/policy"
	"scalepos/internal/repository"
)

// RefundService computes refund amounts and the corresponding restock
// quantities against a committed order. Three modes: full, partial by amount
// (pro-rata across line items), partial by explicit item quantities.
type RefundService interface {
	Refund(ctx context.Context, perms policy.PermissionSet, cashierID, orderID uuid.UUID, req dto.RefundRequest) (*dto.RefundResponse, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]dto.RefundResponse, error)
}

type refundService struct {
	orderRepo    repository.OrderRepository
	refundRepo   repository.RefundRepository
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
}

func NewRefundService(
	orderRepo repository.OrderRepository,
	refundRepo repository.RefundRepository,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
) RefundService {
	return &refundService{
		orderRepo:    orderRepo,
		refundRepo:   refundRepo,
		productRepo:  productRepo,
		movementRepo: movementRepo,
	}
}

// refundLine pairs an order item with the quantity and amount coming back.
type refundLine struct {
	item   *model.OrderItem
	qty    decimal.Decimal
	amount decimal.Decimal
}

func (s *refundService) Refund(ctx context.Context, perms policy.PermissionSet, cashierID, orderID uuid.UUID, req dto.RefundRequest) (*dto.RefundResponse, error) {
	if err := policy.AuthorizeRefund(perms); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	if order.Status == "voided" || order.Status == "refunded" {
		return nil, ErrOrderNotRefundable
	}

	var lines []refundLine
	var refundAmount decimal.Decimal

	switch req.Mode {
	case "full":
		lines, refundAmount, err = s.fullRefund(order)
	case "partial_amount":
		lines, refundAmount, err = s.proRataRefund(order, req.Amount)
	case "partial_items":
		lines, refundAmount, err = s.itemizedRefund(order, req.Items)
	default:
		err = fmt.Errorf("unknown refund mode %q", req.Mode)
	}
	if err != nil {
		return nil, err
	}

	var refund model.Refund
	txErr := runTx(ctx, s.orderRepo.DB(), func(tx *gorm.DB) error {
		refundNumber, err := s.refundRepo.NextRefundNumber(ctx, tx)
		if err != nil {
			return err
		}

		refund = model.Refund{
			RefundNumber: refundNumber,
			OrderID:      order.ID,
			CashierID:    cashierID,
			Mode:         req.Mode,
			Amount:       refundAmount,
			Reason:       req.Reason,
		}
		for _, l := range lines {
			refund.Items = append(refund.Items, model.RefundItem{
				OrderItemID:      l.item.ID,
				ProductID:        l.item.ProductID,
				QuantityReturned: l.qty,
				Amount:           l.amount,
			})
		}
		if err := s.refundRepo.Create(ctx, tx, &refund); err != nil {
			return err
		}

		// Restock every affected product and record the movement
		for _, l := range lines {
			if err := s.orderRepo.AddRefundedQuantityTx(tx, l.item.ID, l.qty); err != nil {
				return err
			}
			if l.item.ProductID == nil {
				continue
			}
			newQty, err := s.productRepo.IncrementStockTx(tx, *l.item.ProductID, l.qty)
			if err != nil {
				return err
			}
			ref := refund.ID
			if err := s.movementRepo.CreateTx(tx, &model.StockMovement{
				ProductID:   *l.item.ProductID,
				Kind:        "refund_restock",
				Quantity:    l.qty,
				StockBefore: newQty.Sub(l.qty),
				StockAfter:  newQty,
				Reason:      fmt.Sprintf("Refund #%d — %s", refundNumber, req.Reason),
				ReferenceID: &ref,
			}); err != nil {
				return err
			}
		}

		status := "partially_refunded"
		if req.Mode == "full" {
			status = "refunded"
		}
		return s.orderRepo.UpdateStatusTx(tx, order.ID, status)
	})
	if txErr != nil {
		return nil, txErr
	}

	return refundToResponse(&refund), nil
}

// fullRefund schedules every line item's full quantity for restock.
func (s *refundService) fullRefund(order *model.Order) ([]refundLine, decimal.Decimal, error) {
	lines := make([]refundLine, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		lines = append(lines, refundLine{item: item, qty: item.NetQuantity, amount: item.FinalTotal})
	}
	return lines, order.Total, nil
}

// proRataRefund distributes the requested amount across line items by the
// ratio requested/total, capping each returned quantity at the original.
func (s *refundService) proRataRefund(order *model.Order, amount decimal.Decimal) ([]refundLine, decimal.Decimal, error) {
	if !amount.IsPositive() {
		return nil, decimal.Zero, fmt.Errorf("refund amount must be positive")
	}
	if amount.GreaterThan(order.Total) {
		return nil, decimal.Zero, fmt.Errorf("refund amount %s exceeds order total %s", amount, order.Total)
	}
	ratio := amount.Div(order.Total)

	lines := make([]refundLine, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		qty := item.NetQuantity.Mul(ratio).Round(3)
		if qty.GreaterThan(item.NetQuantity) {
			qty = item.NetQuantity
		}
		lineAmount := item.FinalTotal.Mul(ratio).Round(2)
		lines = append(lines, refundLine{item: item, qty: qty, amount: lineAmount})
	}
	return lines, amount.Round(2), nil
}

// itemizedRefund takes explicit returned quantities and prices them at the
// line's per-unit rate.
func (s *refundService) itemizedRefund(order *model.Order, items []dto.RefundItemRequest) ([]refundLine, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Zero, fmt.Errorf("partial_items refund requires at least one item")
	}

	byID := make(map[uuid.UUID]*model.OrderItem, len(order.Items))
	for i := range order.Items {
		byID[order.Items[i].ID] = &order.Items[i]
	}

	lines := make([]refundLine, 0, len(items))
	total := decimal.Zero
	for _, req := range items {
		itemID, err := uuid.Parse(req.OrderItemID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("order_item_id invalid: %w", err)
		}
		item, ok := byID[itemID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("order item %s not part of order", itemID)
		}
		if !req.QuantityReturned.IsPositive() {
			return nil, decimal.Zero, fmt.Errorf("quantity returned must be positive")
		}
		refundable := item.NetQuantity.Sub(item.RefundedQuantity)
		if req.QuantityReturned.GreaterThan(refundable) {
			return nil, decimal.Zero, fmt.Errorf("quantity %s exceeds refundable %s for %s",
				req.QuantityReturned, refundable, item.ProductName)
		}
		amount := req.QuantityReturned.Mul(item.PricePerUnit).Round(2)
		lines = append(lines, refundLine{item: item, qty: req.QuantityReturned.Round(3), amount: amount})
		total = total.Add(amount)
	}
	return lines, total.Round(2), nil
}

func (s *refundService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]dto.RefundResponse, error) {
	refunds, err := s.refundRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RefundResponse, 0, len(refunds))
	for i := range refunds {
		out = append(out, *refundToResponse(&refunds[i]))
	}
	return out, nil
}

func refundToResponse(r *model.Refund) *dto.RefundResponse {
	items := make([]dto.RefundItemResponse, 0, len(r.Items))
	for _, item := range r.Items {
		var pid *string
		if item.ProductID != nil {
			s := item.ProductID.String()
			pid = &s
		}
		items = append(items, dto.RefundItemResponse{
			OrderItemID:      item.OrderItemID.String(),
			ProductID:        pid,
			QuantityReturned: item.QuantityReturned,
			Amount:           item.Amount,
		})
	}
	return &dto.RefundResponse{
		ID:           r.ID.String(),
		RefundNumber: r.RefundNumber,
		OrderID:      r.OrderID.String(),
		Mode:         r.Mode,
		Amount:       r.Amount,
		Reason:       r.Reason,
		Items:        items,
		CreatedAt:    r.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

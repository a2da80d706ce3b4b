package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"scalepos/internal/dto"
	"scalepos/internal/model"
	"scalepos/internal/policy"
	"scalepos/internal/repository"
	"scalepos/internal/settlement"
	"scalepos/internal/worker"
)

// OrderService commits drafts into immutable orders and manages them after.
type OrderService interface {
	// Commit is all-or-nothing across {stock decrement, settlement, customer
	// balance update, order persistence}: any failure rolls everything back
	// and leaves the draft open. ErrStockConflict is the one error expected
	// under concurrent load — the cashier re-checks availability and retries.
	Commit(ctx context.Context, sessionID string, draftID, cashierID uuid.UUID, req dto.CommitRequest) (*dto.OrderResponse, error)

	// Void reverses a committed order outright: restock, inverse credit
	// entries, status "voided". Gated by canVoidOrders.
	Void(ctx context.Context, perms policy.PermissionSet, orderID uuid.UUID, reason string) error

	Get(ctx context.Context, orderID uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	draftRepo    repository.DraftRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	movementRepo repository.StockMovementRepository
	dispatcher   *worker.Dispatcher
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	draftRepo repository.DraftRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	movementRepo repository.StockMovementRepository,
	dispatcher *worker.Dispatcher,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		draftRepo:    draftRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		movementRepo: movementRepo,
		dispatcher:   dispatcher,
	}
}

// ── Commit ────────────────────────────────────────────────────────────────────
// 1. Load draft (owner check) and linked customer
// 2. Settle — pure computation; rejects bad instruments before any mutation
// 3. TX: guarded stock decrements, movements, order row, customer balances
// 4. On success: clear the draft, enqueue low-stock alert check

func (s *orderService) Commit(ctx context.Context, sessionID string, draftID, cashierID uuid.UUID, req dto.CommitRequest) (*dto.OrderResponse, error) {
	d, err := s.draftRepo.Find(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if d.SessionID != sessionID {
		return nil, ErrNotDraftOwner
	}
	if len(d.Items) == 0 {
		return nil, ErrDraftEmpty
	}

	var customer *model.Customer
	if d.CustomerID != nil {
		customer, err = s.customerRepo.FindByID(ctx, *d.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("customer %s not found", *d.CustomerID)
		}
	}

	instruments := make([]settlement.Instrument, 0, len(req.Payments))
	for _, p := range req.Payments {
		instruments = append(instruments, settlement.Instrument{
			Method:        p.Method,
			Amount:        p.Amount,
			CardReference: p.CardReference,
			ChequeNumber:  p.ChequeNumber,
			ChequeDate:    p.ChequeDate,
			ChequePayer:   p.ChequePayer,
			ChequeBank:    p.ChequeBank,
		})
	}

	orderTotal := d.Total().Round(2)
	result, err := settlement.Settle(orderTotal, customer, instruments)
	if err != nil {
		return nil, err
	}

	var order model.Order
	txErr := runTx(ctx, s.orderRepo.DB(), func(tx *gorm.DB) error {
		orderNumber, err := s.orderRepo.NextOrderNumber(ctx, tx)
		if err != nil {
			return err
		}

		order = model.Order{
			OrderNumber:          orderNumber,
			CashierID:            cashierID,
			CustomerID:           d.CustomerID,
			Subtotal:             d.Subtotal().Round(2),
			OrderDiscountPercent: d.OrderDiscountPercent,
			DiscountAmount:       d.DiscountAmount(),
			Total:                orderTotal,
			TotalDue:             result.TotalDue,
			PaidAmount:           result.ActualPaid,
			DeferredAmount:       result.DeferredAmount,
			Change:               result.Change,
			PaidToAdmin:          result.PaidToAdmin,
			PaidToCurrentOrder:   result.PaidToCurrentOrder,
			PaidToOldOrders:      result.PaidToOldOrders,
			Status:               "completed",
		}
		for i := range d.Items {
			li := &d.Items[i]
			order.Items = append(order.Items, model.OrderItem{
				ProductID:       li.ProductID,
				ProductName:     li.ProductName,
				QuantityType:    li.QuantityType,
				NetQuantity:     li.NetWeight,
				PricePerUnit:    li.PricePerUnit,
				DiscountPercent: li.DiscountPercent,
				FinalTotal:      li.FinalTotal,
			})
		}
		for _, p := range req.Payments {
			order.Payments = append(order.Payments, model.OrderPayment{
				Method:        p.Method,
				Amount:        p.Amount,
				CardReference: p.CardReference,
				ChequeNumber:  p.ChequeNumber,
				ChequeDate:    p.ChequeDate,
				ChequePayer:   p.ChequePayer,
				ChequeBank:    p.ChequeBank,
			})
		}

		if err := s.orderRepo.Create(ctx, tx, &order); err != nil {
			return err
		}

		// Real decrement per product — the advisory reservation becomes a
		// committed write here, re-validated atomically. Losing the race
		// aborts the whole transaction with StockConflict.
		for i := range d.Items {
			li := &d.Items[i]
			if li.ProductID == nil {
				continue
			}
			qty := li.ReservedQuantity()

			newQty, ok, err := s.productRepo.DecrementStockGuarded(tx, *li.ProductID, qty)
			if err != nil {
				return err
			}
			if !ok {
				return ErrStockConflict
			}

			// Before/after are derived from the decrement's returned value,
			// not a separate read, so a commit racing past us between a read
			// and the update cannot skew the ledger.
			ref := order.ID
			if err := s.movementRepo.CreateTx(tx, &model.StockMovement{
				ProductID:   *li.ProductID,
				Kind:        "sale",
				Quantity:    qty.Neg(),
				StockBefore: newQty.Add(qty),
				StockAfter:  newQty,
				Reason:      fmt.Sprintf("Order #%d", orderNumber),
				ReferenceID: &ref,
			}); err != nil {
				return err
			}
		}

		if customer != nil {
			return s.applyCreditResult(tx, customer, &order, result)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// The draft is cleared only after the commit is durable. A failure here
	// leaves a stale (empty-of-purpose) tab, not an inconsistency.
	if err := s.draftRepo.Delete(ctx, d.ID); err != nil {
		log.Error().Err(err).Str("draft_id", d.ID.String()).Msg("failed to clear committed draft")
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueStockAlert(ctx, map[string]interface{}{
			"order_id": order.ID.String(),
		})
	}

	resp := orderToResponse(&order)
	if customer != nil {
		nb := result.NewCustomerBalance
		resp.NewCustomerBalance = &nb
	}
	return resp, nil
}

// applyCreditResult writes the settlement allocation into the customer ledger:
// balances plus one immutable movement per affected tier.
func (s *orderService) applyCreditResult(tx *gorm.DB, customer *model.Customer, order *model.Order, result *settlement.Result) error {
	newAdmin := customer.AdminCredits.Sub(result.PaidToAdmin)
	newOrderCredits := customer.OrderCredits.Sub(result.PaidToOldOrders).Add(result.DeferredAmount)

	if err := s.customerRepo.UpdateCreditsTx(tx, customer.ID, newAdmin, newOrderCredits); err != nil {
		return err
	}

	ref := order.ID
	movements := []struct {
		kind   string
		amount decimal.Decimal
	}{
		{"admin_cleared", result.PaidToAdmin.Neg()},
		{"order_cleared", result.PaidToOldOrders.Neg()},
		{"order_deferred", result.DeferredAmount},
	}
	for _, m := range movements {
		if m.amount.IsZero() {
			continue
		}
		if err := s.customerRepo.CreateMovementTx(tx, &model.CreditMovement{
			CustomerID: customer.ID,
			Kind:       m.kind,
			Amount:     m.amount,
			Reason:     fmt.Sprintf("Order #%d settlement", order.OrderNumber),
			OrderID:    &ref,
		}); err != nil {
			return err
		}
	}
	return nil
}

// ── Void ──────────────────────────────────────────────────────────────────────

func (s *orderService) Void(ctx context.Context, perms policy.PermissionSet, orderID uuid.UUID, reason string) error {
	if err := policy.AuthorizeVoid(perms); err != nil {
		return err
	}
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("order %s not found", orderID)
	}
	if order.Status == "voided" {
		return fmt.Errorf("order #%d is already voided", order.OrderNumber)
	}

	return runTx(ctx, s.orderRepo.DB(), func(tx *gorm.DB) error {
		for i := range order.Items {
			item := &order.Items[i]
			if item.ProductID == nil {
				continue
			}
			newQty, err := s.productRepo.IncrementStockTx(tx, *item.ProductID, item.NetQuantity)
			if err != nil {
				return err
			}
			ref := order.ID
			if err := s.movementRepo.CreateTx(tx, &model.StockMovement{
				ProductID:   *item.ProductID,
				Kind:        "void_restock",
				Quantity:    item.NetQuantity,
				StockBefore: newQty.Sub(item.NetQuantity),
				StockAfter:  newQty,
				Reason:      fmt.Sprintf("Void order #%d — %s", order.OrderNumber, reason),
				ReferenceID: &ref,
			}); err != nil {
				return err
			}
		}

		// Reverse the settlement's effect on the customer ledger
		if order.CustomerID != nil {
			customer, err := s.customerRepo.FindByID(ctx, *order.CustomerID)
			if err != nil {
				return err
			}
			newAdmin := customer.AdminCredits.Add(order.PaidToAdmin)
			newOrderCredits := customer.OrderCredits.Add(order.PaidToOldOrders).Sub(order.DeferredAmount)
			if err := s.customerRepo.UpdateCreditsTx(tx, customer.ID, newAdmin, newOrderCredits); err != nil {
				return err
			}
			ref := order.ID
			reversal := order.PaidToAdmin.Add(order.PaidToOldOrders).Sub(order.DeferredAmount)
			if !reversal.IsZero() {
				if err := s.customerRepo.CreateMovementTx(tx, &model.CreditMovement{
					CustomerID: customer.ID,
					Kind:       "void_reversal",
					Amount:     reversal,
					Reason:     fmt.Sprintf("Void order #%d — %s", order.OrderNumber, reason),
					OrderID:    &ref,
				}); err != nil {
					return err
				}
			}
		}

		return s.orderRepo.UpdateStatusTx(tx, order.ID, "voided")
	})
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *orderService) Get(ctx context.Context, orderID uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	return orderToResponse(order), nil
}

func (s *orderService) List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Status == "" {
		filter.Status = "completed"
	}
	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.OrderListResponse{
		Data:  make([]dto.OrderResponse, 0, len(orders)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range orders {
		resp.Data = append(resp.Data, *orderToResponse(&orders[i]))
	}
	return resp, nil
}

func orderToResponse(o *model.Order) *dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		var pid *string
		if item.ProductID != nil {
			s := item.ProductID.String()
			pid = &s
		}
		items = append(items, dto.OrderItemResponse{
			ID:              item.ID.String(),
			ProductID:       pid,
			ProductName:     item.ProductName,
			QuantityType:    item.QuantityType,
			NetQuantity:     item.NetQuantity,
			PricePerUnit:    item.PricePerUnit,
			DiscountPercent: item.DiscountPercent,
			FinalTotal:      item.FinalTotal,
		})
	}
	payments := make([]dto.PaymentRequest, 0, len(o.Payments))
	for _, p := range o.Payments {
		payments = append(payments, dto.PaymentRequest{
			Method:        p.Method,
			Amount:        p.Amount,
			CardReference: p.CardReference,
			ChequeNumber:  p.ChequeNumber,
			ChequeDate:    p.ChequeDate,
			ChequePayer:   p.ChequePayer,
			ChequeBank:    p.ChequeBank,
		})
	}
	var cid *string
	if o.CustomerID != nil {
		s := o.CustomerID.String()
		cid = &s
	}
	return &dto.OrderResponse{
		ID:                 o.ID.String(),
		OrderNumber:        o.OrderNumber,
		CashierID:          o.CashierID.String(),
		CustomerID:         cid,
		Items:              items,
		Subtotal:           o.Subtotal,
		DiscountAmount:     o.DiscountAmount,
		Total:              o.Total,
		TotalDue:           o.TotalDue,
		PaidAmount:         o.PaidAmount,
		DeferredAmount:     o.DeferredAmount,
		Change:             o.Change,
		PaidToAdmin:        o.PaidToAdmin,
		PaidToCurrentOrder: o.PaidToCurrentOrder,
		PaidToOldOrders:    o.PaidToOldOrders,
		Payments:           payments,
		Status:             o.Status,
		CreatedAt:          o.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

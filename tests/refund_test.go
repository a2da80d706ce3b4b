package tests

import (
	"context"
	"errors"
	"testing"

	"scalepos/internal/dto"
	"scalepos/internal/model"
	"scalepos/internal/policy"
	"scalepos/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Fixtures ──────────────────────────────────────────────────────────────────

type refundFixture struct {
	svc          service.RefundService
	orderRepo    *stubOrderRepo
	refundRepo   *stubRefundRepo
	productRepo  *stubProductRepo
	movementRepo *stubMovementRepo
}

func newRefundFixture() *refundFixture {
	orderRepo := newStubOrderRepo()
	refundRepo := newStubRefundRepo()
	productRepo := newStubProductRepo()
	movementRepo := &stubMovementRepo{}
	return &refundFixture{
		svc:          service.NewRefundService(orderRepo, refundRepo, productRepo, movementRepo),
		orderRepo:    orderRepo,
		refundRepo:   refundRepo,
		productRepo:  productRepo,
		movementRepo: movementRepo,
	}
}

// seedOrder stores a completed two-line order: 2 kg of a and 3 units of b.
func (f *refundFixture) seedOrder(t *testing.T) (*model.Order, *model.Product, *model.Product) {
	t.Helper()
	a := seedProduct(f.productRepo, "Gruyere", "7200000000001", "8", "100")
	b := seedProduct(f.productRepo, "Yogurt", "7200000000002", "20", "30")
	b.UnitType = model.UnitTypeUnit

	order := &model.Order{
		OrderNumber: 1,
		CashierID:   uuid.New(),
		Subtotal:    dec("290"),
		Total:       dec("290"),
		TotalDue:    dec("290"),
		PaidAmount:  dec("290"),
		Status:      "completed",
		Items: []model.OrderItem{
			{ProductID: &a.ID, ProductName: a.Name, QuantityType: a.UnitType,
				NetQuantity: dec("2"), PricePerUnit: dec("100"), FinalTotal: dec("200")},
			{ProductID: &b.ID, ProductName: b.Name, QuantityType: b.UnitType,
				NetQuantity: dec("3"), PricePerUnit: dec("30"), FinalTotal: dec("90")},
		},
	}
	require.NoError(t, f.orderRepo.Create(context.Background(), nil, order))
	return order, a, b
}

// ── Full refund ───────────────────────────────────────────────────────────────

func TestRefund_FullRestocksEverything(t *testing.T) {
	f := newRefundFixture()
	order, a, b := f.seedOrder(t)

	resp, err := f.svc.Refund(context.Background(), admin, uuid.New(), order.ID, dto.RefundRequest{
		Mode: "full", Reason: "customer returned everything",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.RefundNumber)
	assert.True(t, dec("290").Equal(resp.Amount))
	require.Len(t, resp.Items, 2)

	assert.True(t, dec("10").Equal(a.StockQuantity)) // 8 + 2
	assert.True(t, dec("23").Equal(b.StockQuantity)) // 20 + 3
	assert.Equal(t, "refunded", order.Status)

	// One restock movement per product
	movesA, _ := f.movementRepo.ListByProduct(context.Background(), a.ID, 10)
	require.Len(t, movesA, 1)
	assert.Equal(t, "refund_restock", movesA[0].Kind)
	assert.True(t, dec("2").Equal(movesA[0].Quantity))
}

func TestRefund_RefundedOrderNotRefundableAgain(t *testing.T) {
	f := newRefundFixture()
	order, _, _ := f.seedOrder(t)

	_, err := f.svc.Refund(context.Background(), admin, uuid.New(), order.ID, dto.RefundRequest{
		Mode: "full", Reason: "first",
	})
	require.NoError(t, err)

	_, err = f.svc.Refund(context.Background(), admin, uuid.New(), order.ID, dto.RefundRequest{
		Mode: "full", Reason: "second",
	})
	assert.True(t, errors.Is(err, service.ErrOrderNotRefundable))
}

// ── Pro-rata ──────────────────────────────────────────────────────────────────

func TestRefund_ProRataDistributesByRatio(t *testing.T) {
	f := newRefundFixture()
	order, a, b := f.seedOrder(t)

	// 145 of 290 = half of each line
	resp, err := f.svc.Refund(context.Background(), admin, uuid.New(), order.ID, dto.RefundRequest{
		Mode: "partial_amount", Amount: dec("145"), Reason: "half spoiled",
	})
	require.NoError(t, err)

	assert.True(t, dec("145").Equal(resp.Amount))
	assert.True(t, dec("9").Equal(a.StockQuantity))    // 8 + 1
	assert.True(t, dec("21.5").Equal(b.StockQuantity)) // 20 + 1.5
	assert.Equal(t, "partially_refunded", order.Status)
}

func TestRefund_ProRataAmountBounds(t *testing.T) {
	f := newRefundFixture()
	order, _, _ := f.seedOrder(t)

	_, err := f.svc.Refund(context.Background(), admin, uuid.New(), order.ID, dto.RefundRequest{
		Mode: "partial_amount", Amount: dec("0"), Reason: "bad",
	})
	assert.ErrorContains(t, err, "positive")

	_, err = f.svc.Refund(context.Background(), admin, uuid.New(), order.ID, dto.RefundRequest{
		Mode: "partial_amount", Amount: dec("500"), Reason: "too much",
	})
	assert.ErrorContains(t, err, "exceeds")
}

// ── Itemized ──────────────────────────────────────────────────────────────────

func TestRefund_ItemizedPricesAtLineRate(t *testing.T) {
	f := newRefundFixture()
	order, a, _ := f.seedOrder(t)
	itemA := order.Items[0]

	resp, err := f.svc.Refund(context.Background(), admin, uuid.New(), order.ID, dto.RefundRequest{
		Mode:   "partial_items",
		Reason: "one pack returned",
		Items: []dto.RefundItemRequest{
			{OrderItemID: itemA.ID.String(), QuantityReturned: dec("0.5")},
		},
	})
	require.NoError(t, err)

	assert.True(t, dec("50").Equal(resp.Amount)) // 0.5 × 100
	assert.True(t, dec("8.5").Equal(a.StockQuantity))
	assert.True(t, dec("0.5").Equal(order.Items[0].RefundedQuantity))
}

func TestRefund_ItemizedCappedAtRefundable(t *testing.T) {
	f := newRefundFixture()
	order, _, _ := f.seedOrder(t)
	itemA := order.Items[0]

	_, err := f.svc.Refund(context.Background(), admin, uuid.New(), order.ID, dto.RefundRequest{
		Mode:   "partial_items",
		Reason: "first half",
		Items: []dto.RefundItemRequest{
			{OrderItemID: itemA.ID.String(), QuantityReturned: dec("1.5")},
		},
	})
	require.NoError(t, err)

	// Only 0.5 kg of the 2 kg line remains refundable now
	_, err = f.svc.Refund(context.Background(), admin, uuid.New(), order.ID, dto.RefundRequest{
		Mode:   "partial_items",
		Reason: "too greedy",
		Items: []dto.RefundItemRequest{
			{OrderItemID: itemA.ID.String(), QuantityReturned: dec("1")},
		},
	})
	assert.ErrorContains(t, err, "exceeds refundable")
}

func TestRefund_ItemizedUnknownItemRejected(t *testing.T) {
	f := newRefundFixture()
	order, _, _ := f.seedOrder(t)

	_, err := f.svc.Refund(context.Background(), admin, uuid.New(), order.ID, dto.RefundRequest{
		Mode:   "partial_items",
		Reason: "bad id",
		Items: []dto.RefundItemRequest{
			{OrderItemID: uuid.New().String(), QuantityReturned: dec("1")},
		},
	})
	assert.ErrorContains(t, err, "not part of order")
}

// ── Gate ──────────────────────────────────────────────────────────────────────

func TestRefund_GatedByPermission(t *testing.T) {
	f := newRefundFixture()
	order, _, _ := f.seedOrder(t)

	_, err := f.svc.Refund(context.Background(), cashier, uuid.New(), order.ID, dto.RefundRequest{
		Mode: "full", Reason: "no permission",
	})
	var denied *policy.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, policy.ActionProcessRefund, denied.Action)
}

func TestRefund_ListByOrder(t *testing.T) {
	f := newRefundFixture()
	order, _, _ := f.seedOrder(t)
	itemA := order.Items[0]

	_, err := f.svc.Refund(context.Background(), admin, uuid.New(), order.ID, dto.RefundRequest{
		Mode:   "partial_items",
		Reason: "first",
		Items:  []dto.RefundItemRequest{{OrderItemID: itemA.ID.String(), QuantityReturned: dec("1")}},
	})
	require.NoError(t, err)

	refunds, err := f.svc.ListByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, "partial_items", refunds[0].Mode)
}

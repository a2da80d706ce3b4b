package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"scalepos/internal/dto"
	"scalepos/internal/model"
	"scalepos/internal/service"
	"scalepos/internal/settlement"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Fixtures ──────────────────────────────────────────────────────────────────

type checkoutFixture struct {
	drafts       service.DraftService
	orders       service.OrderService
	draftRepo    *stubDraftRepo
	productRepo  *stubProductRepo
	customerRepo *stubCustomerRepo
	orderRepo    *stubOrderRepo
	movementRepo *stubMovementRepo
}

func newCheckoutFixture() *checkoutFixture {
	draftRepo := newStubDraftRepo()
	productRepo := newStubProductRepo()
	customerRepo := newStubCustomerRepo()
	orderRepo := newStubOrderRepo()
	movementRepo := &stubMovementRepo{}
	stock := service.NewStockService(productRepo, draftRepo, movementRepo)
	return &checkoutFixture{
		drafts:       service.NewDraftService(draftRepo, productRepo, customerRepo, stock),
		orders:       service.NewOrderService(orderRepo, draftRepo, productRepo, customerRepo, movementRepo, nil),
		draftRepo:    draftRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
		movementRepo: movementRepo,
	}
}

// draftWith opens a draft for session s1 holding qty kg of p.
func (f *checkoutFixture) draftWith(t *testing.T, p *model.Product, kg string) uuid.UUID {
	t.Helper()
	resp, err := f.drafts.Create(context.Background(), "s1", uuid.New())
	require.NoError(t, err)
	draftID := uuid.MustParse(resp.ID)
	_, err = f.drafts.AddLineItem(context.Background(), "s1", draftID, supervisor, lineFor(p, kg))
	require.NoError(t, err)
	return draftID
}

func cashPayment(amount string) dto.CommitRequest {
	return dto.CommitRequest{Payments: []dto.PaymentRequest{{Method: "cash", Amount: dec(amount)}}}
}

// ── Commit ────────────────────────────────────────────────────────────────────

func TestCommit_CashWithChange(t *testing.T) {
	f := newCheckoutFixture()
	p := seedProduct(f.productRepo, "Parmesan", "7100000000001", "10", "100")
	draftID := f.draftWith(t, p, "2") // total 200

	resp, err := f.orders.Commit(context.Background(), "s1", draftID, uuid.New(), cashPayment("250"))
	require.NoError(t, err)

	assert.Equal(t, 1, resp.OrderNumber)
	assert.True(t, dec("200").Equal(resp.Total))
	assert.True(t, dec("50").Equal(resp.Change))
	assert.True(t, dec("200").Equal(resp.PaidToCurrentOrder))
	assert.Equal(t, "completed", resp.Status)

	// Stock committed, draft gone
	assert.True(t, dec("8").Equal(p.StockQuantity))
	_, err = f.draftRepo.Find(context.Background(), draftID)
	assert.Error(t, err)

	// Sale movement recorded with negative quantity
	movements, _ := f.movementRepo.ListByProduct(context.Background(), p.ID, 10)
	require.Len(t, movements, 1)
	assert.Equal(t, "sale", movements[0].Kind)
	assert.True(t, dec("-2").Equal(movements[0].Quantity))
	assert.True(t, dec("10").Equal(movements[0].StockBefore))
	assert.True(t, dec("8").Equal(movements[0].StockAfter))
}

func TestCommit_EmptyDraftRejected(t *testing.T) {
	f := newCheckoutFixture()
	resp, err := f.drafts.Create(context.Background(), "s1", uuid.New())
	require.NoError(t, err)

	_, err = f.orders.Commit(context.Background(), "s1", uuid.MustParse(resp.ID), uuid.New(), cashPayment("10"))
	assert.True(t, errors.Is(err, service.ErrDraftEmpty))
}

func TestCommit_OwnershipEnforced(t *testing.T) {
	f := newCheckoutFixture()
	p := seedProduct(f.productRepo, "Asiago", "7100000000002", "10", "50")
	draftID := f.draftWith(t, p, "1")

	_, err := f.orders.Commit(context.Background(), "other", draftID, uuid.New(), cashPayment("50"))
	assert.True(t, errors.Is(err, service.ErrNotDraftOwner))
}

func TestCommit_SettlementRejectionLeavesEverythingIntact(t *testing.T) {
	f := newCheckoutFixture()
	p := seedProduct(f.productRepo, "Taleggio", "7100000000003", "10", "100")
	draftID := f.draftWith(t, p, "2") // total 200

	_, err := f.orders.Commit(context.Background(), "s1", draftID, uuid.New(), cashPayment("150"))
	var mm *settlement.MismatchError
	require.ErrorAs(t, err, &mm)

	// No mutation happened: stock untouched, draft still open, no order
	assert.True(t, dec("10").Equal(p.StockQuantity))
	_, findErr := f.draftRepo.Find(context.Background(), draftID)
	assert.NoError(t, findErr)
	assert.Empty(t, f.orderRepo.orders)
}

func TestCommit_StockConflictAbortsAndKeepsDraft(t *testing.T) {
	f := newCheckoutFixture()
	p := seedProduct(f.productRepo, "Raclette", "7100000000004", "5", "100")
	draftID := f.draftWith(t, p, "4")

	// Stock vanishes between the advisory check and the commit — a concurrent
	// commit or a manual adjustment won the race.
	p.StockQuantity = dec("3")

	_, err := f.orders.Commit(context.Background(), "s1", draftID, uuid.New(), cashPayment("400"))
	assert.True(t, errors.Is(err, service.ErrStockConflict))

	// The draft survives for a retry
	d, findErr := f.draftRepo.Find(context.Background(), draftID)
	require.NoError(t, findErr)
	assert.Len(t, d.Items, 1)
}

func TestCommit_ConcurrentCommitsNeverOversell(t *testing.T) {
	f := newCheckoutFixture()
	p := seedProduct(f.productRepo, "Provolone", "7100000000020", "100", "100")

	// Four registers each hold a draft of 2 kg, then stock is cut to 5 kg —
	// only two of the four commits can be satisfied.
	sessions := []string{"s1", "s2", "s3", "s4"}
	draftIDs := make([]uuid.UUID, len(sessions))
	for i, sess := range sessions {
		resp, err := f.drafts.Create(context.Background(), sess, uuid.New())
		require.NoError(t, err)
		draftIDs[i] = uuid.MustParse(resp.ID)
		_, err = f.drafts.AddLineItem(context.Background(), sess, draftIDs[i], supervisor, lineFor(p, "2"))
		require.NoError(t, err)
	}
	p.StockQuantity = dec("5")

	errs := make([]error, len(sessions))
	var wg sync.WaitGroup
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.orders.Commit(context.Background(), sessions[i], draftIDs[i], uuid.New(), cashPayment("200"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, service.ErrStockConflict))
		// Losing drafts stay open for the cashier to adjust or cancel
		_, findErr := f.draftRepo.Find(context.Background(), draftIDs[i])
		assert.NoError(t, findErr)
	}
	assert.Equal(t, 2, succeeded, "exactly the affordable commits go through")
	assert.True(t, dec("1").Equal(p.StockQuantity), "stock must never be oversold")

	// Ledger consistency under the race: every sale movement's before/after
	// differ by its quantity, and the afters step down to the final level.
	movements, _ := f.movementRepo.ListByProduct(context.Background(), p.ID, 10)
	require.Len(t, movements, 2)
	var afters []string
	for _, m := range movements {
		assert.True(t, m.StockAfter.Equal(m.StockBefore.Sub(dec("2"))))
		afters = append(afters, m.StockAfter.String())
	}
	sort.Strings(afters)
	assert.Equal(t, []string{"1", "3"}, afters)
}

func TestCommit_SplitExactEquality(t *testing.T) {
	f := newCheckoutFixture()
	p := seedProduct(f.productRepo, "Morbier", "7100000000005", "10", "100")
	draftID := f.draftWith(t, p, "3") // total 300

	req := dto.CommitRequest{Payments: []dto.PaymentRequest{
		{Method: "cash", Amount: dec("100")},
		{Method: "card", Amount: dec("200"), CardReference: "tx-9"},
	}}
	resp, err := f.orders.Commit(context.Background(), "s1", draftID, uuid.New(), req)
	require.NoError(t, err)
	assert.True(t, resp.Change.IsZero())
	assert.Len(t, resp.Payments, 2)
}

func TestCommit_CardMissingReferenceRejected(t *testing.T) {
	f := newCheckoutFixture()
	p := seedProduct(f.productRepo, "Tomme", "7100000000006", "10", "100")
	draftID := f.draftWith(t, p, "1")

	req := dto.CommitRequest{Payments: []dto.PaymentRequest{{Method: "card", Amount: dec("100")}}}
	_, err := f.orders.Commit(context.Background(), "s1", draftID, uuid.New(), req)
	var mf *settlement.MissingFieldError
	require.ErrorAs(t, err, &mf)
}

// ── Customer credit ───────────────────────────────────────────────────────────

func TestCommit_DebtFoldedAndAllocated(t *testing.T) {
	f := newCheckoutFixture()
	p := seedProduct(f.productRepo, "Reblochon", "7100000000007", "10", "50")
	c := seedCustomer(f.customerRepo, "A. Reyes", "100", "30") // balance 130
	draftID := f.draftWith(t, p, "1")                          // order total 50, due 180
	_, err := f.drafts.SetCustomer(context.Background(), "s1", draftID, c.ID)
	require.NoError(t, err)

	resp, err := f.orders.Commit(context.Background(), "s1", draftID, uuid.New(), cashPayment("180"))
	require.NoError(t, err)

	assert.True(t, dec("180").Equal(resp.TotalDue))
	assert.True(t, dec("100").Equal(resp.PaidToAdmin))
	assert.True(t, dec("50").Equal(resp.PaidToCurrentOrder))
	assert.True(t, dec("30").Equal(resp.PaidToOldOrders))
	require.NotNil(t, resp.NewCustomerBalance)
	assert.True(t, resp.NewCustomerBalance.IsZero())

	// Balances written and ledger entries recorded
	assert.True(t, c.AdminCredits.IsZero())
	assert.True(t, c.OrderCredits.IsZero())
	moves, _ := f.customerRepo.ListMovements(context.Background(), c.ID)
	kinds := make(map[string]bool)
	for _, m := range moves {
		kinds[m.Kind] = true
	}
	assert.True(t, kinds["admin_cleared"])
	assert.True(t, kinds["order_cleared"])
}

func TestCommit_PureCreditDefersOrder(t *testing.T) {
	f := newCheckoutFixture()
	p := seedProduct(f.productRepo, "Camembert", "7100000000008", "10", "80")
	c := seedCustomer(f.customerRepo, "M. Sosa", "0", "0")
	draftID := f.draftWith(t, p, "1") // total 80
	_, err := f.drafts.SetCustomer(context.Background(), "s1", draftID, c.ID)
	require.NoError(t, err)

	req := dto.CommitRequest{Payments: []dto.PaymentRequest{{Method: "credit", Amount: dec("0")}}}
	resp, err := f.orders.Commit(context.Background(), "s1", draftID, uuid.New(), req)
	require.NoError(t, err)

	assert.True(t, dec("80").Equal(resp.DeferredAmount))
	assert.True(t, resp.PaidAmount.IsZero())
	require.NotNil(t, resp.NewCustomerBalance)
	assert.True(t, dec("80").Equal(*resp.NewCustomerBalance))

	// The deferred amount lands in the order-credits tier
	assert.True(t, dec("80").Equal(c.OrderCredits))

	// Stock still committed — credit sales move goods
	assert.True(t, dec("9").Equal(p.StockQuantity))
}

func TestCommit_CreditWithoutCustomerRejected(t *testing.T) {
	f := newCheckoutFixture()
	p := seedProduct(f.productRepo, "Roquefort", "7100000000009", "10", "80")
	draftID := f.draftWith(t, p, "1")

	req := dto.CommitRequest{Payments: []dto.PaymentRequest{{Method: "credit", Amount: dec("80")}}}
	_, err := f.orders.Commit(context.Background(), "s1", draftID, uuid.New(), req)
	assert.True(t, errors.Is(err, settlement.ErrMissingCustomer))
}

// ── Void ──────────────────────────────────────────────────────────────────────

func TestVoid_RestocksAndReversesCredit(t *testing.T) {
	f := newCheckoutFixture()
	p := seedProduct(f.productRepo, "Provolone", "7100000000010", "10", "60")
	c := seedCustomer(f.customerRepo, "L. Vidal", "0", "0")
	draftID := f.draftWith(t, p, "2") // total 120
	_, err := f.drafts.SetCustomer(context.Background(), "s1", draftID, c.ID)
	require.NoError(t, err)

	req := dto.CommitRequest{Payments: []dto.PaymentRequest{{Method: "credit", Amount: dec("0")}}}
	resp, err := f.orders.Commit(context.Background(), "s1", draftID, uuid.New(), req)
	require.NoError(t, err)
	orderID := uuid.MustParse(resp.ID)
	assert.True(t, dec("8").Equal(p.StockQuantity))

	require.NoError(t, f.orders.Void(context.Background(), admin, orderID, "entry error"))

	assert.True(t, dec("10").Equal(p.StockQuantity))
	assert.True(t, c.OrderCredits.IsZero())

	stored, _ := f.orderRepo.FindByID(context.Background(), orderID)
	assert.Equal(t, "voided", stored.Status)

	// Voiding twice is rejected
	err = f.orders.Void(context.Background(), admin, orderID, "again")
	assert.ErrorContains(t, err, "already voided")
}

func TestVoid_GatedByPermission(t *testing.T) {
	f := newCheckoutFixture()
	p := seedProduct(f.productRepo, "Edam", "7100000000011", "10", "60")
	draftID := f.draftWith(t, p, "1")
	resp, err := f.orders.Commit(context.Background(), "s1", draftID, uuid.New(), cashPayment("60"))
	require.NoError(t, err)

	err = f.orders.Void(context.Background(), supervisor, uuid.MustParse(resp.ID), "nope")
	assert.Error(t, err)
}

package settlement

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalepos/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func cash(amount string) Instrument {
	return Instrument{Method: MethodCash, Amount: dec(amount)}
}

func debtor(admin, order string) *model.Customer {
	return &model.Customer{
		AdminCredits: dec(admin),
		OrderCredits: dec(order),
	}
}

// ── Allocation ────────────────────────────────────────────────────────────────

func TestAllocate_AdminFirstThenCurrentThenOld(t *testing.T) {
	// admin=100, order total=50, old=30; pay 120 → 100 admin, 20 current, 0 old
	toAdmin, toCurrent, toOld := Allocate(dec("120"), dec("50"), dec("100"), dec("30"))
	assert.True(t, dec("100").Equal(toAdmin))
	assert.True(t, dec("20").Equal(toCurrent))
	assert.True(t, toOld.IsZero())
}

func TestAllocate_CoversAllTiers(t *testing.T) {
	toAdmin, toCurrent, toOld := Allocate(dec("180"), dec("50"), dec("100"), dec("30"))
	assert.True(t, dec("100").Equal(toAdmin))
	assert.True(t, dec("50").Equal(toCurrent))
	assert.True(t, dec("30").Equal(toOld))
}

func TestAllocate_NothingPaid(t *testing.T) {
	toAdmin, toCurrent, toOld := Allocate(decimal.Zero, dec("50"), dec("100"), dec("30"))
	assert.True(t, toAdmin.IsZero())
	assert.True(t, toCurrent.IsZero())
	assert.True(t, toOld.IsZero())
}

// ── Cash ──────────────────────────────────────────────────────────────────────

func TestSettle_CashExact(t *testing.T) {
	res, err := Settle(dec("150"), nil, []Instrument{cash("150")})
	require.NoError(t, err)
	assert.True(t, res.Change.IsZero())
	assert.True(t, dec("150").Equal(res.PaidToCurrentOrder))
	assert.True(t, res.DeferredAmount.IsZero())
}

func TestSettle_CashOverpaymentProducesChange(t *testing.T) {
	res, err := Settle(dec("150"), nil, []Instrument{cash("200")})
	require.NoError(t, err)
	assert.True(t, dec("50").Equal(res.Change))
	// Change never enters the allocation tiers
	assert.True(t, dec("150").Equal(res.PaidToCurrentOrder))
}

func TestSettle_CashShortfallRejected(t *testing.T) {
	_, err := Settle(dec("150"), nil, []Instrument{cash("100")})
	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.True(t, dec("50").Equal(mm.Shortfall))
}

// ── Non-cash and splits: exact equality ──────────────────────────────────────

func TestSettle_CardOverpaymentRejected(t *testing.T) {
	_, err := Settle(dec("100"), nil, []Instrument{
		{Method: MethodCard, Amount: dec("120"), CardReference: "tx-1"},
	})
	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.True(t, dec("20").Equal(mm.Overage))
}

func TestSettle_SplitMustMatchExactly(t *testing.T) {
	instruments := []Instrument{
		cash("60"),
		{Method: MethodCard, Amount: dec("40"), CardReference: "tx-2"},
	}
	res, err := Settle(dec("100"), nil, instruments)
	require.NoError(t, err)
	assert.True(t, res.Change.IsZero())

	// Off by one in either direction fails
	_, err = Settle(dec("101"), nil, instruments)
	assert.Error(t, err)
	_, err = Settle(dec("99"), nil, instruments)
	assert.Error(t, err)
}

func TestSettle_CashInSplitCannotOverpay(t *testing.T) {
	_, err := Settle(dec("100"), nil, []Instrument{
		cash("80"),
		{Method: MethodCard, Amount: dec("40"), CardReference: "tx-3"},
	})
	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.True(t, dec("20").Equal(mm.Overage))
}

// ── Required fields ───────────────────────────────────────────────────────────

func TestSettle_CardNeedsReference(t *testing.T) {
	_, err := Settle(dec("100"), nil, []Instrument{{Method: MethodCard, Amount: dec("100")}})
	var mf *MissingFieldError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, "card_reference", mf.Field)
}

func TestSettle_ChequeNeedsAllFields(t *testing.T) {
	_, err := Settle(dec("100"), nil, []Instrument{{
		Method: MethodCheque, Amount: dec("100"),
		ChequeNumber: "123", ChequeDate: "2026-08-30", ChequePayer: "J. Doe",
	}})
	var mf *MissingFieldError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, "cheque_bank", mf.Field)
}

func TestSettle_NoInstruments(t *testing.T) {
	_, err := Settle(dec("100"), nil, nil)
	assert.True(t, errors.Is(err, ErrNoInstruments))
}

func TestSettle_UnknownMethod(t *testing.T) {
	_, err := Settle(dec("100"), nil, []Instrument{{Method: "barter", Amount: dec("100")}})
	assert.Error(t, err)
}

// ── Customer credit ───────────────────────────────────────────────────────────

func TestSettle_PriorBalanceFoldedIntoDue(t *testing.T) {
	// balance 130 (100 admin + 30 old), order 50 → due 180
	c := debtor("100", "30")
	res, err := Settle(dec("50"), c, []Instrument{cash("180")})
	require.NoError(t, err)
	assert.True(t, dec("180").Equal(res.TotalDue))
	assert.True(t, dec("100").Equal(res.PaidToAdmin))
	assert.True(t, dec("50").Equal(res.PaidToCurrentOrder))
	assert.True(t, dec("30").Equal(res.PaidToOldOrders))
	assert.True(t, res.NewCustomerBalance.IsZero())
}

func TestSettle_PartialPaymentAllocationOrder(t *testing.T) {
	c := debtor("100", "30")
	// pay 120 of the 180 due via card is exact-only, so use cash
	_, err := Settle(dec("50"), c, []Instrument{cash("120")})
	// cash below due is a shortfall — partial cash payments are not a thing
	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.True(t, dec("60").Equal(mm.Shortfall))
}

func TestSettle_PureCreditDefersEverything(t *testing.T) {
	c := debtor("0", "20")
	res, err := Settle(dec("80"), c, []Instrument{{Method: MethodCredit, Amount: dec("999")}})
	require.NoError(t, err)
	// due = 80 + 20 prior; keyed amount ignored, the whole due is deferred
	assert.True(t, dec("100").Equal(res.DeferredAmount))
	assert.True(t, res.ActualPaid.IsZero())
	assert.True(t, dec("120").Equal(res.NewCustomerBalance)) // 20 prior + 100 deferred
}

func TestSettle_CreditWithoutCustomerRejected(t *testing.T) {
	_, err := Settle(dec("80"), nil, []Instrument{{Method: MethodCredit, Amount: dec("80")}})
	assert.True(t, errors.Is(err, ErrMissingCustomer))
}

func TestSettle_SplitCashAndCredit(t *testing.T) {
	c := debtor("0", "0")
	res, err := Settle(dec("100"), c, []Instrument{
		cash("60"),
		{Method: MethodCredit, Amount: dec("40")},
	})
	require.NoError(t, err)
	assert.True(t, dec("60").Equal(res.ActualPaid))
	assert.True(t, dec("40").Equal(res.DeferredAmount))
	assert.True(t, dec("60").Equal(res.PaidToCurrentOrder))
	assert.True(t, dec("40").Equal(res.NewCustomerBalance))
}

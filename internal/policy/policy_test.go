package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestForRole_UnknownRoleDeniesEverything(t *testing.T) {
	perms := ForRole("intern")
	assert.False(t, perms.CanEditPrices)
	assert.False(t, perms.CanApplyDiscount)
	assert.False(t, perms.CanUpdateStock)
	assert.False(t, perms.CanProcessRefunds)
	assert.False(t, perms.CanVoidOrders)
}

func TestForRole_SupervisorCannotVoid(t *testing.T) {
	perms := ForRole("supervisor")
	assert.True(t, perms.CanProcessRefunds)
	assert.False(t, perms.CanVoidOrders)
	assert.NoError(t, AuthorizeRefund(perms))
	assert.Error(t, AuthorizeVoid(perms))
}

func TestAuthorizePriceEdit_UnchangedPriceAlwaysPasses(t *testing.T) {
	perms := ForRole("cashier") // cannot edit prices
	assert.NoError(t, AuthorizePriceEdit(perms, dec("100"), dec("100")))
	// Scale differences still count as equal
	assert.NoError(t, AuthorizePriceEdit(perms, dec("100.00"), dec("100")))
}

func TestAuthorizePriceEdit_OverrideGated(t *testing.T) {
	err := AuthorizePriceEdit(ForRole("cashier"), dec("90"), dec("100"))
	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, ActionEditPrice, denied.Action)

	assert.NoError(t, AuthorizePriceEdit(ForRole("supervisor"), dec("90"), dec("100")))
}

func TestAuthorizeDiscount_ZeroAlwaysPasses(t *testing.T) {
	assert.NoError(t, AuthorizeDiscount(PermissionSet{}, decimal.Zero))
}

func TestAuthorizeDiscount_Ceiling(t *testing.T) {
	cashier := ForRole("cashier") // 10% ceiling
	assert.NoError(t, AuthorizeDiscount(cashier, dec("10")))

	err := AuthorizeDiscount(cashier, dec("10.01"))
	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, ActionApplyDiscount, denied.Action)

	assert.NoError(t, AuthorizeDiscount(ForRole("supervisor"), dec("50")))
	assert.NoError(t, AuthorizeDiscount(ForRole("admin"), dec("100")))
}

func TestNormalizeDiscount_AmountConvertsToPercent(t *testing.T) {
	// 25 off a 200 subtotal = 12.5%
	got := NormalizeDiscount(decimal.Zero, dec("25"), dec("200"))
	assert.True(t, dec("12.5").Equal(got))
}

func TestNormalizeDiscount_AmountWinsOverPercent(t *testing.T) {
	got := NormalizeDiscount(dec("99"), dec("10"), dec("100"))
	assert.True(t, dec("10").Equal(got))
}

func TestNormalizeDiscount_ZeroSubtotalForcesZero(t *testing.T) {
	assert.True(t, NormalizeDiscount(dec("50"), decimal.Zero, decimal.Zero).IsZero())
	assert.True(t, NormalizeDiscount(decimal.Zero, dec("10"), decimal.Zero).IsZero())
}

func TestNormalizeDiscount_PercentPassesThrough(t *testing.T) {
	got := NormalizeDiscount(dec("15"), decimal.Zero, dec("300"))
	assert.True(t, dec("15").Equal(got))
}

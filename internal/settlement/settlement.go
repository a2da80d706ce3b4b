// Package settlement matches payment instruments (and/or deferred customer
// credit) against a total due and computes the resulting balances. Pure
// computation — the checkout service persists what this package decides.
package settlement

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"scalepos/internal/model"
)

// Payment methods. "credit" defers the amount to the customer's account; the
// rest are actual money in hand.
const (
	MethodCash   = "cash"
	MethodCard   = "card"
	MethodMobile = "mobile"
	MethodCheque = "cheque"
	MethodCredit = "credit"
)

// Instrument is one payment leg of a settlement attempt: one for a
// single-method payment, several for a split.
type Instrument struct {
	Method string
	Amount decimal.Decimal

	// Required per method — card needs a reference, cheque needs all four
	CardReference string
	ChequeNumber  string
	ChequeDate    string
	ChequePayer   string
	ChequeBank    string
}

// Deferred reports whether this instrument books against the customer's
// account instead of money in hand.
func (i Instrument) Deferred() bool { return i.Method == MethodCredit }

// Result is the full settlement outcome.
type Result struct {
	TotalDue       decimal.Decimal
	ActualPaid     decimal.Decimal
	DeferredAmount decimal.Decimal
	Change         decimal.Decimal

	// Allocation of the actual paid amount, in priority order
	PaidToAdmin        decimal.Decimal
	PaidToCurrentOrder decimal.Decimal
	PaidToOldOrders    decimal.Decimal

	// NewCustomerBalance = prior balance − (PaidToAdmin + PaidToOldOrders) + DeferredAmount
	NewCustomerBalance decimal.Decimal
}

// ErrMissingCustomer: a credit instrument needs a linked customer account.
var ErrMissingCustomer = errors.New("credit payment requires a linked customer")

// ErrNoInstruments: a settlement attempt carried no payment legs at all.
var ErrNoInstruments = errors.New("at least one payment instrument is required")

// MissingFieldError names the instrument field that must be non-empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required payment field: %s", e.Field)
}

// MismatchError reports by how much the instruments miss the total due.
// Shortfall > 0 means underpayment; Overage > 0 means overpayment. Only cash
// single-instrument payments may exceed the due (producing change) — every
// other mode requires exact equality.
type MismatchError struct {
	Shortfall decimal.Decimal
	Overage   decimal.Decimal
}

func (e *MismatchError) Error() string {
	if e.Shortfall.IsPositive() {
		return fmt.Sprintf("payment short of total due by %s", e.Shortfall)
	}
	return fmt.Sprintf("payment exceeds total due by %s", e.Overage)
}

func shortfall(d decimal.Decimal) error { return &MismatchError{Shortfall: d} }
func overage(d decimal.Decimal) error   { return &MismatchError{Overage: d} }

// Settle validates the instruments against orderTotal plus the customer's
// prior balance and computes the credit allocation. customer may be nil for
// walk-in sales; then only actual-payment instruments are accepted.
func Settle(orderTotal decimal.Decimal, customer *model.Customer, instruments []Instrument) (*Result, error) {
	if len(instruments) == 0 {
		return nil, ErrNoInstruments
	}

	totalDue := orderTotal
	priorBalance := decimal.Zero
	adminCredits := decimal.Zero
	orderCredits := decimal.Zero
	if customer != nil {
		adminCredits = customer.AdminCredits
		orderCredits = customer.OrderCredits
		priorBalance = customer.Balance()
		// Prior debt is always folded into what must be paid now.
		totalDue = totalDue.Add(priorBalance)
	}

	actualPaid := decimal.Zero
	deferred := decimal.Zero
	for _, in := range instruments {
		if err := validateInstrument(in, customer); err != nil {
			return nil, err
		}
		if in.Deferred() {
			deferred = deferred.Add(in.Amount)
		} else {
			actualPaid = actualPaid.Add(in.Amount)
		}
	}

	change := decimal.Zero
	switch {
	case len(instruments) == 1 && instruments[0].Method == MethodCash:
		// Cash is the sole mode permitting overpayment; excess comes back as change.
		if actualPaid.LessThan(totalDue) {
			return nil, shortfall(totalDue.Sub(actualPaid))
		}
		change = actualPaid.Sub(totalDue).Round(2)
	case len(instruments) == 1 && instruments[0].Method == MethodCredit:
		// Pure credit: the entire due is deferred, whatever amount was keyed.
		deferred = totalDue
		actualPaid = decimal.Zero
	default:
		// Single non-cash instrument or split: exact equality required.
		covered := actualPaid.Add(deferred)
		if covered.LessThan(totalDue) {
			return nil, shortfall(totalDue.Sub(covered))
		}
		if covered.GreaterThan(totalDue) {
			return nil, overage(covered.Sub(totalDue))
		}
	}

	// Allocation applies to the money actually received — the part of a cash
	// payment returned as change never enters the tiers.
	effectivePaid := actualPaid.Sub(change)
	toAdmin, toCurrent, toOld := Allocate(effectivePaid, orderTotal, adminCredits, orderCredits)

	newBalance := priorBalance.Sub(toAdmin).Sub(toOld).Add(deferred)

	return &Result{
		TotalDue:           totalDue.Round(2),
		ActualPaid:         actualPaid.Round(2),
		DeferredAmount:     deferred.Round(2),
		Change:             change,
		PaidToAdmin:        toAdmin,
		PaidToCurrentOrder: toCurrent,
		PaidToOldOrders:    toOld,
		NewCustomerBalance: newBalance.Round(2),
	}, nil
}

// Allocate distributes a paid amount across the three credit tiers in fixed
// priority: admin-granted credit first (a liability, not realized revenue),
// then the current sale (revenue recognition), and only leftover cash retires
// older outstanding balances. The ordering changes recognized-revenue timing
// and must not be reordered.
func Allocate(paid, orderTotal, adminCredits, orderCredits decimal.Decimal) (toAdmin, toCurrent, toOld decimal.Decimal) {
	toAdmin = decimal.Min(paid, adminCredits)
	remainder := paid.Sub(toAdmin)

	toCurrent = decimal.Min(remainder, orderTotal)
	remainder = remainder.Sub(toCurrent)

	toOld = decimal.Min(remainder, orderCredits)
	return toAdmin.Round(2), toCurrent.Round(2), toOld.Round(2)
}

func validateInstrument(in Instrument, customer *model.Customer) error {
	switch in.Method {
	case MethodCash, MethodMobile:
		// amount only
	case MethodCard:
		if in.CardReference == "" {
			return &MissingFieldError{Field: "card_reference"}
		}
	case MethodCheque:
		for _, f := range []struct{ name, val string }{
			{"cheque_number", in.ChequeNumber},
			{"cheque_date", in.ChequeDate},
			{"cheque_payer", in.ChequePayer},
			{"cheque_bank", in.ChequeBank},
		} {
			if f.val == "" {
				return &MissingFieldError{Field: f.name}
			}
		}
	case MethodCredit:
		if customer == nil {
			return ErrMissingCustomer
		}
	default:
		return fmt.Errorf("unknown payment method %q", in.Method)
	}
	if in.Amount.IsNegative() {
		return fmt.Errorf("payment amount cannot be negative")
	}
	return nil
}

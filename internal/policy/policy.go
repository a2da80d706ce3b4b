// Package policy evaluates per-cashier permissions before any mutation the
// engine performs. A denial is terminal for the attempted mutation — callers
// must not apply a partial effect.
package policy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Action names the operations the gate covers.
type Action string

const (
	ActionEditPrice     Action = "edit_price"
	ActionApplyDiscount Action = "apply_discount"
	ActionUpdateStock   Action = "update_stock"
	ActionProcessRefund Action = "process_refund"
	ActionVoidOrder     Action = "void_order"
)

// PermissionSet is the effective per-session permission snapshot. Loaded once
// per session from the role (see ForRole); consulted, never mutated.
type PermissionSet struct {
	CanEditPrices      bool            `json:"can_edit_prices"`
	CanApplyDiscount   bool            `json:"can_apply_discount"`
	MaxDiscountPercent decimal.Decimal `json:"max_discount_percent"`
	CanUpdateStock     bool            `json:"can_update_stock"`
	CanProcessRefunds  bool            `json:"can_process_refunds"`
	CanVoidOrders      bool            `json:"can_void_orders"`
}

// DeniedError reports which action the gate refused and why.
type DeniedError struct {
	Action Action
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s: %s", e.Action, e.Reason)
}

func deny(action Action, reason string) error {
	return &DeniedError{Action: action, Reason: reason}
}

// ForRole maps a user role to its PermissionSet. Roles are the external
// policy source's vocabulary: "cashier" | "supervisor" | "admin". Unknown
// roles get an empty set — everything gated is denied.
func ForRole(role string) PermissionSet {
	switch role {
	case "admin":
		return PermissionSet{
			CanEditPrices:      true,
			CanApplyDiscount:   true,
			MaxDiscountPercent: decimal.NewFromInt(100),
			CanUpdateStock:     true,
			CanProcessRefunds:  true,
			CanVoidOrders:      true,
		}
	case "supervisor":
		return PermissionSet{
			CanEditPrices:      true,
			CanApplyDiscount:   true,
			MaxDiscountPercent: decimal.NewFromInt(50),
			CanUpdateStock:     true,
			CanProcessRefunds:  true,
			CanVoidOrders:      false,
		}
	case "cashier":
		return PermissionSet{
			CanApplyDiscount:   true,
			MaxDiscountPercent: decimal.NewFromInt(10),
		}
	default:
		return PermissionSet{}
	}
}

// AuthorizePriceEdit gates a price override. Only checked when the proposed
// price differs from the product default — unchanged prices always pass.
func AuthorizePriceEdit(perms PermissionSet, proposed, defaultPrice decimal.Decimal) error {
	if proposed.Equal(defaultPrice) {
		return nil
	}
	if !perms.CanEditPrices {
		return deny(ActionEditPrice, "price overrides not allowed for this role")
	}
	return nil
}

// AuthorizeDiscount gates a discount percentage against the role ceiling.
func AuthorizeDiscount(perms PermissionSet, percent decimal.Decimal) error {
	if percent.IsZero() {
		return nil
	}
	if !perms.CanApplyDiscount {
		return deny(ActionApplyDiscount, "discounts not allowed for this role")
	}
	if percent.GreaterThan(perms.MaxDiscountPercent) {
		return deny(ActionApplyDiscount,
			fmt.Sprintf("discount %s%% exceeds role limit of %s%%", percent, perms.MaxDiscountPercent))
	}
	return nil
}

// AuthorizeUpdateStock gates direct stock writes.
func AuthorizeUpdateStock(perms PermissionSet) error {
	if !perms.CanUpdateStock {
		return deny(ActionUpdateStock, "stock adjustments not allowed for this role")
	}
	return nil
}

// AuthorizeRefund gates refund processing.
func AuthorizeRefund(perms PermissionSet) error {
	if !perms.CanProcessRefunds {
		return deny(ActionProcessRefund, "refunds not allowed for this role")
	}
	return nil
}

// AuthorizeVoid gates voiding a committed order.
func AuthorizeVoid(perms PermissionSet) error {
	if !perms.CanVoidOrders {
		return deny(ActionVoidOrder, "voiding orders not allowed for this role")
	}
	return nil
}

// NormalizeDiscount converts the entry surface's amount-or-percentage duality
// into percentage-only before it reaches the gate. A currency amount becomes
// amount/subtotal×100; a zero subtotal forces the discount to 0.
func NormalizeDiscount(percent, amount, subtotal decimal.Decimal) decimal.Decimal {
	if !amount.IsZero() {
		if subtotal.IsZero() {
			return decimal.Zero
		}
		return amount.Div(subtotal).Mul(decimal.NewFromInt(100)).Round(2)
	}
	if subtotal.IsZero() {
		return decimal.Zero
	}
	return percent
}

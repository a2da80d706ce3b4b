package service

import "errors"

// Domain errors the engine reports to callers. Every rejected mutation is
// observable — nothing is retried or swallowed, and nothing partially applies.
var (
	// ErrInvalidWeight: derived net weight or item weight is not positive.
	ErrInvalidWeight = errors.New("line item has no positive net weight")

	// ErrBoxExceedsItem: deducted box weight is greater than the item weight.
	ErrBoxExceedsItem = errors.New("box weight exceeds item weight")

	// ErrInsufficientStock: draft-time advisory check failed — remaining stock
	// across open drafts cannot cover the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock for requested quantity")

	// ErrStockConflict: commit-time race lost — another commit consumed the
	// stock between the advisory check and the atomic decrement. The draft
	// stays open for a manual retry.
	ErrStockConflict = errors.New("stock conflict: committed stock changed during checkout")

	// ErrDraftNotEmpty: discard is only permitted on an empty draft.
	ErrDraftNotEmpty = errors.New("draft order still has items; empty or commit it first")

	// ErrDraftEmpty: an empty draft cannot be committed.
	ErrDraftEmpty = errors.New("draft order has no items")

	// ErrNotDraftOwner: drafts are mutable only by their owning session.
	ErrNotDraftOwner = errors.New("draft order belongs to another session")

	// ErrOrderNotRefundable: the order was already fully refunded or voided.
	ErrOrderNotRefundable = errors.New("order cannot be refunded in its current status")
)

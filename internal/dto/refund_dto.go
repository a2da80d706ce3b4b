package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// RefundItemRequest names an order item and how much of it comes back.
type RefundItemRequest struct {
	OrderItemID      string          `json:"order_item_id"     validate:"required,uuid"`
	QuantityReturned decimal.Decimal `json:"quantity_returned" validate:"required"`
}

// RefundRequest covers all three modes:
//   - mode=full: amount and items ignored
//   - mode=partial_amount: amount distributed pro-rata across line items
//   - mode=partial_items: explicit per-item returned quantities
type RefundRequest struct {
	Mode   string          `json:"mode"   validate:"required,oneof=full partial_amount partial_items"`
	Amount decimal.Decimal `json:"amount" validate:"min=0"`
	Items  []RefundItemRequest `json:"items" validate:"omitempty,dive"`
	Reason string              `json:"reason" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RefundItemResponse struct {
	OrderItemID      string          `json:"order_item_id"`
	ProductID        *string         `json:"product_id"`
	QuantityReturned decimal.Decimal `json:"quantity_returned"`
	Amount           decimal.Decimal `json:"amount"`
}

type RefundResponse struct {
	ID           string               `json:"id"`
	RefundNumber int                  `json:"refund_number"`
	OrderID      string               `json:"order_id"`
	Mode         string               `json:"mode"`
	Amount       decimal.Decimal      `json:"amount"`
	Reason       string               `json:"reason"`
	Items        []RefundItemResponse `json:"items"`
	CreatedAt    string               `json:"created_at"`
}

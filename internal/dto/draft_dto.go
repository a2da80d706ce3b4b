package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// LineItemRequest is the raw entry for adding or replacing a draft line item.
// Weight products: kilogram/gram fields as keyed on the scale entry form.
// Unit products: the count goes in item_kg, box and gram fields stay 0.
type LineItemRequest struct {
	ProductID *string `json:"product_id" validate:"omitempty,uuid"`
	// Name labels ad-hoc items (no product_id); ignored otherwise.
	Name string `json:"name" validate:"omitempty,max=120"`

	ItemKg          decimal.Decimal `json:"item_kg"     validate:"min=0"`
	ItemG           int             `json:"item_g"`
	BoxKg           decimal.Decimal `json:"box_kg"      validate:"min=0"`
	BoxG            int             `json:"box_g"`
	BoxCount        int             `json:"box_count"   validate:"min=0"`
	PricePerUnit    decimal.Decimal `json:"price_per_unit"   validate:"min=0"`
	DiscountPercent decimal.Decimal `json:"discount_percent" validate:"min=0,max=100"`
}

// OrderDiscountRequest accepts either a percentage or an equivalent currency
// amount; the amount form is normalized to a percentage of the current
// subtotal before the permission gate sees it.
type OrderDiscountRequest struct {
	Percent decimal.Decimal `json:"percent" validate:"min=0,max=100"`
	Amount  decimal.Decimal `json:"amount"  validate:"min=0"`
}

type SetCustomerRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LineItemResponse struct {
	ID          string  `json:"id"`
	ProductID   *string `json:"product_id"`
	ProductName string  `json:"product_name"`
	// QuantityType: "weight" | "unit"
	QuantityType string `json:"quantity_type"`

	ItemWeightTotal decimal.Decimal `json:"item_weight_total"`
	TotalBoxWeight  decimal.Decimal `json:"total_box_weight"`
	NetWeight       decimal.Decimal `json:"net_weight"`
	PricePerUnit    decimal.Decimal `json:"price_per_unit"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	BaseTotal       decimal.Decimal `json:"base_total"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	FinalTotal      decimal.Decimal `json:"final_total"`
}

type DraftResponse struct {
	ID                   string             `json:"id"`
	SessionID            string             `json:"session_id"`
	Items                []LineItemResponse `json:"items"`
	OrderDiscountPercent decimal.Decimal    `json:"order_discount_percent"`
	CustomerID           *string            `json:"customer_id"`
	Subtotal             decimal.Decimal    `json:"subtotal"`
	DiscountAmount       decimal.Decimal    `json:"discount_amount"`
	Total                decimal.Decimal    `json:"total"`
	CreatedAt            string             `json:"created_at"`
}

type DraftListResponse struct {
	Data []DraftResponse `json:"data"`
}

// RemainingResponse is the advisory stock view for one product.
type RemainingResponse struct {
	ProductID string          `json:"product_id"`
	Committed decimal.Decimal `json:"committed"`
	Reserved  decimal.Decimal `json:"reserved"`
	Remaining decimal.Decimal `json:"remaining"`
}

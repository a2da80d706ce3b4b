package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is a fully derived, priced line of a draft order. It is immutable
// once computed: edits recompute and replace the whole value. Raw inputs are
// kept alongside derived fields so an edit round-trips without loss.
//
// Drafts live in Redis as JSON documents, so this struct carries json tags
// instead of gorm tags; the committed snapshot is OrderItem.
type LineItem struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   *uuid.UUID `json:"product_id"` // nil for ad-hoc items
	ProductName string     `json:"product_name"`
	// QuantityType: "weight" | "unit"
	QuantityType string `json:"quantity_type"`

	// Raw entry
	ItemWeightKg    decimal.Decimal `json:"item_weight_kg"` // holds the count for unit items
	ItemWeightG     int             `json:"item_weight_g"`
	BoxWeightKg     decimal.Decimal `json:"box_weight_kg"`
	BoxWeightG      int             `json:"box_weight_g"`
	BoxCount        int             `json:"box_count"`
	PricePerUnit    decimal.Decimal `json:"price_per_unit"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`

	// Derived — weights rounded to 3 decimals, currency to 2, at each step
	ItemWeightTotal decimal.Decimal `json:"item_weight_total"`
	BoxWeightPerBox decimal.Decimal `json:"box_weight_per_box"`
	TotalBoxWeight  decimal.Decimal `json:"total_box_weight"`
	NetWeight       decimal.Decimal `json:"net_weight"`
	BaseTotal       decimal.Decimal `json:"base_total"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	FinalTotal      decimal.Decimal `json:"final_total"`

	// Diagnostics — the calculator only reports; callers decide
	ExceedsBoxWeight bool `json:"exceeds_box_weight"`
	IsValid          bool `json:"is_valid"`
}

// ReservedQuantity is what this line holds against committed stock while its
// draft is open: net weight for weight items, the count for unit items.
func (li *LineItem) ReservedQuantity() decimal.Decimal {
	return li.NetWeight
}

// DraftOrder is an in-progress, uncommitted order ("tab"). Owned exclusively
// by one cashier session; multiple drafts may be open concurrently, each
// independently editable. Lifecycle: empty → items added/edited/removed →
// committed (becomes an Order) or discarded (only when empty).
type DraftOrder struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	CashierID uuid.UUID `json:"cashier_id"`
	// Items keep insertion order — significant for display only.
	Items                []LineItem      `json:"items"`
	OrderDiscountPercent decimal.Decimal `json:"order_discount_percent"`
	CustomerID           *uuid.UUID      `json:"customer_id"`
	CreatedAt            time.Time       `json:"created_at"`
}

// Subtotal is the sum of line item final totals.
func (d *DraftOrder) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for i := range d.Items {
		sum = sum.Add(d.Items[i].FinalTotal)
	}
	return sum
}

// DiscountAmount is the order-level discount applied on the subtotal.
func (d *DraftOrder) DiscountAmount() decimal.Decimal {
	return d.Subtotal().Mul(d.OrderDiscountPercent).Div(decimal.NewFromInt(100)).Round(2)
}

// Total = subtotal − order discount.
func (d *DraftOrder) Total() decimal.Decimal {
	return d.Subtotal().Sub(d.DiscountAmount())
}

// ReservedFor sums this draft's reservation against one product.
func (d *DraftOrder) ReservedFor(productID uuid.UUID) decimal.Decimal {
	sum := decimal.Zero
	for i := range d.Items {
		if d.Items[i].ProductID != nil && *d.Items[i].ProductID == productID {
			sum = sum.Add(d.Items[i].ReservedQuantity())
		}
	}
	return sum
}

// FindItem returns the index of the line item with the given id, or -1.
func (d *DraftOrder) FindItem(itemID uuid.UUID) int {
	for i := range d.Items {
		if d.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

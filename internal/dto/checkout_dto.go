package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// PaymentRequest is one payment instrument of a commit: one for single-method
// payment, several for a split.
type PaymentRequest struct {
	Method string          `json:"method" validate:"required,oneof=cash card mobile cheque credit"`
	Amount decimal.Decimal `json:"amount" validate:"min=0"`

	CardReference string `json:"card_reference"`
	ChequeNumber  string `json:"cheque_number"`
	ChequeDate    string `json:"cheque_date"`
	ChequePayer   string `json:"cheque_payer"`
	ChequeBank    string `json:"cheque_bank"`
}

// CommitRequest settles and commits a draft order atomically.
type CommitRequest struct {
	Payments []PaymentRequest `json:"payments" validate:"required,min=1,dive"`
}

type VoidRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	ID              string          `json:"id"`
	ProductID       *string         `json:"product_id"`
	ProductName     string          `json:"product_name"`
	QuantityType    string          `json:"quantity_type"`
	NetQuantity     decimal.Decimal `json:"net_quantity"`
	PricePerUnit    decimal.Decimal `json:"price_per_unit"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	FinalTotal      decimal.Decimal `json:"final_total"`
}

type OrderResponse struct {
	ID          string `json:"id"`
	OrderNumber int    `json:"order_number"`
	CashierID   string `json:"cashier_id"`
	CustomerID  *string `json:"customer_id"`

	Items []OrderItemResponse `json:"items"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`

	TotalDue           decimal.Decimal  `json:"total_due"`
	PaidAmount         decimal.Decimal  `json:"paid_amount"`
	DeferredAmount     decimal.Decimal  `json:"deferred_amount"`
	Change             decimal.Decimal  `json:"change"`
	PaidToAdmin        decimal.Decimal  `json:"paid_to_admin"`
	PaidToCurrentOrder decimal.Decimal  `json:"paid_to_current_order"`
	PaidToOldOrders    decimal.Decimal  `json:"paid_to_old_orders"`
	NewCustomerBalance *decimal.Decimal `json:"new_customer_balance,omitempty"`

	Payments  []PaymentRequest `json:"payments"`
	Status    string           `json:"status"`
	CreatedAt string           `json:"created_at"`
}

// ─── Filter / List ───────────────────────────────────────────────────────────

type OrderFilter struct {
	Date       string `form:"date"` // YYYY-MM-DD; empty = today
	Status     string `form:"status,default=completed"`
	CustomerID string `form:"customer_id"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

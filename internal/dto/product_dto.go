package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Barcode      string           `json:"barcode"       validate:"required,min=4,max=18"`
	Name         string           `json:"name"          validate:"required,min=2,max=120"`
	UnitType     string           `json:"unit_type"     validate:"required,oneof=weight unit"`
	DefaultPrice decimal.Decimal  `json:"default_price" validate:"required"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	Stock        decimal.Decimal  `json:"stock"         validate:"min=0"`
	MinStock     decimal.Decimal  `json:"min_stock"     validate:"min=0"`
}

type UpdateProductRequest struct {
	Name         *string          `json:"name"          validate:"omitempty,min=2,max=120"`
	DefaultPrice *decimal.Decimal `json:"default_price"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	MinStock     *decimal.Decimal `json:"min_stock"`
}

// AdjustStockRequest is the direct, permission-gated stock write. It sets the
// committed quantity outright — it does not pass through reservations.
type AdjustStockRequest struct {
	NewQuantity decimal.Decimal `json:"new_quantity" validate:"min=0"`
	Reason      string          `json:"reason"       validate:"required,min=3"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	Barcode  string `form:"barcode"`
	Name     string `form:"name"`
	UnitType string `form:"unit_type"`
	Active   string `form:"active"` // "false" = inactive, "all" = everything
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID           string           `json:"id"`
	Barcode      string           `json:"barcode"`
	Name         string           `json:"name"`
	UnitType     string           `json:"unit_type"`
	Stock        decimal.Decimal  `json:"stock"`
	MinStock     decimal.Decimal  `json:"min_stock"`
	DefaultPrice decimal.Decimal  `json:"default_price"`
	CostPrice    *decimal.Decimal `json:"cost_price,omitempty"`
	Active       bool             `json:"active"`
	// Remaining = committed stock − open-draft reservations (advisory)
	Remaining *decimal.Decimal `json:"remaining,omitempty"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type StockMovementResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	Kind        string          `json:"kind"`
	Quantity    decimal.Decimal `json:"quantity"`
	StockBefore decimal.Decimal `json:"stock_before"`
	StockAfter  decimal.Decimal `json:"stock_after"`
	Reason      string          `json:"reason"`
	CreatedAt   string          `json:"created_at"`
}

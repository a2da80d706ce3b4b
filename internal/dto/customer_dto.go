package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateCustomerRequest struct {
	Name  string  `json:"name"  validate:"required,min=2,max=120"`
	Phone *string `json:"phone" validate:"omitempty,max=30"`
}

// GrantCreditRequest manually grants admin credit (supervisor/admin only).
type GrantCreditRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Reason string          `json:"reason" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CustomerResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Phone        *string         `json:"phone"`
	AdminCredits decimal.Decimal `json:"admin_credits"`
	OrderCredits decimal.Decimal `json:"order_credits"`
	Balance      decimal.Decimal `json:"balance"`
}

type CreditMovementResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	OrderID   *string         `json:"order_id,omitempty"`
	CreatedAt string          `json:"created_at"`
}

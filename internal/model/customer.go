package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer carries the two-component credit balance the settlement engine
// allocates against. Invariant: Balance() = AdminCredits + OrderCredits,
// both components ≥ 0.
//
// AdminCredits are manually granted (a liability, not realized revenue);
// OrderCredits are unpaid remainders of previously committed orders. The
// distinction drives settlement allocation order — see internal/settlement.
type Customer struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"index;not null"`
	Phone        *string
	AdminCredits decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	OrderCredits decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Active       bool            `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Balance returns the total outstanding credit balance.
func (c *Customer) Balance() decimal.Decimal {
	return c.AdminCredits.Add(c.OrderCredits)
}

// CreditMovement is an immutable event in a customer's credit ledger.
// Kind: "admin_grant" | "admin_cleared" | "order_deferred" | "order_cleared" |
// "void_reversal". Movements are NEVER modified or deleted — corrections
// create inverse entries.
type CreditMovement struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind       string          `gorm:"type:varchar(20);not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null"` // positive = balance up
	Reason     string          `gorm:"not null"`
	// OrderID links to the originating committed order when applicable.
	OrderID   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time

	Customer *Customer `gorm:"foreignKey:CustomerID"`
}

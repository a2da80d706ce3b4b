package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Refund records a full or partial refund against a committed order.
// Mode: "full" | "partial_amount" | "partial_items".
type Refund struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RefundNumber int             `gorm:"uniqueIndex;not null"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CashierID    uuid.UUID       `gorm:"type:uuid;not null"`
	Mode         string          `gorm:"type:varchar(15);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason       string          `gorm:"not null"`
	CreatedAt    time.Time

	Items []RefundItem `gorm:"foreignKey:RefundID"`
	Order *Order       `gorm:"foreignKey:OrderID"`
}

// RefundItem carries the per-line returned quantity that drives restock.
type RefundItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RefundID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrderItemID uuid.UUID  `gorm:"type:uuid;not null"`
	ProductID   *uuid.UUID `gorm:"type:uuid"`
	// QuantityReturned is restocked for weight items as kg, units as count.
	QuantityReturned decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

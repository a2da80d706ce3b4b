package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockMovement records every change to a product's committed stock.
// Kind: "sale" | "manual_adjust" | "refund_restock" | "void_restock".
// Movements are NEVER modified or deleted — corrections create inverse entries.
type StockMovement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind      string    `gorm:"type:varchar(20);not null"`
	// Quantity: positive = restock/entry, negative = sale/exit
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	StockBefore decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	StockAfter  decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Reason      string
	// ReferenceID links to the originating order or refund when applicable.
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

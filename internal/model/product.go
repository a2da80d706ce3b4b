package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitType distinguishes weight-based products (sold by net kg, three decimal
// places) from unit-based products (sold by integer count).
const (
	UnitTypeWeight = "weight"
	UnitTypeUnit   = "unit"
)

// Product is the catalog entry the engine reads. StockQuantity is the
// committed, authoritative count — open drafts never touch it; only a
// successful commit or an explicit gated adjustment writes it.
type Product struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Barcode string    `gorm:"uniqueIndex;not null"`
	Name    string    `gorm:"index;not null"`
	// UnitType: "weight" | "unit"
	UnitType string `gorm:"type:varchar(10);not null;default:'weight'"`
	// StockQuantity holds kg for weight products, whole units otherwise.
	StockQuantity decimal.Decimal  `gorm:"type:decimal(12,3);not null;default:0"`
	MinStock      decimal.Decimal  `gorm:"type:decimal(12,3);not null;default:0"`
	DefaultPrice  decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	CostPrice     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Active        bool             `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

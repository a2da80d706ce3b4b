package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the immutable record a successful commit produces: the draft's
// line items frozen as OrderItems plus the settlement result. Status:
// "completed" | "refunded" | "partially_refunded" | "voided".
type Order struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderNumber int        `gorm:"uniqueIndex;not null"`
	CashierID   uuid.UUID  `gorm:"type:uuid;not null"`
	CustomerID  *uuid.UUID `gorm:"type:uuid;index"`

	Subtotal             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	OrderDiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total                decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// Settlement breakdown — see internal/settlement for allocation rules
	TotalDue           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaidAmount         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DeferredAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Change             decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PaidToAdmin        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PaidToCurrentOrder decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PaidToOldOrders    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	Status    string `gorm:"type:varchar(20);not null;default:'completed'"`
	CreatedAt time.Time

	Items    []OrderItem    `gorm:"foreignKey:OrderID"`
	Payments []OrderPayment `gorm:"foreignKey:OrderID"`
	Customer *Customer      `gorm:"foreignKey:CustomerID"`
	Cashier  *User          `gorm:"foreignKey:CashierID"`
}

// OrderItem is the committed snapshot of a draft LineItem.
type OrderItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID `gorm:"type:uuid;index"`
	ProductName string     `gorm:"not null"`
	// QuantityType: "weight" | "unit"
	QuantityType    string          `gorm:"type:varchar(10);not null"`
	NetQuantity     decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	PricePerUnit    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	FinalTotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// RefundedQuantity accumulates across partial refunds, capped at NetQuantity.
	RefundedQuantity decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
}

// OrderPayment is one settled instrument of an order. Method:
// "cash" | "card" | "mobile" | "cheque" | "credit".
type OrderPayment struct {
	ID      uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method  string          `gorm:"type:varchar(10);not null"`
	Amount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Per-method reference fields; empty when not applicable
	CardReference string `gorm:"default:''"`
	ChequeNumber  string `gorm:"default:''"`
	ChequeDate    string `gorm:"default:''"`
	ChequePayer   string `gorm:"default:''"`
	ChequeBank    string `gorm:"default:''"`
}

// Package pricing derives a sellable line item from raw weight/box/discount
// entry. Pure computation — no I/O, no dependencies on the rest of the engine.
// The calculator never returns an error: it reports diagnostics and leaves
// accept/reject decisions to the caller (the draft order service).
package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"scalepos/internal/model"
)

// Rounding is applied at every derivation step, not only at the end, so that
// recomputing from identical inputs is byte-identical.
const (
	weightPlaces   = 3
	currencyPlaces = 2
)

var hundred = decimal.NewFromInt(100)

// Input is the raw line entry as the cashier keys it. For unit-type products
// the count goes in ItemKg and every gram/box field stays zero, collapsing
// NetWeight to the count.
type Input struct {
	ProductID    *uuid.UUID
	QuantityType string // model.UnitTypeWeight | model.UnitTypeUnit

	ItemKg          decimal.Decimal
	ItemG           int
	BoxKg           decimal.Decimal
	BoxG            int
	BoxCount        int
	PricePerUnit    decimal.Decimal
	DiscountPercent decimal.Decimal
}

// Compute derives the full line item from raw entry.
//
// Grams outside [0, 999] are clamped, not rejected: the legacy entry surface
// produced such values and downstream always treated them this way. Likely a
// UX wart, kept deliberately.
func Compute(in Input) model.LineItem {
	itemG := clampGrams(in.ItemG)
	boxG := clampGrams(in.BoxG)
	boxCount := in.BoxCount
	if boxCount < 0 {
		boxCount = 0
	}

	thousand := decimal.NewFromInt(1000)
	itemWeightTotal := in.ItemKg.Add(decimal.NewFromInt(int64(itemG)).Div(thousand)).Round(weightPlaces)
	boxWeightPerBox := in.BoxKg.Add(decimal.NewFromInt(int64(boxG)).Div(thousand)).Round(weightPlaces)
	totalBoxWeight := boxWeightPerBox.Mul(decimal.NewFromInt(int64(boxCount))).Round(weightPlaces)

	netWeight := itemWeightTotal.Sub(totalBoxWeight)
	if netWeight.IsNegative() {
		netWeight = decimal.Zero
	}
	netWeight = netWeight.Round(weightPlaces)

	baseTotal := netWeight.Mul(in.PricePerUnit).Round(currencyPlaces)
	discountAmount := baseTotal.Mul(in.DiscountPercent).Div(hundred).Round(currencyPlaces)
	finalTotal := baseTotal.Sub(discountAmount)

	return model.LineItem{
		ProductID:    in.ProductID,
		QuantityType: in.QuantityType,

		ItemWeightKg:    in.ItemKg,
		ItemWeightG:     itemG,
		BoxWeightKg:     in.BoxKg,
		BoxWeightG:      boxG,
		BoxCount:        boxCount,
		PricePerUnit:    in.PricePerUnit,
		DiscountPercent: in.DiscountPercent,

		ItemWeightTotal: itemWeightTotal,
		BoxWeightPerBox: boxWeightPerBox,
		TotalBoxWeight:  totalBoxWeight,
		NetWeight:       netWeight,
		BaseTotal:       baseTotal,
		DiscountAmount:  discountAmount,
		FinalTotal:      finalTotal,

		ExceedsBoxWeight: totalBoxWeight.GreaterThan(itemWeightTotal),
		IsValid:          netWeight.IsPositive() && itemWeightTotal.IsPositive(),
	}
}

func clampGrams(g int) int {
	if g < 0 {
		return 0
	}
	if g > 999 {
		return 999
	}
	return g
}

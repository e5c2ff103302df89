package budget

import (
	"math"

	"github.com/shopspring/decimal"
)

// Item is one labeled expense line within a monthly ledger.
type Item struct {
	Label  string  `json:"label" db:"label"`
	Amount float64 `json:"amount" db:"amount"`
}

// Ledger is an ordered list of expense items. Order matters only for
// display; totals are order-independent.
type Ledger []Item

// clampAmount normalizes user-typed amounts: negative, NaN, and Inf
// values count as 0. Form input is never rejected, only clamped.
func clampAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Total sums the ledger's amounts with clamping applied per item.
func (l Ledger) Total() float64 {
	sum := decimal.Zero
	for _, it := range l {
		sum = sum.Add(decimal.NewFromFloat(clampAmount(it.Amount)))
	}
	f, _ := sum.Float64()
	return f
}

// Append adds an item at the end of the ledger.
func (l Ledger) Append(it Item) Ledger {
	return append(l, it)
}

// ReplaceAt swaps the item at index i, preserving order. Out-of-range
// indices leave the ledger unchanged.
func (l Ledger) ReplaceAt(i int, it Item) Ledger {
	if i < 0 || i >= len(l) {
		return l
	}
	out := make(Ledger, len(l))
	copy(out, l)
	out[i] = it
	return out
}

// RemoveAt deletes the item at index i, preserving the order of the
// remaining items. Out-of-range indices leave the ledger unchanged.
func (l Ledger) RemoveAt(i int) Ledger {
	if i < 0 || i >= len(l) {
		return l
	}
	out := make(Ledger, 0, len(l)-1)
	out = append(out, l[:i]...)
	out = append(out, l[i+1:]...)
	return out
}

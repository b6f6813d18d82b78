// Package ledger implements the monetary arithmetic for carts and
// orders: discounted unit prices, currency rounding, taxes, and totals.
// Everything here is pure and deterministic; no persistence, no side
// effects.
//
// Rounding policy: round-half-up to two decimal places, applied
// uniformly through RoundCurrency. This matches DECIMAL(7,2) storage
// semantics. Discounted unit prices are NOT rounded; full precision is
// retained for accumulation, and rounding happens when an aggregate is
// written back.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/dstanley/maplecart/internal/domain"
)

// DefaultTaxRate is the fallback sales-tax rate (13%) used when no rate
// is configured. Regions with different rates override it via config.
var DefaultTaxRate = decimal.NewFromFloat(0.13)

// currencyPlaces is the number of decimal places in stored money values.
const currencyPlaces = 2

// Ledger computes money amounts at a fixed tax rate.
type Ledger struct {
	taxRate decimal.Decimal
}

// New creates a Ledger with the given tax rate (e.g. 0.13 for 13%).
// A zero rate is valid; a negative rate falls back to the default.
func New(taxRate decimal.Decimal) *Ledger {
	if taxRate.IsNegative() {
		taxRate = DefaultTaxRate
	}
	return &Ledger{taxRate: taxRate}
}

// TaxRate returns the configured tax rate.
func (l *Ledger) TaxRate() decimal.Decimal {
	return l.taxRate
}

// DiscountedUnitPrice returns price * (1 - discount/100) at full
// precision. No rounding is applied at this step.
func DiscountedUnitPrice(p domain.Product) decimal.Decimal {
	if p.DiscountPercent <= 0 {
		return p.Price
	}
	discount := decimal.NewFromInt32(p.DiscountPercent).Div(decimal.NewFromInt(100))
	return p.Price.Mul(decimal.NewFromInt(1).Sub(discount))
}

// RoundCurrency rounds x to two decimal places, half up.
func RoundCurrency(x decimal.Decimal) decimal.Decimal {
	return x.Round(currencyPlaces)
}

// Taxes computes the tax owed on a subtotal, rounded to currency
// precision.
func (l *Ledger) Taxes(subtotal decimal.Decimal) decimal.Decimal {
	return RoundCurrency(subtotal.Mul(l.taxRate))
}

// Total is always the sum of the ROUNDED subtotal and ROUNDED taxes,
// never the rounded sum of unrounded values. This avoids off-by-one-cent
// discrepancies between displayed components and the charged total.
func Total(subtotal, taxes decimal.Decimal) decimal.Decimal {
	return RoundCurrency(subtotal).Add(RoundCurrency(taxes))
}

// LineTotal returns the rounded extended price for quantity units at the
// given (full-precision) unit price.
func LineTotal(unitPrice decimal.Decimal, quantity int64) decimal.Decimal {
	return RoundCurrency(unitPrice.Mul(decimal.NewFromInt(quantity)))
}

// Aggregates bundles the three derived cart amounts.
type Aggregates struct {
	Subtotal decimal.Decimal
	Taxes    decimal.Decimal
	Total    decimal.Decimal
}

// Derive computes taxes and total from a subtotal. The subtotal is
// rounded to currency precision before anything is derived from it, so
// repeated incremental updates cannot accumulate sub-cent drift.
func (l *Ledger) Derive(subtotal decimal.Decimal) Aggregates {
	subtotal = RoundCurrency(subtotal)
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}
	taxes := l.Taxes(subtotal)
	return Aggregates{
		Subtotal: subtotal,
		Taxes:    taxes,
		Total:    Total(subtotal, taxes),
	}
}

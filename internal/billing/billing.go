// Package billing abstracts payment capture behind a Provider
// interface. The order service charges the user's on-file card through
// it at commit time; implementations exist for Stripe and for tests.
package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Provider defines the payment operations the order flow needs.
type Provider interface {
	// ChargeCard captures params.Amount against a saved card,
	// off-session. Returns the provider's charge reference on success.
	ChargeCard(ctx context.Context, params ChargeParams) (*Charge, error)

	// Refund reverses a charge made with ChargeCard. Used to back out a
	// capture when the order transaction fails after payment.
	Refund(ctx context.Context, chargeRef string) error
}

// ChargeParams describes one off-session capture.
type ChargeParams struct {
	// CustomerRef is the provider's customer id the card is attached to.
	CustomerRef string

	// CardRef is the provider's payment-method id for the saved card.
	CardRef string

	// Amount is the total to capture, in major currency units, already
	// rounded to two places.
	Amount decimal.Decimal

	// Currency is the ISO 4217 code, e.g. "cad".
	Currency string

	// IdempotencyKey deduplicates retries of the same logical charge.
	IdempotencyKey string

	// Description appears on the customer's statement and in the
	// provider dashboard.
	Description string
}

// Charge is the result of a successful capture.
type Charge struct {
	// Ref is the provider's charge reference, stored on the order.
	Ref string

	// AmountCents is the captured amount in minor units.
	AmountCents int64

	Currency  string
	CreatedAt time.Time
}

// AmountToCents converts a decimal major-unit amount to minor units.
func AmountToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAPIKey is returned when the Stripe API key is invalid or missing.
	ErrInvalidAPIKey = errors.New("billing: invalid or missing API key")

	// ErrPaymentFailed is returned when a capture fails (card declined,
	// expired, insufficient funds).
	ErrPaymentFailed = errors.New("billing: payment failed")

	// ErrAmountTooSmall is returned when the amount is below the
	// provider's minimum charge.
	ErrAmountTooSmall = errors.New("billing: amount below provider minimum")

	// ErrChargeNotFound is returned when a refund references an unknown charge.
	ErrChargeNotFound = errors.New("billing: charge not found")
)

// ProviderError wraps a provider API error with the fields worth
// surfacing in logs.
type ProviderError struct {
	Message       string // human-readable message
	Code          string // provider error code (e.g. "card_declined")
	DeclineCode   string // card decline reason, if any
	RequestID     string // provider request id for support escalation
	OriginalError error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("billing: %s (code: %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("billing: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.OriginalError
}

// IsDeclined reports whether the error is a card decline rather than an
// API or connectivity failure.
func (e *ProviderError) IsDeclined() bool {
	return e.Code == "card_declined" || e.DeclineCode != ""
}

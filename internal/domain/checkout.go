package domain

import "time"

// CheckoutStage is one step of the shipping / payment / review /
// confirmation progression. The state machine permits arbitrary stage
// jumps; only order commit enforces preconditions.
type CheckoutStage string

const (
	StageShipping     CheckoutStage = "shipping"
	StagePayment      CheckoutStage = "payment"
	StageReview       CheckoutStage = "review"
	StageConfirmation CheckoutStage = "confirmation"
)

// ParseCheckoutStage validates a stage name.
func ParseCheckoutStage(name string) (CheckoutStage, bool) {
	switch CheckoutStage(name) {
	case StageShipping, StagePayment, StageReview, StageConfirmation:
		return CheckoutStage(name), true
	}
	return "", false
}

// CheckoutSession tracks a user's progress toward placing an order.
// At most one open session per user. Any cart mutation resets the stage
// to shipping; emptying the cart deletes the session outright.
type CheckoutSession struct {
	ID                int64         `json:"id"`
	UserID            int64         `json:"user_id"`
	CartID            int64         `json:"cart_id"`
	Stage             CheckoutStage `json:"stage"`
	ShippingAddressID *int64        `json:"shipping_address_id,omitempty"`
	BillingAddressID  *int64        `json:"billing_address_id,omitempty"`
	PaymentCardID     *int64        `json:"payment_card_id,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// ReadyToCommit reports whether the session satisfies every order-commit
// precondition: confirmation stage with shipping, billing, and payment
// references all set.
func (s *CheckoutSession) ReadyToCommit() bool {
	return s.Stage == StageConfirmation &&
		s.ShippingAddressID != nil &&
		s.BillingAddressID != nil &&
		s.PaymentCardID != nil
}

package billing

import (
	"context"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"
)

// StripeProvider implements Provider against the Stripe API. Charges
// are created as confirmed, off-session payment intents on the saved
// payment method.
type StripeProvider struct{}

// NewStripeProvider configures the Stripe SDK with the given secret key
// and returns a provider.
func NewStripeProvider(apiKey string) (*StripeProvider, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}
	stripe.Key = apiKey
	return &StripeProvider{}, nil
}

func (s *StripeProvider) ChargeCard(ctx context.Context, params ChargeParams) (*Charge, error) {
	amountCents := AmountToCents(params.Amount)
	if amountCents < 50 {
		return nil, ErrAmountTooSmall
	}

	piParams := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amountCents),
		Currency:      stripe.String(params.Currency),
		Customer:      stripe.String(params.CustomerRef),
		PaymentMethod: stripe.String(params.CardRef),
		Description:   stripe.String(params.Description),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
	}
	piParams.Context = ctx
	if params.IdempotencyKey != "" {
		piParams.IdempotencyKey = stripe.String(params.IdempotencyKey)
	}

	pi, err := paymentintent.New(piParams)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, &ProviderError{
			Message:       "payment intent did not succeed: " + string(pi.Status),
			OriginalError: ErrPaymentFailed,
		}
	}

	return &Charge{
		Ref:         pi.ID,
		AmountCents: pi.Amount,
		Currency:    string(pi.Currency),
		CreatedAt:   time.Unix(pi.Created, 0),
	}, nil
}

func (s *StripeProvider) Refund(ctx context.Context, chargeRef string) error {
	refundParams := &stripe.RefundParams{
		PaymentIntent: stripe.String(chargeRef),
	}
	refundParams.Context = ctx

	if _, err := refund.New(refundParams); err != nil {
		return wrapStripeError(err)
	}
	return nil
}

// wrapStripeError converts a Stripe SDK error into a ProviderError,
// classifying declines so ErrPaymentFailed surfaces through errors.Is.
func wrapStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return &ProviderError{Message: err.Error(), OriginalError: err}
	}

	pe := &ProviderError{
		Message:       stripeErr.Msg,
		Code:          string(stripeErr.Code),
		DeclineCode:   string(stripeErr.DeclineCode),
		RequestID:     stripeErr.RequestID,
		OriginalError: err,
	}
	if pe.IsDeclined() || stripeErr.Type == stripe.ErrorTypeCard {
		pe.OriginalError = errors.Join(ErrPaymentFailed, err)
	}
	return pe
}

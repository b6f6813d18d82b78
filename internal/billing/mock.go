package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockProvider is an in-memory Provider for tests. It records charges
// and refunds and succeeds unless an override function says otherwise.
type MockProvider struct {
	// ChargeCardFunc overrides capture behavior when set.
	ChargeCardFunc func(ctx context.Context, params ChargeParams) (*Charge, error)

	// RefundFunc overrides refund behavior when set.
	RefundFunc func(ctx context.Context, chargeRef string) error

	// Charges stores successful captures keyed by charge ref.
	Charges map[string]*Charge

	// Refunded records charge refs that have been refunded.
	Refunded []string

	// CallLog tracks method calls for test assertions.
	CallLog []string
}

// NewMockProvider creates a MockProvider that approves every charge.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Charges: make(map[string]*Charge),
	}
}

func (m *MockProvider) ChargeCard(ctx context.Context, params ChargeParams) (*Charge, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("ChargeCard(%s, %s %s)", params.CardRef, params.Amount, params.Currency))

	if m.ChargeCardFunc != nil {
		return m.ChargeCardFunc(ctx, params)
	}

	ch := &Charge{
		Ref:         "pi_" + uuid.NewString(),
		AmountCents: AmountToCents(params.Amount),
		Currency:    params.Currency,
		CreatedAt:   time.Now(),
	}
	m.Charges[ch.Ref] = ch
	return ch, nil
}

func (m *MockProvider) Refund(ctx context.Context, chargeRef string) error {
	m.CallLog = append(m.CallLog, fmt.Sprintf("Refund(%s)", chargeRef))

	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, chargeRef)
	}
	if _, ok := m.Charges[chargeRef]; !ok {
		return ErrChargeNotFound
	}
	m.Refunded = append(m.Refunded, chargeRef)
	return nil
}

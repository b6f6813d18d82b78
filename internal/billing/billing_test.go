package billing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountToCents(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"0.00", 0},
		{"0.50", 50},
		{"101.70", 10170},
		{"203.40", 20340},
	}
	for _, tt := range tests {
		got := AmountToCents(decimal.RequireFromString(tt.amount))
		assert.Equal(t, tt.want, got, "amount %s", tt.amount)
	}
}

func TestMockProvider_ChargeAndRefund(t *testing.T) {
	m := NewMockProvider()
	ctx := context.Background()

	ch, err := m.ChargeCard(ctx, ChargeParams{
		CustomerRef: "cus_1",
		CardRef:     "pm_1",
		Amount:      decimal.RequireFromString("101.70"),
		Currency:    "cad",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10170), ch.AmountCents)
	assert.NotEmpty(t, ch.Ref)

	require.NoError(t, m.Refund(ctx, ch.Ref))
	assert.Equal(t, []string{ch.Ref}, m.Refunded)

	assert.ErrorIs(t, m.Refund(ctx, "pi_unknown"), ErrChargeNotFound)
}

func TestProviderError_IsDeclined(t *testing.T) {
	declined := &ProviderError{Message: "card declined", Code: "card_declined"}
	assert.True(t, declined.IsDeclined())

	rateLimited := &ProviderError{Message: "slow down", Code: "rate_limit"}
	assert.False(t, rateLimited.IsDeclined())
}

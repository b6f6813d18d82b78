package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstanley/maplecart/internal/domain"
	"github.com/dstanley/maplecart/internal/ledger"
)

func newCheckoutHarness() (*memStore, CheckoutService) {
	store := newMemStore()
	svc := NewCheckoutService(store, NewUserLocks(), testMetrics(), testLogger())
	return store, svc
}

// seedCartWith puts quantity units of a product in the user's cart with
// consistent aggregates.
func seedCartWith(t *testing.T, store *memStore, cart domain.Cart, product domain.Product, quantity int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CartLines().Upsert(ctx, cart.ID, product.ID, quantity))
	l := ledger.New(decimal.NewFromFloat(0.13))
	agg := l.Derive(ledger.DiscountedUnitPrice(product).Mul(decimal.NewFromInt(quantity)))
	require.NoError(t, store.Carts().UpdateAggregates(ctx, cart.ID, quantity, agg.Subtotal, agg.Taxes, agg.Total))
}

func TestCheckoutService_Start(t *testing.T) {
	t.Run("opens a session at the shipping stage", func(t *testing.T) {
		store, svc := newCheckoutHarness()
		user, cart := store.seedUser("a@example.com")
		product := store.seedProduct("Maple Syrup", "100.00", 10, 5)
		seedCartWith(t, store, cart, product, 1)

		session, err := svc.Start(userContext(user))
		require.NoError(t, err)
		assert.Equal(t, domain.StageShipping, session.Stage)
		assert.Equal(t, cart.ID, session.CartID)
		assert.Nil(t, session.ShippingAddressID)
	})

	t.Run("empty cart", func(t *testing.T) {
		store, svc := newCheckoutHarness()
		user, _ := store.seedUser("a@example.com")

		_, err := svc.Start(userContext(user))
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("session already open", func(t *testing.T) {
		store, svc := newCheckoutHarness()
		user, cart := store.seedUser("a@example.com")
		product := store.seedProduct("Maple Syrup", "100.00", 10, 5)
		seedCartWith(t, store, cart, product, 1)
		ctx := userContext(user)

		_, err := svc.Start(ctx)
		require.NoError(t, err)
		_, err = svc.Start(ctx)
		assert.ErrorIs(t, err, ErrCheckoutExists)
	})
}

func TestCheckoutService_SetShippingAddress(t *testing.T) {
	start := func(t *testing.T) (*memStore, CheckoutService, domain.User, context.Context) {
		t.Helper()
		store, svc := newCheckoutHarness()
		user, cart := store.seedUser("a@example.com")
		product := store.seedProduct("Maple Syrup", "100.00", 10, 5)
		seedCartWith(t, store, cart, product, 1)
		ctx := userContext(user)
		_, err := svc.Start(ctx)
		require.NoError(t, err)
		return store, svc, user, ctx
	}

	t.Run("binds a primary shipping address", func(t *testing.T) {
		store, svc, user, ctx := start(t)
		primary := store.seedAddress(user.ID, domain.AddressPrimaryShipping)

		session, err := svc.SetShippingAddress(ctx, primary.ID)
		require.NoError(t, err)
		require.NotNil(t, session.ShippingAddressID)
		assert.Equal(t, primary.ID, *session.ShippingAddressID)
	})

	t.Run("choosing primary deletes the one-off alternate", func(t *testing.T) {
		store, svc, user, ctx := start(t)
		primary := store.seedAddress(user.ID, domain.AddressPrimaryShipping)
		alternate := store.seedAddress(user.ID, domain.AddressAlternateShipping)

		_, err := svc.SetShippingAddress(ctx, primary.ID)
		require.NoError(t, err)

		_, err = store.Addresses().FindByID(ctx, user.ID, alternate.ID)
		assert.Error(t, err)
	})

	t.Run("choosing the alternate keeps it", func(t *testing.T) {
		store, svc, user, ctx := start(t)
		alternate := store.seedAddress(user.ID, domain.AddressAlternateShipping)

		session, err := svc.SetShippingAddress(ctx, alternate.ID)
		require.NoError(t, err)
		assert.Equal(t, alternate.ID, *session.ShippingAddressID)

		_, err = store.Addresses().FindByID(ctx, user.ID, alternate.ID)
		assert.NoError(t, err)
	})

	t.Run("billing address rejected for shipping", func(t *testing.T) {
		store, svc, user, ctx := start(t)
		billing := store.seedAddress(user.ID, domain.AddressBilling)

		_, err := svc.SetShippingAddress(ctx, billing.ID)
		assert.ErrorIs(t, err, ErrAddressTypeMismatch)
	})

	t.Run("another user's address is not visible", func(t *testing.T) {
		store, svc, _, ctx := start(t)
		other, _ := store.seedUser("b@example.com")
		foreign := store.seedAddress(other.ID, domain.AddressPrimaryShipping)

		_, err := svc.SetShippingAddress(ctx, foreign.ID)
		assert.ErrorIs(t, err, ErrAddressNotFound)
	})

	t.Run("no open session", func(t *testing.T) {
		store, svc := newCheckoutHarness()
		user, _ := store.seedUser("a@example.com")
		primary := store.seedAddress(user.ID, domain.AddressPrimaryShipping)

		_, err := svc.SetShippingAddress(userContext(user), primary.ID)
		assert.ErrorIs(t, err, ErrCheckoutNotFound)
	})
}

func TestCheckoutService_SetBillingAddress(t *testing.T) {
	store, svc := newCheckoutHarness()
	user, cart := store.seedUser("a@example.com")
	product := store.seedProduct("Maple Syrup", "100.00", 10, 5)
	seedCartWith(t, store, cart, product, 1)
	ctx := userContext(user)
	_, err := svc.Start(ctx)
	require.NoError(t, err)

	t.Run("accepts a billing address", func(t *testing.T) {
		billing := store.seedAddress(user.ID, domain.AddressBilling)
		session, err := svc.SetBillingAddress(ctx, billing.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.ID, *session.BillingAddressID)
	})

	t.Run("accepts the primary shipping address", func(t *testing.T) {
		primary := store.seedAddress(user.ID, domain.AddressPrimaryShipping)
		session, err := svc.SetBillingAddress(ctx, primary.ID)
		require.NoError(t, err)
		assert.Equal(t, primary.ID, *session.BillingAddressID)
	})

	t.Run("rejects an alternate shipping address", func(t *testing.T) {
		alternate := store.seedAddress(user.ID, domain.AddressAlternateShipping)
		_, err := svc.SetBillingAddress(ctx, alternate.ID)
		assert.ErrorIs(t, err, ErrAddressTypeMismatch)
	})
}

func TestCheckoutService_SetPaymentCard(t *testing.T) {
	t.Run("binds the on-file card", func(t *testing.T) {
		store, svc := newCheckoutHarness()
		user, cart := store.seedUser("a@example.com")
		product := store.seedProduct("Maple Syrup", "100.00", 10, 5)
		seedCartWith(t, store, cart, product, 1)
		card := store.seedCard(user.ID)
		ctx := userContext(user)
		_, err := svc.Start(ctx)
		require.NoError(t, err)

		session, err := svc.SetPaymentCard(ctx)
		require.NoError(t, err)
		assert.Equal(t, card.ID, *session.PaymentCardID)
	})

	t.Run("no card on file", func(t *testing.T) {
		store, svc := newCheckoutHarness()
		user, cart := store.seedUser("a@example.com")
		product := store.seedProduct("Maple Syrup", "100.00", 10, 5)
		seedCartWith(t, store, cart, product, 1)
		ctx := userContext(user)
		_, err := svc.Start(ctx)
		require.NoError(t, err)

		_, err = svc.SetPaymentCard(ctx)
		assert.ErrorIs(t, err, ErrPaymentCardNotFound)
	})
}

func TestCheckoutService_SetStage(t *testing.T) {
	store, svc := newCheckoutHarness()
	user, cart := store.seedUser("a@example.com")
	product := store.seedProduct("Maple Syrup", "100.00", 10, 5)
	seedCartWith(t, store, cart, product, 1)
	ctx := userContext(user)
	_, err := svc.Start(ctx)
	require.NoError(t, err)

	t.Run("arbitrary jumps are allowed", func(t *testing.T) {
		session, err := svc.SetStage(ctx, "confirmation")
		require.NoError(t, err)
		assert.Equal(t, domain.StageConfirmation, session.Stage)

		session, err = svc.SetStage(ctx, "payment")
		require.NoError(t, err)
		assert.Equal(t, domain.StagePayment, session.Stage)
	})

	t.Run("unknown stage name", func(t *testing.T) {
		_, err := svc.SetStage(ctx, "gift-wrap")
		assert.ErrorIs(t, err, ErrInvalidStage)
	})
}

func TestCheckoutService_Abandon(t *testing.T) {
	store, svc := newCheckoutHarness()
	user, cart := store.seedUser("a@example.com")
	product := store.seedProduct("Maple Syrup", "100.00", 10, 5)
	seedCartWith(t, store, cart, product, 1)
	ctx := userContext(user)

	_, err := svc.Start(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Abandon(ctx))

	_, err = svc.Get(ctx)
	assert.ErrorIs(t, err, ErrCheckoutNotFound)

	assert.ErrorIs(t, svc.Abandon(ctx), ErrCheckoutNotFound)
}

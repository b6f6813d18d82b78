package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstanley/maplecart/internal/domain"
	"github.com/dstanley/maplecart/internal/ledger"
	"github.com/dstanley/maplecart/internal/telemetry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *telemetry.BusinessMetrics {
	return telemetry.NewBusinessMetrics(prometheus.NewRegistry())
}

func userContext(u domain.User) context.Context {
	return domain.NewContextWithUser(context.Background(), &u)
}

// assertMoney compares a decimal against its expected string form,
// ignoring exponent representation.
func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got),
		"want %s, got %s", want, got.String())
}

func newCartHarness() (*memStore, CartService) {
	store := newMemStore()
	svc := NewCartService(store, ledger.New(decimal.NewFromFloat(0.13)), NewUserLocks(), testMetrics(), testLogger())
	return store, svc
}

func TestCartService_AddProduct(t *testing.T) {
	t.Run("first unit creates a line and derives aggregates", func(t *testing.T) {
		store, svc := newCartHarness()
		user, _ := store.seedUser("a@example.com")
		// 100.00 at 10% off: discounted unit 90.00.
		product := store.seedProduct("Maple Syrup", "100.00", 10, 5)

		view, err := svc.AddProduct(userContext(user), product.ID)
		require.NoError(t, err)

		assert.Equal(t, int64(1), view.Cart.NumItems)
		assertMoney(t, "90.00", view.Cart.Subtotal)
		assertMoney(t, "11.70", view.Cart.Taxes)
		assertMoney(t, "101.70", view.Cart.Total)

		require.Len(t, view.Lines, 1)
		assert.Equal(t, product.ID, view.Lines[0].ProductID)
		assert.Equal(t, "Maple Syrup", view.Lines[0].ProductName)
		assert.Equal(t, int64(1), view.Lines[0].Quantity)
		assertMoney(t, "90.00", view.Lines[0].UnitPrice)
	})

	t.Run("second unit increments the existing line", func(t *testing.T) {
		store, svc := newCartHarness()
		user, _ := store.seedUser("a@example.com")
		product := store.seedProduct("Maple Syrup", "100.00", 10, 5)
		ctx := userContext(user)

		_, err := svc.AddProduct(ctx, product.ID)
		require.NoError(t, err)
		view, err := svc.AddProduct(ctx, product.ID)
		require.NoError(t, err)

		assert.Equal(t, int64(2), view.Cart.NumItems)
		assertMoney(t, "180.00", view.Cart.Subtotal)
		assertMoney(t, "23.40", view.Cart.Taxes)
		assertMoney(t, "203.40", view.Cart.Total)
		require.Len(t, view.Lines, 1)
		assert.Equal(t, int64(2), view.Lines[0].Quantity)
	})

	t.Run("unknown product", func(t *testing.T) {
		store, svc := newCartHarness()
		user, _ := store.seedUser("a@example.com")

		_, err := svc.AddProduct(userContext(user), 999)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("zero inventory rejects the add", func(t *testing.T) {
		store, svc := newCartHarness()
		user, _ := store.seedUser("a@example.com")
		product := store.seedProduct("Sold Out", "10.00", 0, 0)

		_, err := svc.AddProduct(userContext(user), product.ID)
		assert.ErrorIs(t, err, ErrOutOfStock)
	})

	t.Run("cart quantity cannot exceed inventory", func(t *testing.T) {
		store, svc := newCartHarness()
		user, _ := store.seedUser("a@example.com")
		product := store.seedProduct("Scarce", "10.00", 0, 2)
		ctx := userContext(user)

		_, err := svc.AddProduct(ctx, product.ID)
		require.NoError(t, err)
		_, err = svc.AddProduct(ctx, product.ID)
		require.NoError(t, err)
		_, err = svc.AddProduct(ctx, product.ID)
		assert.ErrorIs(t, err, ErrInsufficientInventory)
	})

	t.Run("resets an open checkout to the shipping stage", func(t *testing.T) {
		store, svc := newCartHarness()
		user, cart := store.seedUser("a@example.com")
		product := store.seedProduct("Maple Syrup", "100.00", 10, 5)
		ctx := userContext(user)

		_, err := svc.AddProduct(ctx, product.ID)
		require.NoError(t, err)

		session, err := store.Checkouts().Create(ctx, user.ID, cart.ID)
		require.NoError(t, err)
		require.NoError(t, store.Checkouts().UpdateStage(ctx, session.ID, domain.StageReview))

		_, err = svc.AddProduct(ctx, product.ID)
		require.NoError(t, err)

		session, err = store.Checkouts().FindByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StageShipping, session.Stage)
	})

	t.Run("requires an authenticated user", func(t *testing.T) {
		_, svc := newCartHarness()

		_, err := svc.AddProduct(context.Background(), 1)
		assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
	})
}

func TestCartService_DecrementProduct(t *testing.T) {
	t.Run("reduces quantity and rederives aggregates", func(t *testing.T) {
		store, svc := newCartHarness()
		user, _ := store.seedUser("a@example.com")
		product := store.seedProduct("Maple Syrup", "100.00", 10, 5)
		ctx := userContext(user)

		_, err := svc.AddProduct(ctx, product.ID)
		require.NoError(t, err)
		_, err = svc.AddProduct(ctx, product.ID)
		require.NoError(t, err)

		view, err := svc.DecrementProduct(ctx, product.ID)
		require.NoError(t, err)

		assert.Equal(t, int64(1), view.Cart.NumItems)
		assertMoney(t, "90.00", view.Cart.Subtotal)
		assertMoney(t, "11.70", view.Cart.Taxes)
		assertMoney(t, "101.70", view.Cart.Total)
	})

	t.Run("quantity one is never removed by decrement", func(t *testing.T) {
		store, svc := newCartHarness()
		user, _ := store.seedUser("a@example.com")
		product := store.seedProduct("Maple Syrup", "100.00", 10, 5)
		ctx := userContext(user)

		_, err := svc.AddProduct(ctx, product.ID)
		require.NoError(t, err)

		_, err = svc.DecrementProduct(ctx, product.ID)
		assert.ErrorIs(t, err, ErrLineNotRemoved)

		// Line and aggregates are untouched.
		view, err := svc.GetCart(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), view.Cart.NumItems)
		assertMoney(t, "90.00", view.Cart.Subtotal)
		require.Len(t, view.Lines, 1)
		assert.Equal(t, int64(1), view.Lines[0].Quantity)
	})

	t.Run("missing line", func(t *testing.T) {
		store, svc := newCartHarness()
		user, _ := store.seedUser("a@example.com")
		product := store.seedProduct("Maple Syrup", "100.00", 10, 5)

		_, err := svc.DecrementProduct(userContext(user), product.ID)
		assert.ErrorIs(t, err, ErrLineNotRemoved)
	})
}

func TestCartService_DeleteProduct(t *testing.T) {
	t.Run("removes the whole line regardless of quantity", func(t *testing.T) {
		store, svc := newCartHarness()
		user, _ := store.seedUser("a@example.com")
		syrup := store.seedProduct("Maple Syrup", "100.00", 10, 5)
		butter := store.seedProduct("Maple Butter", "12.50", 0, 5)
		ctx := userContext(user)

		_, err := svc.AddProduct(ctx, syrup.ID)
		require.NoError(t, err)
		_, err = svc.AddProduct(ctx, syrup.ID)
		require.NoError(t, err)
		_, err = svc.AddProduct(ctx, butter.ID)
		require.NoError(t, err)

		view, err := svc.DeleteProduct(ctx, syrup.ID)
		require.NoError(t, err)

		assert.Equal(t, int64(1), view.Cart.NumItems)
		assertMoney(t, "12.50", view.Cart.Subtotal)
		assertMoney(t, "1.63", view.Cart.Taxes) // 12.50 * 0.13 = 1.625, half up
		assertMoney(t, "14.13", view.Cart.Total)
		require.Len(t, view.Lines, 1)
		assert.Equal(t, butter.ID, view.Lines[0].ProductID)
	})

	t.Run("emptying the cart zeroes aggregates and deletes the session", func(t *testing.T) {
		store, svc := newCartHarness()
		user, cart := store.seedUser("a@example.com")
		product := store.seedProduct("Maple Syrup", "100.00", 10, 5)
		ctx := userContext(user)

		_, err := svc.AddProduct(ctx, product.ID)
		require.NoError(t, err)
		_, err = store.Checkouts().Create(ctx, user.ID, cart.ID)
		require.NoError(t, err)

		view, err := svc.DeleteProduct(ctx, product.ID)
		require.NoError(t, err)

		assert.Equal(t, int64(0), view.Cart.NumItems)
		assertMoney(t, "0.00", view.Cart.Subtotal)
		assertMoney(t, "0.00", view.Cart.Taxes)
		assertMoney(t, "0.00", view.Cart.Total)
		assert.Empty(t, view.Lines)

		_, err = store.Checkouts().FindByUserID(ctx, user.ID)
		assert.Error(t, err)
	})

	t.Run("missing line", func(t *testing.T) {
		store, svc := newCartHarness()
		user, _ := store.seedUser("a@example.com")
		product := store.seedProduct("Maple Syrup", "100.00", 10, 5)

		_, err := svc.DeleteProduct(userContext(user), product.ID)
		assert.ErrorIs(t, err, ErrLineNotRemoved)
	})
}

func TestCartService_GetCart(t *testing.T) {
	store, svc := newCartHarness()
	user, _ := store.seedUser("a@example.com")
	product := store.seedProduct("Maple Syrup", "100.00", 10, 5)
	ctx := userContext(user)

	_, err := svc.AddProduct(ctx, product.ID)
	require.NoError(t, err)

	view, err := svc.GetCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, view.Cart.UserID)
	require.Len(t, view.Lines, 1)
	assertMoney(t, "90.00", view.Lines[0].LineTotal)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dstanley/maplecart/internal/billing"
	"github.com/dstanley/maplecart/internal/domain"
	"github.com/dstanley/maplecart/internal/events"
	"github.com/dstanley/maplecart/internal/ledger"
	"github.com/dstanley/maplecart/internal/repository"
	"github.com/dstanley/maplecart/internal/telemetry"
)

// OrderService turns a completed checkout into a permanent order and
// serves order history.
type OrderService interface {
	// Commit charges the on-file card for the cart total, then runs the
	// order transaction: snapshot the cart and addresses into an order,
	// decrement inventory, reset the cart, clean up the single-use
	// alternate address, and delete the checkout session. The database
	// writes are a single atomic unit; a failure after capture triggers
	// a refund attempt.
	Commit(ctx context.Context) (*domain.OrderDetail, error)

	// List returns the user's orders, newest first by id.
	List(ctx context.Context) ([]domain.Order, error)

	// Get returns one of the user's orders with its lines.
	Get(ctx context.Context, orderID int64) (*domain.OrderDetail, error)
}

type orderService struct {
	store    repository.Store
	ledger   *ledger.Ledger
	locks    *UserLocks
	provider billing.Provider
	events   events.Publisher
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
	currency string
}

// NewOrderService creates an OrderService. The UserLocks instance must
// be shared with the cart and checkout services.
func NewOrderService(
	store repository.Store,
	l *ledger.Ledger,
	locks *UserLocks,
	provider billing.Provider,
	publisher events.Publisher,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
	currency string,
) OrderService {
	return &orderService{
		store:    store,
		ledger:   l,
		locks:    locks,
		provider: provider,
		events:   publisher,
		metrics:  metrics,
		logger:   logger,
		currency: currency,
	}
}

func (s *orderService) Commit(ctx context.Context) (*domain.OrderDetail, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	session, err := s.store.Checkouts().FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCheckoutNotFound
		}
		return nil, domain.Internal(err, "order.commit", "failed to load checkout session")
	}
	if !session.ReadyToCommit() {
		return nil, ErrCheckoutIncomplete
	}

	cart, err := s.store.Carts().FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, domain.Internal(err, "order.commit", "failed to load cart")
	}
	if cart.NumItems == 0 {
		return nil, ErrEmptyCart
	}

	card, err := s.store.PaymentCards().FindByID(ctx, *session.PaymentCardID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentCardNotFound
		}
		return nil, domain.Internal(err, "order.commit", "failed to load payment card")
	}

	orderNumber := newOrderNumber()

	// Capture payment before opening the transaction: the charge is the
	// one step that cannot be rolled back by the database, so it runs
	// first and gets refunded if anything after it fails.
	charge, err := s.provider.ChargeCard(ctx, billing.ChargeParams{
		CustomerRef:    card.ProviderCustomerRef,
		CardRef:        card.ProviderCardRef,
		Amount:         cart.Total,
		Currency:       s.currency,
		IdempotencyKey: orderNumber,
		Description:    "Order " + orderNumber,
	})
	if err != nil {
		s.metrics.PaymentFailed.Inc()
		s.logger.Warn("payment capture failed",
			slog.Int64("user_id", userID), slog.String("error", err.Error()))
		return nil, domain.WrapError(err, domain.EPAYMENT, "order.commit", "Payment was declined or could not be processed")
	}

	var detail *domain.OrderDetail
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		detail, err = s.commitTx(ctx, tx, userID, session, orderNumber, card, charge.Ref)
		return err
	})
	if err != nil {
		if refundErr := s.provider.Refund(ctx, charge.Ref); refundErr != nil {
			s.logger.Error("refund after failed order transaction",
				slog.Int64("user_id", userID),
				slog.String("charge_ref", charge.Ref),
				slog.String("error", refundErr.Error()))
		}
		return nil, err
	}

	s.metrics.OrdersCreated.Inc()
	total, _ := detail.Order.Total.Float64()
	s.metrics.OrderValue.Observe(total)
	s.metrics.OrderItemCount.Observe(float64(detail.Order.NumItems))

	if err := s.events.PublishOrderCreated(ctx, events.OrderCreated{
		OrderID:     detail.Order.ID,
		OrderNumber: detail.Order.Number,
		UserID:      userID,
		NumItems:    detail.Order.NumItems,
		Total:       detail.Order.Total,
		CreatedAt:   detail.Order.CreatedAt,
	}); err != nil {
		// Best effort only. The order is already durable.
		s.logger.Warn("order event publish failed",
			slog.Int64("order_id", detail.Order.ID), slog.String("error", err.Error()))
	}

	s.logger.Info("order committed",
		slog.Int64("user_id", userID),
		slog.Int64("order_id", detail.Order.ID),
		slog.String("order_number", detail.Order.Number),
		slog.String("total", detail.Order.Total.String()))
	return detail, nil
}

// commitTx is the atomic portion of Commit. Every write here commits or
// rolls back together.
func (s *orderService) commitTx(
	ctx context.Context,
	tx repository.Store,
	userID int64,
	session domain.CheckoutSession,
	orderNumber string,
	card domain.PaymentCard,
	chargeRef string,
) (*domain.OrderDetail, error) {
	// The cart row lock is the database half of the per-user
	// serialization boundary.
	cart, err := tx.Carts().Lock(ctx, session.CartID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, domain.Internal(err, "order.commit", "failed to lock cart")
	}
	if cart.NumItems == 0 {
		return nil, ErrEmptyCart
	}

	shipping, err := tx.Addresses().FindByID(ctx, userID, *session.ShippingAddressID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, domain.Internal(err, "order.commit", "failed to load shipping address")
	}
	billingAddr, err := tx.Addresses().FindByID(ctx, userID, *session.BillingAddressID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, domain.Internal(err, "order.commit", "failed to load billing address")
	}

	lines, err := tx.CartLines().ListByCartID(ctx, cart.ID)
	if err != nil {
		return nil, domain.Internal(err, "order.commit", "failed to list cart lines")
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	orderLines := make([]domain.OrderLine, 0, len(lines))
	for _, line := range lines {
		product, err := tx.Products().FindByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, domain.Internal(err, "order.commit", "failed to load product")
		}

		sold, err := tx.Products().SellUnits(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return nil, domain.Internal(err, "order.commit", "failed to decrement inventory")
		}
		if !sold {
			return nil, ErrInsufficientInventory
		}

		orderLines = append(orderLines, domain.OrderLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   ledger.RoundCurrency(ledger.DiscountedUnitPrice(product)),
			Quantity:    line.Quantity,
		})
	}

	order, err := tx.Orders().Create(ctx, domain.Order{
		Number:          orderNumber,
		UserID:          userID,
		NumItems:        cart.NumItems,
		Subtotal:        cart.Subtotal,
		Taxes:           cart.Taxes,
		Total:           cart.Total,
		ShippingAddress: domain.SnapshotAddress(shipping),
		BillingAddress:  domain.SnapshotAddress(billingAddr),
		CardBrand:       card.Brand,
		CardLast4:       card.Last4,
		ChargeRef:       chargeRef,
	})
	if err != nil {
		return nil, domain.Internal(err, "order.commit", "failed to create order")
	}

	if err := tx.Orders().CreateLines(ctx, order.ID, orderLines); err != nil {
		return nil, domain.Internal(err, "order.commit", "failed to create order lines")
	}

	// Reset the cart in place. The row outlives the order so the user
	// keeps shopping without re-registration.
	if err := tx.CartLines().DeleteAllByCartID(ctx, cart.ID); err != nil {
		return nil, domain.Internal(err, "order.commit", "failed to clear cart lines")
	}
	zero := s.ledger.Derive(decimal.Zero)
	if err := tx.Carts().UpdateAggregates(ctx, cart.ID, 0, zero.Subtotal, zero.Taxes, zero.Total); err != nil {
		return nil, domain.Internal(err, "order.commit", "failed to reset cart aggregates")
	}

	// A one-off alternate shipping address is single-use.
	if shipping.Type == domain.AddressAlternateShipping {
		if err := tx.Addresses().Delete(ctx, shipping.ID); err != nil {
			return nil, domain.Internal(err, "order.commit", "failed to delete alternate address")
		}
	}

	if err := tx.Checkouts().Delete(ctx, session.ID); err != nil {
		return nil, domain.Internal(err, "order.commit", "failed to delete checkout session")
	}

	for i := range orderLines {
		orderLines[i].OrderID = order.ID
	}
	return &domain.OrderDetail{Order: order, Lines: orderLines}, nil
}

func (s *orderService) List(ctx context.Context) ([]domain.Order, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.store.Orders().ListByUserID(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, "order.list", "failed to list orders")
	}
	return orders, nil
}

func (s *orderService) Get(ctx context.Context, orderID int64) (*domain.OrderDetail, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	order, err := s.store.Orders().FindByID(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, domain.Internal(err, "order.get", "failed to load order")
	}
	lines, err := s.store.Orders().LinesByOrderID(ctx, order.ID)
	if err != nil {
		return nil, domain.Internal(err, "order.get", "failed to load order lines")
	}
	return &domain.OrderDetail{Order: order, Lines: lines}, nil
}

// newOrderNumber returns a short human-quotable order reference. It
// doubles as the charge idempotency key.
func newOrderNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("ORD-%s", strings.ToUpper(raw[:12]))
}

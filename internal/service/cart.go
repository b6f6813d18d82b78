package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dstanley/maplecart/internal/domain"
	"github.com/dstanley/maplecart/internal/ledger"
	"github.com/dstanley/maplecart/internal/repository"
	"github.com/dstanley/maplecart/internal/telemetry"
)

// CartService maintains the authenticated user's cart through add,
// decrement, and delete operations, keeping the aggregate fields
// (num_items, subtotal, taxes, total) consistent with the line items
// after every mutation.
type CartService interface {
	// GetCart returns the user's cart with its lines.
	GetCart(ctx context.Context) (*domain.CartView, error)

	// AddProduct upserts a line for the product (insert quantity 1 or
	// increment) and adds one discounted unit price to the subtotal.
	// Any open checkout session resets to the shipping stage.
	AddProduct(ctx context.Context, productID int64) (*domain.CartView, error)

	// DecrementProduct reduces a line's quantity by one. A line at
	// quantity 1 is deliberately NOT removed: the operation fails with
	// ErrLineNotRemoved so a "remove one" action can never empty a line
	// by accident. Use DeleteProduct for full removal.
	DecrementProduct(ctx context.Context, productID int64) (*domain.CartView, error)

	// DeleteProduct removes the entire line regardless of quantity.
	DeleteProduct(ctx context.Context, productID int64) (*domain.CartView, error)
}

type cartService struct {
	store   repository.Store
	ledger  *ledger.Ledger
	locks   *UserLocks
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

// NewCartService creates a CartService. The UserLocks instance must be
// shared with the checkout and order services.
func NewCartService(store repository.Store, l *ledger.Ledger, locks *UserLocks, metrics *telemetry.BusinessMetrics, logger *slog.Logger) CartService {
	return &cartService{
		store:   store,
		ledger:  l,
		locks:   locks,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *cartService) GetCart(ctx context.Context) (*domain.CartView, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	cart, err := s.store.Carts().FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, domain.Internal(err, "cart.get", "failed to load cart")
	}

	return s.buildView(ctx, s.store, cart)
}

func (s *cartService) AddProduct(ctx context.Context, productID int64) (*domain.CartView, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	var view *domain.CartView
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		cart, err := tx.Carts().FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCartNotFound
			}
			return domain.Internal(err, "cart.add", "failed to load cart")
		}

		product, err := tx.Products().FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrProductNotFound
			}
			return domain.Internal(err, "cart.add", "failed to load product")
		}
		if product.Inventory == 0 {
			return ErrOutOfStock
		}

		var currentQty int64
		line, err := tx.CartLines().FindByCartAndProduct(ctx, cart.ID, productID)
		switch {
		case err == nil:
			currentQty = line.Quantity
		case errors.Is(err, repository.ErrNotFound):
			currentQty = 0
		default:
			return domain.Internal(err, "cart.add", "failed to load cart line")
		}
		if currentQty >= product.Inventory {
			return ErrInsufficientInventory
		}

		if err := tx.CartLines().Upsert(ctx, cart.ID, productID, 1); err != nil {
			return domain.Internal(err, "cart.add", "failed to upsert cart line")
		}

		unit := ledger.DiscountedUnitPrice(product)
		agg := s.ledger.Derive(cart.Subtotal.Add(unit))
		cart.NumItems++
		cart.Subtotal, cart.Taxes, cart.Total = agg.Subtotal, agg.Taxes, agg.Total

		if err := tx.Carts().UpdateAggregates(ctx, cart.ID, cart.NumItems, cart.Subtotal, cart.Taxes, cart.Total); err != nil {
			return domain.Internal(err, "cart.add", "failed to update cart aggregates")
		}

		if err := s.invalidateCheckout(ctx, tx, userID, cart.NumItems); err != nil {
			return err
		}

		view, err = s.buildView(ctx, tx, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.observeMutation("add", view)
	return view, nil
}

func (s *cartService) DecrementProduct(ctx context.Context, productID int64) (*domain.CartView, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	var view *domain.CartView
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		cart, line, product, err := s.loadLine(ctx, tx, userID, productID, "cart.decrement")
		if err != nil {
			return err
		}

		// A quantity-1 line stays put: decrement is "remove one", and
		// removing the last unit must be an explicit DeleteProduct.
		if line.Quantity == 1 {
			return ErrLineNotRemoved
		}

		if err := tx.CartLines().UpdateQuantity(ctx, line.ID, line.Quantity-1); err != nil {
			return domain.Internal(err, "cart.decrement", "failed to update cart line")
		}

		unit := ledger.DiscountedUnitPrice(product)
		agg := s.ledger.Derive(cart.Subtotal.Sub(unit))
		cart.NumItems--
		cart.Subtotal, cart.Taxes, cart.Total = agg.Subtotal, agg.Taxes, agg.Total

		if err := tx.Carts().UpdateAggregates(ctx, cart.ID, cart.NumItems, cart.Subtotal, cart.Taxes, cart.Total); err != nil {
			return domain.Internal(err, "cart.decrement", "failed to update cart aggregates")
		}

		if err := s.invalidateCheckout(ctx, tx, userID, cart.NumItems); err != nil {
			return err
		}

		view, err = s.buildView(ctx, tx, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.observeMutation("decrement", view)
	return view, nil
}

func (s *cartService) DeleteProduct(ctx context.Context, productID int64) (*domain.CartView, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	var view *domain.CartView
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		cart, line, product, err := s.loadLine(ctx, tx, userID, productID, "cart.delete")
		if err != nil {
			return err
		}

		if err := tx.CartLines().Delete(ctx, line.ID); err != nil {
			return domain.Internal(err, "cart.delete", "failed to delete cart line")
		}

		cart.NumItems -= line.Quantity
		if cart.NumItems <= 0 {
			// Emptying the cart zeroes the aggregates outright, so no
			// rounding residue can survive an empty cart.
			cart.NumItems = 0
			agg := s.ledger.Derive(decimal.Zero)
			cart.Subtotal, cart.Taxes, cart.Total = agg.Subtotal, agg.Taxes, agg.Total
		} else {
			lineTotal := ledger.LineTotal(ledger.DiscountedUnitPrice(product), line.Quantity)
			agg := s.ledger.Derive(cart.Subtotal.Sub(lineTotal))
			cart.Subtotal, cart.Taxes, cart.Total = agg.Subtotal, agg.Taxes, agg.Total
		}

		if err := tx.Carts().UpdateAggregates(ctx, cart.ID, cart.NumItems, cart.Subtotal, cart.Taxes, cart.Total); err != nil {
			return domain.Internal(err, "cart.delete", "failed to update cart aggregates")
		}

		if err := s.invalidateCheckout(ctx, tx, userID, cart.NumItems); err != nil {
			return err
		}

		view, err = s.buildView(ctx, tx, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.observeMutation("delete", view)
	return view, nil
}

// loadLine fetches the cart, the target line, and its product. Absent
// lines surface as ErrLineNotRemoved for both decrement and delete.
func (s *cartService) loadLine(ctx context.Context, tx repository.Store, userID, productID int64, op string) (domain.Cart, domain.CartLine, domain.Product, error) {
	var (
		cart    domain.Cart
		line    domain.CartLine
		product domain.Product
	)

	cart, err := tx.Carts().FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return cart, line, product, ErrCartNotFound
		}
		return cart, line, product, domain.Internal(err, op, "failed to load cart")
	}

	line, err = tx.CartLines().FindByCartAndProduct(ctx, cart.ID, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return cart, line, product, ErrLineNotRemoved
		}
		return cart, line, product, domain.Internal(err, op, "failed to load cart line")
	}

	product, err = tx.Products().FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return cart, line, product, ErrProductNotFound
		}
		return cart, line, product, domain.Internal(err, op, "failed to load product")
	}

	return cart, line, product, nil
}

// invalidateCheckout applies the cart-mutation side effects to any open
// checkout session: reset to the shipping stage, or delete the session
// when the cart just became empty (no valid checkout over an empty
// cart).
func (s *cartService) invalidateCheckout(ctx context.Context, tx repository.Store, userID, numItems int64) error {
	session, err := tx.Checkouts().FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return domain.Internal(err, "cart.invalidate_checkout", "failed to load checkout session")
	}

	if numItems == 0 {
		if err := tx.Checkouts().Delete(ctx, session.ID); err != nil {
			return domain.Internal(err, "cart.invalidate_checkout", "failed to delete checkout session")
		}
		s.metrics.CheckoutAbandoned.Inc()
		s.logger.Info("checkout session deleted: cart emptied",
			slog.Int64("user_id", userID), slog.Int64("session_id", session.ID))
		return nil
	}

	if session.Stage != domain.StageShipping {
		if err := tx.Checkouts().UpdateStage(ctx, session.ID, domain.StageShipping); err != nil {
			return domain.Internal(err, "cart.invalidate_checkout", "failed to reset checkout stage")
		}
		s.metrics.CheckoutStageResets.Inc()
	}
	return nil
}

// buildView assembles the cart response: lines joined with product
// names and discounted unit prices, rounded for display.
func (s *cartService) buildView(ctx context.Context, tx repository.Store, cart domain.Cart) (*domain.CartView, error) {
	lines, err := tx.CartLines().ListByCartID(ctx, cart.ID)
	if err != nil {
		return nil, domain.Internal(err, "cart.view", "failed to list cart lines")
	}

	views := make([]domain.CartLineView, 0, len(lines))
	for _, l := range lines {
		product, err := tx.Products().FindByID(ctx, l.ProductID)
		if err != nil {
			return nil, domain.Internal(err, "cart.view", "failed to load product")
		}

		unit := ledger.DiscountedUnitPrice(product)
		views = append(views, domain.CartLineView{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   ledger.RoundCurrency(unit),
			Quantity:    l.Quantity,
			LineTotal:   ledger.LineTotal(unit, l.Quantity),
		})
	}

	return &domain.CartView{Cart: cart, Lines: views}, nil
}

func (s *cartService) observeMutation(op string, view *domain.CartView) {
	s.metrics.CartMutations.WithLabelValues(op).Inc()
	if view != nil {
		total, _ := view.Cart.Total.Float64()
		s.metrics.CartValue.Observe(total)
	}
}

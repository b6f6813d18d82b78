package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dstanley/maplecart/internal/domain"
	"github.com/dstanley/maplecart/internal/repository"
	"github.com/dstanley/maplecart/internal/telemetry"
)

// CheckoutService drives the shipping, payment, review, confirmation
// progression. The state machine permits arbitrary stage jumps; order
// commit alone enforces the completion preconditions.
type CheckoutService interface {
	// Start opens a session at the shipping stage. Requires a non-empty
	// cart and no session already open for the user.
	Start(ctx context.Context) (*domain.CheckoutSession, error)

	// Get returns the user's open session.
	Get(ctx context.Context) (*domain.CheckoutSession, error)

	// SetShippingAddress binds a primary- or alternate-shipping address
	// to the session. Choosing the primary while a one-off alternate
	// exists deletes the alternate.
	SetShippingAddress(ctx context.Context, addressID int64) (*domain.CheckoutSession, error)

	// SetBillingAddress binds a billing or primary-shipping address.
	SetBillingAddress(ctx context.Context, addressID int64) (*domain.CheckoutSession, error)

	// SetPaymentCard binds the user's on-file card to the session.
	SetPaymentCard(ctx context.Context) (*domain.CheckoutSession, error)

	// SetStage moves the session to the named stage.
	SetStage(ctx context.Context, stage string) (*domain.CheckoutSession, error)

	// Abandon deletes the open session.
	Abandon(ctx context.Context) error
}

type checkoutService struct {
	store   repository.Store
	locks   *UserLocks
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

// NewCheckoutService creates a CheckoutService sharing the cart
// service's UserLocks.
func NewCheckoutService(store repository.Store, locks *UserLocks, metrics *telemetry.BusinessMetrics, logger *slog.Logger) CheckoutService {
	return &checkoutService{
		store:   store,
		locks:   locks,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *checkoutService) Start(ctx context.Context) (*domain.CheckoutSession, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	var session domain.CheckoutSession
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		cart, err := tx.Carts().FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCartNotFound
			}
			return domain.Internal(err, "checkout.start", "failed to load cart")
		}
		if cart.NumItems == 0 {
			return ErrEmptyCart
		}

		if _, err := tx.Checkouts().FindByUserID(ctx, userID); err == nil {
			return ErrCheckoutExists
		} else if !errors.Is(err, repository.ErrNotFound) {
			return domain.Internal(err, "checkout.start", "failed to load checkout session")
		}

		session, err = tx.Checkouts().Create(ctx, userID, cart.ID)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrCheckoutExists
			}
			return domain.Internal(err, "checkout.start", "failed to create checkout session")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.CheckoutStarted.Inc()
	s.logger.Info("checkout started",
		slog.Int64("user_id", userID), slog.Int64("session_id", session.ID))
	return &session, nil
}

func (s *checkoutService) Get(ctx context.Context) (*domain.CheckoutSession, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	session, err := s.store.Checkouts().FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCheckoutNotFound
		}
		return nil, domain.Internal(err, "checkout.get", "failed to load checkout session")
	}
	return &session, nil
}

func (s *checkoutService) SetShippingAddress(ctx context.Context, addressID int64) (*domain.CheckoutSession, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	var session domain.CheckoutSession
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		session, err = s.openSession(ctx, tx, userID, "checkout.shipping")
		if err != nil {
			return err
		}

		address, err := tx.Addresses().FindByID(ctx, userID, addressID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAddressNotFound
			}
			return domain.Internal(err, "checkout.shipping", "failed to load address")
		}
		if address.Type != domain.AddressPrimaryShipping && address.Type != domain.AddressAlternateShipping {
			return ErrAddressTypeMismatch
		}

		if err := tx.Checkouts().UpdateShippingAddress(ctx, session.ID, address.ID); err != nil {
			return domain.Internal(err, "checkout.shipping", "failed to set shipping address")
		}
		session.ShippingAddressID = &address.ID

		// Reverting to the primary discards the one-off alternate.
		if address.Type == domain.AddressPrimaryShipping {
			alt, err := tx.Addresses().FindByType(ctx, userID, domain.AddressAlternateShipping)
			switch {
			case err == nil:
				if err := tx.Addresses().Delete(ctx, alt.ID); err != nil {
					return domain.Internal(err, "checkout.shipping", "failed to delete alternate address")
				}
			case errors.Is(err, repository.ErrNotFound):
			default:
				return domain.Internal(err, "checkout.shipping", "failed to look up alternate address")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *checkoutService) SetBillingAddress(ctx context.Context, addressID int64) (*domain.CheckoutSession, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	var session domain.CheckoutSession
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		session, err = s.openSession(ctx, tx, userID, "checkout.billing")
		if err != nil {
			return err
		}

		address, err := tx.Addresses().FindByID(ctx, userID, addressID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAddressNotFound
			}
			return domain.Internal(err, "checkout.billing", "failed to load address")
		}
		if address.Type != domain.AddressBilling && address.Type != domain.AddressPrimaryShipping {
			return ErrAddressTypeMismatch
		}

		if err := tx.Checkouts().UpdateBillingAddress(ctx, session.ID, address.ID); err != nil {
			return domain.Internal(err, "checkout.billing", "failed to set billing address")
		}
		session.BillingAddressID = &address.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *checkoutService) SetPaymentCard(ctx context.Context) (*domain.CheckoutSession, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	var session domain.CheckoutSession
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		session, err = s.openSession(ctx, tx, userID, "checkout.payment")
		if err != nil {
			return err
		}

		card, err := tx.PaymentCards().FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPaymentCardNotFound
			}
			return domain.Internal(err, "checkout.payment", "failed to load payment card")
		}

		if err := tx.Checkouts().UpdatePaymentCard(ctx, session.ID, card.ID); err != nil {
			return domain.Internal(err, "checkout.payment", "failed to set payment card")
		}
		session.PaymentCardID = &card.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *checkoutService) SetStage(ctx context.Context, stage string) (*domain.CheckoutSession, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	parsed, ok := domain.ParseCheckoutStage(stage)
	if !ok {
		return nil, ErrInvalidStage
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	var session domain.CheckoutSession
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		session, err = s.openSession(ctx, tx, userID, "checkout.stage")
		if err != nil {
			return err
		}
		if err := tx.Checkouts().UpdateStage(ctx, session.ID, parsed); err != nil {
			return domain.Internal(err, "checkout.stage", "failed to update stage")
		}
		session.Stage = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *checkoutService) Abandon(ctx context.Context) error {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		session, err := s.openSession(ctx, tx, userID, "checkout.abandon")
		if err != nil {
			return err
		}
		if err := tx.Checkouts().Delete(ctx, session.ID); err != nil {
			return domain.Internal(err, "checkout.abandon", "failed to delete checkout session")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.CheckoutAbandoned.Inc()
	s.logger.Info("checkout abandoned", slog.Int64("user_id", userID))
	return nil
}

func (s *checkoutService) openSession(ctx context.Context, tx repository.Store, userID int64, op string) (domain.CheckoutSession, error) {
	session, err := tx.Checkouts().FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return session, ErrCheckoutNotFound
		}
		return session, domain.Internal(err, op, "failed to load checkout session")
	}
	return session, nil
}

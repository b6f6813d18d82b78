package service

import (
	"context"
	"errors"

	"github.com/dstanley/maplecart/internal/domain"
	"github.com/dstanley/maplecart/internal/repository"
)

// PaymentService manages the user's single on-file card. Only provider
// references and display fields pass through here; raw card data never
// reaches this system.
type PaymentService interface {
	// Save stores or replaces the user's card.
	Save(ctx context.Context, card domain.PaymentCard) (*domain.PaymentCard, error)

	// Get returns the card on file.
	Get(ctx context.Context) (*domain.PaymentCard, error)
}

type paymentService struct {
	store repository.Store
	locks *UserLocks
}

func NewPaymentService(store repository.Store, locks *UserLocks) PaymentService {
	return &paymentService{store: store, locks: locks}
}

func (s *paymentService) Save(ctx context.Context, card domain.PaymentCard) (*domain.PaymentCard, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	card.UserID = userID
	saved, err := s.store.PaymentCards().Upsert(ctx, card)
	if err != nil {
		return nil, domain.Internal(err, "payment.save", "failed to save payment card")
	}
	return &saved, nil
}

func (s *paymentService) Get(ctx context.Context) (*domain.PaymentCard, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	card, err := s.store.PaymentCards().FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentCardNotFound
		}
		return nil, domain.Internal(err, "payment.get", "failed to load payment card")
	}
	return &card, nil
}

package service

import (
	"context"
	"errors"

	"github.com/dstanley/maplecart/internal/domain"
	"github.com/dstanley/maplecart/internal/repository"
)

// AddressService manages the authenticated user's address book. One
// address per type; orders keep their own snapshot copies, so edits
// here never touch history.
type AddressService interface {
	Create(ctx context.Context, a domain.Address) (*domain.Address, error)
	List(ctx context.Context) ([]domain.Address, error)
	Delete(ctx context.Context, addressID int64) error
}

type addressService struct {
	store repository.Store
	locks *UserLocks
}

func NewAddressService(store repository.Store, locks *UserLocks) AddressService {
	return &addressService{store: store, locks: locks}
}

func (s *addressService) Create(ctx context.Context, a domain.Address) (*domain.Address, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !domain.ValidAddressType(a.Type) {
		return nil, ErrInvalidAddressType
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	a.UserID = userID
	created, err := s.store.Addresses().Create(ctx, a)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAddressExists
		}
		return nil, domain.Internal(err, "address.create", "failed to create address")
	}
	return &created, nil
}

func (s *addressService) List(ctx context.Context) ([]domain.Address, error) {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	addresses, err := s.store.Addresses().ListByUserID(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, "address.list", "failed to list addresses")
	}
	return addresses, nil
}

func (s *addressService) Delete(ctx context.Context, addressID int64) error {
	userID, err := domain.UserIDFromContext(ctx)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	// Ownership check before the delete; the id alone is guessable.
	if _, err := s.store.Addresses().FindByID(ctx, userID, addressID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAddressNotFound
		}
		return domain.Internal(err, "address.delete", "failed to load address")
	}
	if err := s.store.Addresses().Delete(ctx, addressID); err != nil {
		return domain.Internal(err, "address.delete", "failed to delete address")
	}
	return nil
}

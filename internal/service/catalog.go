package service

import (
	"context"
	"errors"

	"github.com/dstanley/maplecart/internal/domain"
	"github.com/dstanley/maplecart/internal/repository"
)

// CatalogService serves read-only product data.
type CatalogService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, productID int64) (*domain.Product, error)
}

type catalogService struct {
	store repository.Store
}

func NewCatalogService(store repository.Store) CatalogService {
	return &catalogService{store: store}
}

func (s *catalogService) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.store.Products().List(ctx)
	if err != nil {
		return nil, domain.Internal(err, "catalog.list", "failed to list products")
	}
	return products, nil
}

func (s *catalogService) Get(ctx context.Context, productID int64) (*domain.Product, error) {
	product, err := s.store.Products().FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, domain.Internal(err, "catalog.get", "failed to load product")
	}
	return &product, nil
}

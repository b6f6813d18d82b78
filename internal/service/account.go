package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dstanley/maplecart/internal/domain"
	"github.com/dstanley/maplecart/internal/repository"
)

// AccountService registers users and serves the authenticated profile.
type AccountService interface {
	// Register creates the user and their cart in one transaction. The
	// cart exists for the account's whole lifetime; it is reset, never
	// deleted.
	Register(ctx context.Context, email, name string) (*domain.User, error)

	// Me returns the authenticated user's profile.
	Me(ctx context.Context) (*domain.User, error)
}

type accountService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewAccountService(store repository.Store, logger *slog.Logger) AccountService {
	return &accountService{store: store, logger: logger}
}

func (s *accountService) Register(ctx context.Context, email, name string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user domain.User
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		user, err = tx.Users().Create(ctx, email, name)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrEmailTaken
			}
			return domain.Internal(err, "account.register", "failed to create user")
		}
		if _, err := tx.Carts().Create(ctx, user.ID); err != nil {
			return domain.Internal(err, "account.register", "failed to create cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.Int64("user_id", user.ID))
	return &user, nil
}

func (s *accountService) Me(ctx context.Context) (*domain.User, error) {
	user := domain.UserFromContext(ctx)
	if user == nil {
		return nil, domain.Unauthorized("account.me", "authentication required")
	}
	return user, nil
}

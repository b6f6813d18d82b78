package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dstanley/maplecart/internal/domain"
	"github.com/dstanley/maplecart/internal/repository"
)

type checkoutRepo struct {
	db DBTX
}

const checkoutColumns = `id, user_id, cart_id, stage, shipping_address_id, billing_address_id, payment_card_id, created_at, updated_at`

func scanCheckout(row pgx.Row) (domain.CheckoutSession, error) {
	var s domain.CheckoutSession
	err := row.Scan(&s.ID, &s.UserID, &s.CartID, &s.Stage,
		&s.ShippingAddressID, &s.BillingAddressID, &s.PaymentCardID,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return domain.CheckoutSession{}, mapErr(err)
	}
	return s, nil
}

func (r *checkoutRepo) Create(ctx context.Context, userID, cartID int64) (domain.CheckoutSession, error) {
	s, err := scanCheckout(r.db.QueryRow(ctx,
		`INSERT INTO checkout_sessions (user_id, cart_id, stage)
		 VALUES ($1, $2, $3)
		 RETURNING `+checkoutColumns,
		userID, cartID, domain.StageShipping))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.CheckoutSession{}, fmt.Errorf("%w: checkout session already open", repository.ErrConflict)
		}
		return domain.CheckoutSession{}, err
	}
	return s, nil
}

func (r *checkoutRepo) FindByUserID(ctx context.Context, userID int64) (domain.CheckoutSession, error) {
	return scanCheckout(r.db.QueryRow(ctx,
		`SELECT `+checkoutColumns+` FROM checkout_sessions WHERE user_id = $1`, userID))
}

func (r *checkoutRepo) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows)
	}
	return nil
}

func (r *checkoutRepo) UpdateStage(ctx context.Context, sessionID int64, stage domain.CheckoutStage) error {
	return r.exec(ctx,
		`UPDATE checkout_sessions SET stage = $2, updated_at = now() WHERE id = $1`,
		sessionID, stage)
}

func (r *checkoutRepo) UpdateShippingAddress(ctx context.Context, sessionID, addressID int64) error {
	return r.exec(ctx,
		`UPDATE checkout_sessions SET shipping_address_id = $2, updated_at = now() WHERE id = $1`,
		sessionID, addressID)
}

func (r *checkoutRepo) UpdateBillingAddress(ctx context.Context, sessionID, addressID int64) error {
	return r.exec(ctx,
		`UPDATE checkout_sessions SET billing_address_id = $2, updated_at = now() WHERE id = $1`,
		sessionID, addressID)
}

func (r *checkoutRepo) UpdatePaymentCard(ctx context.Context, sessionID, cardID int64) error {
	return r.exec(ctx,
		`UPDATE checkout_sessions SET payment_card_id = $2, updated_at = now() WHERE id = $1`,
		sessionID, cardID)
}

func (r *checkoutRepo) Delete(ctx context.Context, sessionID int64) error {
	return r.exec(ctx, `DELETE FROM checkout_sessions WHERE id = $1`, sessionID)
}

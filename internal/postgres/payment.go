package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/dstanley/maplecart/internal/domain"
)

type paymentCardRepo struct {
	db DBTX
}

const paymentCardColumns = `id, user_id, provider_customer_ref, provider_card_ref, brand, last4, exp_month, exp_year, created_at, updated_at`

func scanPaymentCard(row pgx.Row) (domain.PaymentCard, error) {
	var c domain.PaymentCard
	err := row.Scan(&c.ID, &c.UserID, &c.ProviderCustomerRef, &c.ProviderCardRef,
		&c.Brand, &c.Last4, &c.ExpMonth, &c.ExpYear, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.PaymentCard{}, mapErr(err)
	}
	return c, nil
}

// Upsert replaces the user's on-file card. One card per user.
func (r *paymentCardRepo) Upsert(ctx context.Context, card domain.PaymentCard) (domain.PaymentCard, error) {
	return scanPaymentCard(r.db.QueryRow(ctx,
		`INSERT INTO payment_cards (user_id, provider_customer_ref, provider_card_ref, brand, last4, exp_month, exp_year)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id)
		 DO UPDATE SET provider_customer_ref = EXCLUDED.provider_customer_ref,
		               provider_card_ref = EXCLUDED.provider_card_ref,
		               brand = EXCLUDED.brand,
		               last4 = EXCLUDED.last4,
		               exp_month = EXCLUDED.exp_month,
		               exp_year = EXCLUDED.exp_year,
		               updated_at = now()
		 RETURNING `+paymentCardColumns,
		card.UserID, card.ProviderCustomerRef, card.ProviderCardRef,
		card.Brand, card.Last4, card.ExpMonth, card.ExpYear))
}

func (r *paymentCardRepo) FindByUserID(ctx context.Context, userID int64) (domain.PaymentCard, error) {
	return scanPaymentCard(r.db.QueryRow(ctx,
		`SELECT `+paymentCardColumns+` FROM payment_cards WHERE user_id = $1`, userID))
}

func (r *paymentCardRepo) FindByID(ctx context.Context, cardID int64) (domain.PaymentCard, error) {
	return scanPaymentCard(r.db.QueryRow(ctx,
		`SELECT `+paymentCardColumns+` FROM payment_cards WHERE id = $1`, cardID))
}

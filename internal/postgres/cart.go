package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/dstanley/maplecart/internal/domain"
)

type cartRepo struct {
	db DBTX
}

const cartColumns = `id, user_id, num_items, subtotal, taxes, total, created_at, updated_at`

func scanCart(row pgx.Row) (domain.Cart, error) {
	var (
		c                      domain.Cart
		subtotal, taxes, total pgtype.Numeric
	)
	err := row.Scan(&c.ID, &c.UserID, &c.NumItems, &subtotal, &taxes, &total,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Cart{}, mapErr(err)
	}
	if c.Subtotal, err = numericToDecimal(subtotal); err != nil {
		return domain.Cart{}, err
	}
	if c.Taxes, err = numericToDecimal(taxes); err != nil {
		return domain.Cart{}, err
	}
	if c.Total, err = numericToDecimal(total); err != nil {
		return domain.Cart{}, err
	}
	return c, nil
}

func (r *cartRepo) Create(ctx context.Context, userID int64) (domain.Cart, error) {
	return scanCart(r.db.QueryRow(ctx,
		`INSERT INTO carts (user_id, num_items, subtotal, taxes, total)
		 VALUES ($1, 0, 0, 0, 0)
		 RETURNING `+cartColumns, userID))
}

func (r *cartRepo) FindByUserID(ctx context.Context, userID int64) (domain.Cart, error) {
	return scanCart(r.db.QueryRow(ctx,
		`SELECT `+cartColumns+` FROM carts WHERE user_id = $1`, userID))
}

// Lock takes a row-level lock for the remainder of the surrounding
// transaction. Concurrent commits for the same cart serialize here.
func (r *cartRepo) Lock(ctx context.Context, cartID int64) (domain.Cart, error) {
	return scanCart(r.db.QueryRow(ctx,
		`SELECT `+cartColumns+` FROM carts WHERE id = $1 FOR UPDATE`, cartID))
}

func (r *cartRepo) UpdateAggregates(ctx context.Context, cartID int64, numItems int64, subtotal, taxes, total decimal.Decimal) error {
	_, err := r.db.Exec(ctx,
		`UPDATE carts
		 SET num_items = $2, subtotal = $3, taxes = $4, total = $5, updated_at = now()
		 WHERE id = $1`,
		cartID, numItems, decimalToNumeric(subtotal), decimalToNumeric(taxes), decimalToNumeric(total),
	)
	return err
}

type cartLineRepo struct {
	db DBTX
}

const cartLineColumns = `id, cart_id, product_id, quantity, created_at, updated_at`

func scanCartLine(row pgx.Row) (domain.CartLine, error) {
	var l domain.CartLine
	err := row.Scan(&l.ID, &l.CartID, &l.ProductID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return domain.CartLine{}, mapErr(err)
	}
	return l, nil
}

func (r *cartLineRepo) ListByCartID(ctx context.Context, cartID int64) ([]domain.CartLine, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+cartLineColumns+` FROM cart_lines WHERE cart_id = $1 ORDER BY id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		l, err := scanCartLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *cartLineRepo) FindByCartAndProduct(ctx context.Context, cartID, productID int64) (domain.CartLine, error) {
	return scanCartLine(r.db.QueryRow(ctx,
		`SELECT `+cartLineColumns+` FROM cart_lines WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID))
}

func (r *cartLineRepo) Upsert(ctx context.Context, cartID, productID, deltaQty int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO cart_lines (cart_id, product_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (cart_id, product_id)
		 DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity, updated_at = now()`,
		cartID, productID, deltaQty,
	)
	return err
}

func (r *cartLineRepo) UpdateQuantity(ctx context.Context, lineID, quantity int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE cart_lines SET quantity = $2, updated_at = now() WHERE id = $1`,
		lineID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows)
	}
	return nil
}

func (r *cartLineRepo) Delete(ctx context.Context, lineID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_lines WHERE id = $1`, lineID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows)
	}
	return nil
}

func (r *cartLineRepo) DeleteAllByCartID(ctx context.Context, cartID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID)
	return err
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dstanley/maplecart/internal/domain"
)

type orderRepo struct {
	db DBTX
}

const orderColumns = `id, number, user_id, num_items, subtotal, taxes, total,
	ship_full_name, ship_line1, ship_line2, ship_city, ship_region, ship_postal_code, ship_country,
	bill_full_name, bill_line1, bill_line2, bill_city, bill_region, bill_postal_code, bill_country,
	card_brand, card_last4, charge_ref, created_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o                      domain.Order
		subtotal, taxes, total pgtype.Numeric
	)
	err := row.Scan(&o.ID, &o.Number, &o.UserID, &o.NumItems, &subtotal, &taxes, &total,
		&o.ShippingAddress.FullName, &o.ShippingAddress.Line1, &o.ShippingAddress.Line2,
		&o.ShippingAddress.City, &o.ShippingAddress.Region, &o.ShippingAddress.PostalCode,
		&o.ShippingAddress.Country,
		&o.BillingAddress.FullName, &o.BillingAddress.Line1, &o.BillingAddress.Line2,
		&o.BillingAddress.City, &o.BillingAddress.Region, &o.BillingAddress.PostalCode,
		&o.BillingAddress.Country,
		&o.CardBrand, &o.CardLast4, &o.ChargeRef, &o.CreatedAt)
	if err != nil {
		return domain.Order{}, mapErr(err)
	}
	if o.Subtotal, err = numericToDecimal(subtotal); err != nil {
		return domain.Order{}, err
	}
	if o.Taxes, err = numericToDecimal(taxes); err != nil {
		return domain.Order{}, err
	}
	if o.Total, err = numericToDecimal(total); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *orderRepo) Create(ctx context.Context, o domain.Order) (domain.Order, error) {
	return scanOrder(r.db.QueryRow(ctx,
		`INSERT INTO orders (number, user_id, num_items, subtotal, taxes, total,
		     ship_full_name, ship_line1, ship_line2, ship_city, ship_region, ship_postal_code, ship_country,
		     bill_full_name, bill_line1, bill_line2, bill_city, bill_region, bill_postal_code, bill_country,
		     card_brand, card_last4, charge_ref)
		 VALUES ($1, $2, $3, $4, $5, $6,
		     $7, $8, $9, $10, $11, $12, $13,
		     $14, $15, $16, $17, $18, $19, $20,
		     $21, $22, $23)
		 RETURNING `+orderColumns,
		o.Number, o.UserID, o.NumItems,
		decimalToNumeric(o.Subtotal), decimalToNumeric(o.Taxes), decimalToNumeric(o.Total),
		o.ShippingAddress.FullName, o.ShippingAddress.Line1, o.ShippingAddress.Line2,
		o.ShippingAddress.City, o.ShippingAddress.Region, o.ShippingAddress.PostalCode,
		o.ShippingAddress.Country,
		o.BillingAddress.FullName, o.BillingAddress.Line1, o.BillingAddress.Line2,
		o.BillingAddress.City, o.BillingAddress.Region, o.BillingAddress.PostalCode,
		o.BillingAddress.Country,
		o.CardBrand, o.CardLast4, o.ChargeRef))
}

func (r *orderRepo) CreateLines(ctx context.Context, orderID int64, lines []domain.OrderLine) error {
	for _, l := range lines {
		_, err := r.db.Exec(ctx,
			`INSERT INTO order_lines (order_id, product_id, product_name, unit_price, quantity)
			 VALUES ($1, $2, $3, $4, $5)`,
			orderID, l.ProductID, l.ProductName, decimalToNumeric(l.UnitPrice), l.Quantity)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, userID, orderID int64) (domain.Order, error) {
	return scanOrder(r.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID))
}

func (r *orderRepo) LinesByOrderID(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, order_id, product_id, product_name, unit_price, quantity
		 FROM order_lines WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var (
			l     domain.OrderLine
			price pgtype.Numeric
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &price, &l.Quantity); err != nil {
			return nil, err
		}
		if l.UnitPrice, err = numericToDecimal(price); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *orderRepo) ListByUserID(ctx context.Context, userID int64) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

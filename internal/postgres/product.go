package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dstanley/maplecart/internal/domain"
)

type productRepo struct {
	db DBTX
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p     domain.Product
		price pgtype.Numeric
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.DiscountPercent,
		&p.Inventory, &p.TotalSold, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, mapErr(err)
	}
	if p.Price, err = numericToDecimal(price); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

const productColumns = `id, name, description, price, discount_percent, inventory, total_sold, created_at, updated_at`

func (r *productRepo) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	return scanProduct(r.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

func (r *productRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// SellUnits is guarded by the WHERE clause: zero rows affected means the
// decrement would have driven inventory negative, and nothing changes.
func (r *productRepo) SellUnits(ctx context.Context, productID, qty int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE products
		 SET inventory = inventory - $2,
		     total_sold = total_sold + $2,
		     updated_at = now()
		 WHERE id = $1 AND inventory >= $2`,
		productID, qty,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

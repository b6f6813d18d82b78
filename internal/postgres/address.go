package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dstanley/maplecart/internal/domain"
	"github.com/dstanley/maplecart/internal/repository"
)

type addressRepo struct {
	db DBTX
}

const addressColumns = `id, user_id, type, full_name, line1, line2, city, region, postal_code, country, created_at, updated_at`

func scanAddress(row pgx.Row) (domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.FullName, &a.Line1, &a.Line2,
		&a.City, &a.Region, &a.PostalCode, &a.Country, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Address{}, mapErr(err)
	}
	return a, nil
}

func (r *addressRepo) Create(ctx context.Context, a domain.Address) (domain.Address, error) {
	created, err := scanAddress(r.db.QueryRow(ctx,
		`INSERT INTO addresses (user_id, type, full_name, line1, line2, city, region, postal_code, country)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+addressColumns,
		a.UserID, a.Type, a.FullName, a.Line1, a.Line2, a.City, a.Region, a.PostalCode, a.Country))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Address{}, fmt.Errorf("%w: %s address already exists", repository.ErrConflict, a.Type)
		}
		return domain.Address{}, err
	}
	return created, nil
}

func (r *addressRepo) FindByID(ctx context.Context, userID, addressID int64) (domain.Address, error) {
	return scanAddress(r.db.QueryRow(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`,
		addressID, userID))
}

func (r *addressRepo) FindByType(ctx context.Context, userID int64, t domain.AddressType) (domain.Address, error) {
	return scanAddress(r.db.QueryRow(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 AND type = $2`,
		userID, t))
}

func (r *addressRepo) ListByUserID(ctx context.Context, userID int64) ([]domain.Address, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addrs []domain.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	return addrs, rows.Err()
}

func (r *addressRepo) Delete(ctx context.Context, addressID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, addressID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows)
	}
	return nil
}

// Package postgres implements the repository interfaces on PostgreSQL
// using pgx. All money columns are DECIMAL(7,2); values cross the wire
// as pgtype.Numeric and are converted to shopspring decimals at the
// boundary.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dstanley/maplecart/internal/repository"
)

// DBTX is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// letting every query run against the pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements repository.Store.
type Store struct {
	pool *pgxpool.Pool
	db   DBTX
	inTx bool
}

// Compile-time check that Store implements repository.Store.
var _ repository.Store = (*Store)(nil)

// NewStore creates a pool-backed Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

func (s *Store) Users() repository.UserRepository               { return &userRepo{db: s.db} }
func (s *Store) Products() repository.ProductRepository         { return &productRepo{db: s.db} }
func (s *Store) Carts() repository.CartRepository               { return &cartRepo{db: s.db} }
func (s *Store) CartLines() repository.CartLineRepository       { return &cartLineRepo{db: s.db} }
func (s *Store) Addresses() repository.AddressRepository        { return &addressRepo{db: s.db} }
func (s *Store) PaymentCards() repository.PaymentCardRepository { return &paymentCardRepo{db: s.db} }
func (s *Store) Checkouts() repository.CheckoutRepository       { return &checkoutRepo{db: s.db} }
func (s *Store) Orders() repository.OrderRepository             { return &orderRepo{db: s.db} }

// WithinTx runs fn inside a database transaction. Calls from a Store
// already bound to a transaction reuse it, so transactional helpers
// compose without nesting.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(&Store{pool: s.pool, db: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

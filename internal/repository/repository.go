// Package repository defines the persistence interfaces consumed by the
// service layer. Implementations live in internal/postgres; service
// tests substitute in-memory fakes.
package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/dstanley/maplecart/internal/domain"
)

var (
	// ErrNotFound is returned by lookups when no row matches. The
	// service layer translates it into the appropriate domain error.
	ErrNotFound = errors.New("repository: not found")

	// ErrConflict is returned when a write violates a uniqueness
	// constraint (duplicate email, second primary address, etc.).
	ErrConflict = errors.New("repository: conflict")
)

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, email, name string) (domain.User, error)
	FindByID(ctx context.Context, id int64) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

// ProductRepository persists catalog entries. Inventory and total-sold
// mutation happens only inside the order-commit transaction.
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)

	// SellUnits atomically decrements inventory and increments the
	// total-sold counter for qty units. Returns false (and no change)
	// if inventory would go negative.
	SellUnits(ctx context.Context, productID, qty int64) (bool, error)
}

// CartRepository persists cart rows and their aggregates.
type CartRepository interface {
	Create(ctx context.Context, userID int64) (domain.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (domain.Cart, error)

	// Lock acquires a row-level lock on the cart for the duration of
	// the surrounding transaction and returns the current row.
	Lock(ctx context.Context, cartID int64) (domain.Cart, error)

	UpdateAggregates(ctx context.Context, cartID int64, numItems int64, subtotal, taxes, total decimal.Decimal) error
}

// CartLineRepository persists the (cart, product) quantity pairs.
type CartLineRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]domain.CartLine, error)
	FindByCartAndProduct(ctx context.Context, cartID, productID int64) (domain.CartLine, error)

	// Upsert inserts a new line with the given quantity or adds it to
	// an existing line's quantity.
	Upsert(ctx context.Context, cartID, productID, deltaQty int64) error

	UpdateQuantity(ctx context.Context, lineID, quantity int64) error
	Delete(ctx context.Context, lineID int64) error
	DeleteAllByCartID(ctx context.Context, cartID int64) error
}

// AddressRepository persists the address book.
type AddressRepository interface {
	Create(ctx context.Context, a domain.Address) (domain.Address, error)
	FindByID(ctx context.Context, userID, addressID int64) (domain.Address, error)
	FindByType(ctx context.Context, userID int64, t domain.AddressType) (domain.Address, error)
	ListByUserID(ctx context.Context, userID int64) ([]domain.Address, error)
	Delete(ctx context.Context, addressID int64) error
}

// PaymentCardRepository persists the user's on-file card.
type PaymentCardRepository interface {
	Upsert(ctx context.Context, card domain.PaymentCard) (domain.PaymentCard, error)
	FindByUserID(ctx context.Context, userID int64) (domain.PaymentCard, error)
	FindByID(ctx context.Context, cardID int64) (domain.PaymentCard, error)
}

// CheckoutRepository persists checkout sessions.
type CheckoutRepository interface {
	Create(ctx context.Context, userID, cartID int64) (domain.CheckoutSession, error)
	FindByUserID(ctx context.Context, userID int64) (domain.CheckoutSession, error)
	UpdateStage(ctx context.Context, sessionID int64, stage domain.CheckoutStage) error
	UpdateShippingAddress(ctx context.Context, sessionID, addressID int64) error
	UpdateBillingAddress(ctx context.Context, sessionID, addressID int64) error
	UpdatePaymentCard(ctx context.Context, sessionID, cardID int64) error
	Delete(ctx context.Context, sessionID int64) error
}

// OrderRepository persists committed orders.
type OrderRepository interface {
	Create(ctx context.Context, o domain.Order) (domain.Order, error)
	CreateLines(ctx context.Context, orderID int64, lines []domain.OrderLine) error
	FindByID(ctx context.Context, userID, orderID int64) (domain.Order, error)
	LinesByOrderID(ctx context.Context, orderID int64) ([]domain.OrderLine, error)
	ListByUserID(ctx context.Context, userID int64) ([]domain.Order, error)
}

// Store aggregates every repository behind one handle. A Store bound to
// a transaction is handed to WithinTx callbacks; all writes made through
// it commit or roll back together.
type Store interface {
	Users() UserRepository
	Products() ProductRepository
	Carts() CartRepository
	CartLines() CartLineRepository
	Addresses() AddressRepository
	PaymentCards() PaymentCardRepository
	Checkouts() CheckoutRepository
	Orders() OrderRepository

	// WithinTx runs fn inside a database transaction. The Store passed
	// to fn routes every repository call through that transaction. If
	// fn returns an error the transaction rolls back and the error is
	// returned unchanged.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

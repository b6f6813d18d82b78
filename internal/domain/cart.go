package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart holds a user's open shopping cart. One cart per user, created at
// registration. The row persists across checkout cycles: committing an
// order resets the aggregates to zero instead of deleting the cart.
//
// Aggregate invariants, maintained by the cart engine after every
// mutation:
//
//	Subtotal == sum(line.Quantity * discounted unit price)
//	Taxes    == round2(Subtotal * tax rate)
//	Total    == round2(Subtotal) + round2(Taxes)
type Cart struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	NumItems  int64           `json:"num_items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Taxes     decimal.Decimal `json:"taxes"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CartLine is one (product, quantity) pair within a cart. The
// (CartID, ProductID) pair is unique; quantity is always >= 1.
type CartLine struct {
	ID        int64     `json:"id"`
	CartID    int64     `json:"cart_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartView is the cart plus its lines, as returned to callers.
type CartView struct {
	Cart  Cart           `json:"cart"`
	Lines []CartLineView `json:"lines"`
}

// CartLineView joins a cart line with the product fields callers need
// to render it, including the per-unit discounted price.
type CartLineView struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int64           `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

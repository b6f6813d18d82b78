package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderAddress is the immutable snapshot of an address embedded in an
// order row. It carries no foreign key to the live address-book entry.
type OrderAddress struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// SnapshotAddress copies the mutable address-book fields into an
// immutable order snapshot.
func SnapshotAddress(a Address) OrderAddress {
	return OrderAddress{
		FullName:   a.FullName,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Region:     a.Region,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// Order is the permanent record created atomically from a checkout
// session and its cart. Aggregates, addresses, and the card display
// fields are copied at commit time and never change afterwards.
type Order struct {
	ID              int64           `json:"id"`
	Number          string          `json:"number"`
	UserID          int64           `json:"user_id"`
	NumItems        int64           `json:"num_items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Taxes           decimal.Decimal `json:"taxes"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress OrderAddress    `json:"shipping_address"`
	BillingAddress  OrderAddress    `json:"billing_address"`
	CardBrand       string          `json:"card_brand"`
	CardLast4       string          `json:"card_last4"`
	ChargeRef       string          `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
}

// OrderLine snapshots one cart line at commit time. Name and unit price
// are copied so later catalog edits cannot alter the order.
type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int64           `json:"quantity"`
}

// OrderDetail aggregates an order with its lines.
type OrderDetail struct {
	Order Order       `json:"order"`
	Lines []OrderLine `json:"lines"`
}

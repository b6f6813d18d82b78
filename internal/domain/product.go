package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. The cart engine treats products as
// read-only; inventory and total-sold only change at order commit.
type Product struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent int32           `json:"discount_percent"` // 0-100
	Inventory       int64           `json:"inventory"`
	TotalSold       int64           `json:"total_sold"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

package domain

import "time"

// PaymentCard is the user's on-file card. Only opaque provider
// references and display fields are stored; raw card data never touches
// this system. One card per user.
type PaymentCard struct {
	ID                  int64     `json:"id"`
	UserID              int64     `json:"user_id"`
	ProviderCustomerRef string    `json:"-"`
	ProviderCardRef     string    `json:"-"`
	Brand               string    `json:"brand"`
	Last4               string    `json:"last4"`
	ExpMonth            int32     `json:"exp_month"`
	ExpYear             int32     `json:"exp_year"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

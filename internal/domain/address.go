package domain

import "time"

// AddressType classifies entries in a user's address book.
type AddressType string

const (
	// AddressPrimaryShipping is the user's default shipping address.
	// At most one per user.
	AddressPrimaryShipping AddressType = "primary_shipping"

	// AddressAlternateShipping is a one-off shipping address. At most
	// one per user; deleted when the user reverts to primary during
	// checkout, or after the order that used it commits.
	AddressAlternateShipping AddressType = "alternate_shipping"

	// AddressBilling is the user's billing address.
	AddressBilling AddressType = "billing"
)

// ValidAddressType reports whether t is a known address type.
func ValidAddressType(t AddressType) bool {
	switch t {
	case AddressPrimaryShipping, AddressAlternateShipping, AddressBilling:
		return true
	}
	return false
}

// Address is a typed address-book record scoped to a user. Orders never
// reference these rows: they embed an immutable snapshot copy instead,
// so editing the address book cannot rewrite history.
type Address struct {
	ID         int64       `json:"id"`
	UserID     int64       `json:"user_id"`
	Type       AddressType `json:"type"`
	FullName   string      `json:"full_name"`
	Line1      string      `json:"line1"`
	Line2      string      `json:"line2"`
	City       string      `json:"city"`
	Region     string      `json:"region"`
	PostalCode string      `json:"postal_code"`
	Country    string      `json:"country"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

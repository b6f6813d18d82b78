package service

import (
	"github.com/dstanley/maplecart/internal/domain"
)

// Lookup errors - domain.ENOTFOUND
var (
	ErrUserNotFound        = domain.Errorf(domain.ENOTFOUND, "", "User not found")
	ErrProductNotFound     = domain.Errorf(domain.ENOTFOUND, "", "Product not found")
	ErrCartNotFound        = domain.Errorf(domain.ENOTFOUND, "", "Cart not found")
	ErrAddressNotFound     = domain.Errorf(domain.ENOTFOUND, "", "Address not found")
	ErrPaymentCardNotFound = domain.Errorf(domain.ENOTFOUND, "", "No payment card on file")
	ErrCheckoutNotFound    = domain.Errorf(domain.ENOTFOUND, "", "No open checkout session")
	ErrOrderNotFound       = domain.Errorf(domain.ENOTFOUND, "", "Order not found")
)

// Validation errors - domain.EINVALID
var (
	ErrEmptyCart           = domain.Errorf(domain.EINVALID, "", "Cart is empty")
	ErrLineNotRemoved      = domain.Errorf(domain.EINVALID, "", "Cart line was not removed")
	ErrInvalidStage        = domain.Errorf(domain.EINVALID, "", "Invalid checkout stage")
	ErrInvalidAddressType  = domain.Errorf(domain.EINVALID, "", "Invalid address type")
	ErrAddressTypeMismatch = domain.Errorf(domain.EINVALID, "", "Address type not allowed for this checkout field")
	ErrCheckoutIncomplete  = domain.Errorf(domain.EINVALID, "", "Checkout session is not ready to commit")
)

// Conflict errors - domain.ECONFLICT
var (
	ErrEmailTaken            = domain.Errorf(domain.ECONFLICT, "", "Email already registered")
	ErrCheckoutExists        = domain.Errorf(domain.ECONFLICT, "", "Checkout session already open")
	ErrAddressExists         = domain.Errorf(domain.ECONFLICT, "", "An address of this type already exists")
	ErrOutOfStock            = domain.Errorf(domain.ECONFLICT, "", "Product is out of stock")
	ErrInsufficientInventory = domain.Errorf(domain.ECONFLICT, "", "Requested quantity exceeds available inventory")
)

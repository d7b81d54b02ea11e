package domain

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")

	ErrProductNotFound = errors.New("product not found")
	ErrSizeNotFound    = errors.New("size not found")
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrOrderNotFound   = errors.New("order not found")

	// ErrOutOfStock is a reservation losing the stock sufficiency check.
	ErrOutOfStock = errors.New("out of stock")

	ErrEmptyCart = errors.New("cart is empty")

	// ErrProductUnavailable means a size entry was removed from the catalog
	// while the item sat in a cart; surfaced at checkout.
	ErrProductUnavailable = errors.New("product no longer available")

	ErrInvalidSignature = errors.New("invalid signature")

	ErrInvalidTransition = errors.New("invalid status transition")
)

// IsNotFound reports whether err is any of the absent-entity errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrSizeNotFound) ||
		errors.Is(err, ErrCartNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}

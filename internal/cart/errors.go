package cart

import "errors"

var (
	ErrCartIDMissing  = errors.New("cart id missing")
	ErrCartChanged    = errors.New("cart changed while the request was in flight")
	ErrInvalidProduct = errors.New("invalid product")
	ErrItemNotInCart  = errors.New("item not in cart")
)

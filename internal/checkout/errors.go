package checkout

import "errors"

var (
	ErrLoginRequired  = errors.New("login required to place an order")
	ErrRoleNotAllowed = errors.New("this account cannot place orders")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrUnknownPayment = errors.New("unknown payment method")
	ErrMissingInput   = errors.New("order input is required")
)

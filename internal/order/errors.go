package order

import "errors"

var (
	ErrCustomersOnly      = errors.New("order history is only available to customers")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrUnknownOrderStatus = errors.New("unknown order status")
)

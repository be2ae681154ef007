package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fekuna/freshmarket-storefront/internal/model"
)

type UseCase interface {
	// Restore loads the persisted snapshot. It never contacts the backend.
	Restore(ctx context.Context) error
	// Reconcile replaces the snapshot with the backend's view of the cart.
	Reconcile(ctx context.Context) error

	AddToCart(ctx context.Context, product model.Product) error
	RemoveFromCart(ctx context.Context, productID int64) error
	UpdateQuantity(ctx context.Context, productID int64, quantity int) error
	ClearCart(ctx context.Context) error
	FlushPendingDeletes(ctx context.Context) error

	Items() []model.CartLine
	CartID() *int64
	TotalItems() int
	TotalPrice() decimal.Decimal
}

package cart

import (
	"context"

	"github.com/fekuna/freshmarket-storefront/internal/cart/dto"
	"github.com/fekuna/freshmarket-storefront/internal/model"
)

// Repository is the remote cart service.
type Repository interface {
	CreateCart(ctx context.Context, input *dto.CreateCartInput) (int64, error)
	UpsertItem(ctx context.Context, input *dto.UpsertItemInput) error
	DeleteItem(ctx context.Context, cartID, productID int64) error
	DeleteCart(ctx context.Context, cartID int64) error
	FetchCart(ctx context.Context, cartID int64) (*dto.RemoteCart, error)
}

// ProductResolver hydrates products the local snapshot does not know about.
type ProductResolver interface {
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
}

package catalog

import (
	"context"

	"github.com/fekuna/freshmarket-storefront/internal/catalog/dto"
)

type Repository interface {
	FindCategories(ctx context.Context) ([]dto.RemoteCategory, error)
	FindProducts(ctx context.Context, category string) ([]dto.RemoteProduct, error)
	FindProduct(ctx context.Context, id int64) (*dto.RemoteProduct, error)
}

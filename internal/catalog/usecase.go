package catalog

import (
	"context"

	"github.com/fekuna/freshmarket-storefront/internal/catalog/dto"
	"github.com/fekuna/freshmarket-storefront/internal/model"
)

type UseCase interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListProducts(ctx context.Context, category string) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	// Browse loads every category's products and applies filter. Categories
	// that fail to load are skipped; their errors are joined into err.
	Browse(ctx context.Context, filter *dto.BrowseFilter) ([]model.Product, error)
}

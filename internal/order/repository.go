package order

import (
	"context"

	"github.com/fekuna/freshmarket-storefront/internal/model"
)

type Repository interface {
	FindAll(ctx context.Context) ([]model.Order, error)
	SaveAll(ctx context.Context, orders []model.Order) error
}

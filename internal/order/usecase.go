package order

import (
	"context"

	"github.com/fekuna/freshmarket-storefront/internal/model"
	"github.com/fekuna/freshmarket-storefront/internal/order/dto"
)

type UseCase interface {
	Record(ctx context.Context, order *model.Order) error
	// MyOrders lists the orders of the acting customer, newest first.
	MyOrders(ctx context.Context) ([]model.Order, error)
	ApplyStatus(ctx context.Context, event *dto.OrderStatusChangedEvent) error
}

package checkout

import (
	"context"

	"github.com/fekuna/freshmarket-storefront/internal/checkout/dto"
	"github.com/fekuna/freshmarket-storefront/internal/model"
)

type UseCase interface {
	Quote() dto.Quote
	PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*model.Order, error)
}

// Publisher receives order events. *broker.KafkaProducer satisfies it.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// OrderRecorder keeps placed orders for later tracking. order.UseCase satisfies it.
type OrderRecorder interface {
	Record(ctx context.Context, order *model.Order) error
}

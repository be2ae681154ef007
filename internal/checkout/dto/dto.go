package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fekuna/freshmarket-storefront/internal/model"
)

type Quote struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

type PlaceOrderInput struct {
	Delivery      model.DeliveryInfo
	PaymentMethod model.PaymentMethod
}

const EventOrderCreated = "OrderCreated"

type OrderCreatedEvent struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Payload   model.Order `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

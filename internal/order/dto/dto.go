package dto

import (
	"time"

	"github.com/fekuna/freshmarket-storefront/internal/model"
)

const EventOrderStatusChanged = "OrderStatusChanged"

type OrderStatusChangedEvent struct {
	EventID   string        `json:"event_id"`
	EventType string        `json:"event_type"`
	Payload   StatusPayload `json:"payload"`
	Timestamp time.Time     `json:"timestamp"`
}

type StatusPayload struct {
	OrderID string            `json:"order_id"`
	Status  model.OrderStatus `json:"status"`
}

package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fekuna/freshmarket-storefront/internal/order"
	"github.com/fekuna/freshmarket-storefront/internal/order/dto"
	"github.com/fekuna/freshmarket-storefront/pkg/broker"
	"github.com/fekuna/freshmarket-storefront/pkg/logger"
)

// OrderStatusListener applies OrderStatusChanged events from the backend to
// the local order history.
type OrderStatusListener struct {
	consumer *broker.KafkaConsumer
	uc       order.UseCase
	logger   logger.ZapLogger

	retryDelay time.Duration
}

func NewOrderStatusListener(consumer *broker.KafkaConsumer, uc order.UseCase, logger logger.ZapLogger) *OrderStatusListener {
	return &OrderStatusListener{
		consumer:   consumer,
		uc:         uc,
		logger:     logger,
		retryDelay: time.Second,
	}
}

// Start blocks until ctx is done.
func (l *OrderStatusListener) Start(ctx context.Context) {
	l.logger.Info("Starting order status listener")
	for {
		msg, err := l.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Stopping order status listener")
				return
			}
			l.logger.Error("Failed to read kafka message", zap.Error(err))
			select {
			case <-time.After(l.retryDelay):
			case <-ctx.Done():
				l.logger.Info("Stopping order status listener")
				return
			}
			continue
		}
		l.processMessage(ctx, msg.Value)
	}
}

func (l *OrderStatusListener) processMessage(ctx context.Context, value []byte) {
	var event dto.OrderStatusChangedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != dto.EventOrderStatusChanged {
		return
	}

	err := l.uc.ApplyStatus(ctx, &event)
	switch {
	case err == nil:
	case errors.Is(err, order.ErrOrderNotFound):
		// orders placed from another device share the topic
		l.logger.Debug("Ignoring status of unknown order", zap.String("order_id", event.Payload.OrderID))
	default:
		l.logger.Error("Failed to apply order status",
			zap.String("order_id", event.Payload.OrderID),
			zap.String("status", string(event.Payload.Status)),
			zap.Error(err),
		)
	}
}

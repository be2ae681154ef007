package usecase

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/fekuna/freshmarket-storefront/internal/auth"
	"github.com/fekuna/freshmarket-storefront/internal/model"
	"github.com/fekuna/freshmarket-storefront/internal/notify"
	"github.com/fekuna/freshmarket-storefront/internal/order"
	"github.com/fekuna/freshmarket-storefront/internal/order/dto"
	"github.com/fekuna/freshmarket-storefront/pkg/logger"
)

var statusMessages = map[model.OrderStatus]string{
	model.OrderPending:    "OrderStatusPending",
	model.OrderProcessing: "OrderStatusProcessing",
	model.OrderDelivered:  "OrderStatusDelivered",
	model.OrderCancelled:  "OrderStatusCancelled",
}

// transitions lists where each status may move. Delivered and cancelled are final.
var transitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderPending:    {model.OrderProcessing, model.OrderDelivered, model.OrderCancelled},
	model.OrderProcessing: {model.OrderDelivered, model.OrderCancelled},
}

type orderUseCase struct {
	repo    order.Repository
	session auth.SessionProvider
	msg     *notify.Messenger
	logger  logger.ZapLogger

	// serializes read-modify-write of the history
	mu sync.Mutex
}

func NewOrderUseCase(repo order.Repository, session auth.SessionProvider, msg *notify.Messenger, log logger.ZapLogger) order.UseCase {
	return &orderUseCase{
		repo:    repo,
		session: session,
		msg:     msg,
		logger:  log,
	}
}

// Record appends a placed order. Recording the same id twice is a no-op.
func (uc *orderUseCase) Record(ctx context.Context, o *model.Order) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	orders, err := uc.repo.FindAll(ctx)
	if err != nil {
		return err
	}
	if slices.ContainsFunc(orders, func(existing model.Order) bool { return existing.ID == o.ID }) {
		return nil
	}
	if err := uc.repo.SaveAll(ctx, append(orders, *o)); err != nil {
		return err
	}
	uc.logger.Debug("order recorded", zap.String("order_id", o.ID))
	return nil
}

func (uc *orderUseCase) MyOrders(ctx context.Context) ([]model.Order, error) {
	customer, ok := auth.IdentityFrom(ctx, uc.session).(model.Customer)
	if !ok {
		uc.msg.Failure(ctx, "ErrorTitle", "OrdersCustomersOnly", nil)
		return nil, order.ErrCustomersOnly
	}

	uc.mu.Lock()
	orders, err := uc.repo.FindAll(ctx)
	uc.mu.Unlock()
	if err != nil {
		return nil, err
	}

	mine := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if o.CustomerID == customer.ID {
			mine = append(mine, o)
		}
	}
	slices.SortStableFunc(mine, func(a, b model.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return mine, nil
}

// ApplyStatus moves a recorded order to the status carried by event.
// Redelivered events that repeat the current status are accepted silently.
func (uc *orderUseCase) ApplyStatus(ctx context.Context, event *dto.OrderStatusChangedEvent) error {
	next := event.Payload.Status
	if _, known := statusMessages[next]; !known {
		return fmt.Errorf("%w: %q", order.ErrUnknownOrderStatus, next)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	orders, err := uc.repo.FindAll(ctx)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(orders, func(o model.Order) bool { return o.ID == event.Payload.OrderID })
	if idx < 0 {
		return fmt.Errorf("%w: %s", order.ErrOrderNotFound, event.Payload.OrderID)
	}

	current := orders[idx].Status
	if current == next {
		return nil
	}
	if !slices.Contains(transitions[current], next) {
		return fmt.Errorf("%w: %s -> %s", order.ErrInvalidTransition, current, next)
	}

	orders[idx].Status = next
	if err := uc.repo.SaveAll(ctx, orders); err != nil {
		return err
	}

	uc.logger.Info("order status changed",
		zap.String("order_id", event.Payload.OrderID),
		zap.String("from", string(current)),
		zap.String("to", string(next)),
	)
	data := map[string]any{"ID": event.Payload.OrderID, "Status": uc.msg.Text(statusMessages[next], nil)}
	if next == model.OrderCancelled {
		uc.msg.Failure(ctx, "OrderStatusTitle", "OrderStatusDescription", data)
	} else {
		uc.msg.Success(ctx, "OrderStatusTitle", "OrderStatusDescription", data)
	}
	return nil
}

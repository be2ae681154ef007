package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/freshmarket-storefront/internal/auth"
	"github.com/fekuna/freshmarket-storefront/internal/cart"
	"github.com/fekuna/freshmarket-storefront/internal/checkout"
	"github.com/fekuna/freshmarket-storefront/internal/checkout/dto"
	"github.com/fekuna/freshmarket-storefront/internal/model"
	"github.com/fekuna/freshmarket-storefront/internal/notify"
	"github.com/fekuna/freshmarket-storefront/pkg/logger"
)

type Options struct {
	DeliveryFee decimal.Decimal
	// ProcessingDelay simulates the payment round trip.
	ProcessingDelay time.Duration
	StoreID         int64
}

type checkoutUseCase struct {
	cart      cart.UseCase
	session   auth.SessionProvider
	publisher checkout.Publisher
	orders    checkout.OrderRecorder
	msg       *notify.Messenger
	logger    logger.ZapLogger
	opts      Options
	now       func() time.Time
}

// NewCheckoutUseCase wires checkout on top of the cart. publisher and orders
// may be nil.
func NewCheckoutUseCase(
	cartUC cart.UseCase,
	session auth.SessionProvider,
	publisher checkout.Publisher,
	orders checkout.OrderRecorder,
	msg *notify.Messenger,
	log logger.ZapLogger,
	opts Options,
) checkout.UseCase {
	return &checkoutUseCase{
		cart:      cartUC,
		session:   session,
		publisher: publisher,
		orders:    orders,
		msg:       msg,
		logger:    log,
		opts:      opts,
		now:       time.Now,
	}
}

func (uc *checkoutUseCase) Quote() dto.Quote {
	subtotal := uc.cart.TotalPrice()
	return dto.Quote{
		Subtotal:    subtotal,
		DeliveryFee: uc.opts.DeliveryFee,
		Total:       subtotal.Add(uc.opts.DeliveryFee),
	}
}

func (uc *checkoutUseCase) PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*model.Order, error) {
	if input == nil {
		uc.msg.Failure(ctx, "ErrorTitle", "CheckoutPaymentFailedDescription", nil)
		return nil, checkout.ErrMissingInput
	}

	var customer model.Customer
	switch id := auth.IdentityFrom(ctx, uc.session).(type) {
	case model.Customer:
		customer = id
	case model.Guest:
		uc.msg.Failure(ctx, "CheckoutLoginRequiredTitle", "CheckoutLoginRequiredDescription", nil)
		return nil, checkout.ErrLoginRequired
	case model.StoreManager, model.Courier:
		uc.msg.Failure(ctx, "ErrorTitle", "CheckoutRoleNotAllowedDescription", nil)
		return nil, fmt.Errorf("%w: role %s", checkout.ErrRoleNotAllowed, id.Role())
	default:
		uc.msg.Failure(ctx, "CheckoutLoginRequiredTitle", "CheckoutLoginRequiredDescription", nil)
		return nil, checkout.ErrLoginRequired
	}

	switch input.PaymentMethod {
	case model.PaymentCredit, model.PaymentDebit, model.PaymentPix, model.PaymentCash:
	default:
		uc.msg.Failure(ctx, "ErrorTitle", "CheckoutPaymentFailedDescription", nil)
		return nil, fmt.Errorf("%w: %q", checkout.ErrUnknownPayment, input.PaymentMethod)
	}

	lines := uc.cart.Items()
	if len(lines) == 0 {
		uc.msg.Failure(ctx, "ErrorTitle", "CheckoutEmptyCartDescription", nil)
		return nil, checkout.ErrEmptyCart
	}

	quote := uc.Quote()
	order := &model.Order{
		ID:            uuid.New().String(),
		CustomerID:    customer.ID,
		StoreID:       uc.opts.StoreID,
		CartID:        uc.cart.CartID(),
		Items:         make([]model.OrderItem, 0, len(lines)),
		Subtotal:      quote.Subtotal,
		DeliveryFee:   quote.DeliveryFee,
		Total:         quote.Total,
		PaymentMethod: input.PaymentMethod,
		Delivery:      input.Delivery,
		Status:        model.OrderPending,
		CreatedAt:     uc.now(),
	}
	for _, l := range lines {
		order.Items = append(order.Items, model.OrderItem{
			ProductID: l.ID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
	}

	if err := uc.processPayment(ctx); err != nil {
		uc.logger.Warn("payment interrupted", zap.String("order_id", order.ID), zap.Error(err))
		uc.msg.Failure(ctx, "ErrorTitle", "CheckoutPaymentFailedDescription", nil)
		return nil, fmt.Errorf("process payment: %w", err)
	}
	order.Status = model.OrderProcessing

	if uc.orders != nil {
		if err := uc.orders.Record(ctx, order); err != nil {
			uc.logger.Error("failed to record order", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	uc.publish(ctx, order)

	uc.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.Int64("customer_id", order.CustomerID),
		zap.String("total", order.Total.StringFixed(2)),
	)
	uc.msg.Success(ctx, "OrderConfirmedTitle", "OrderConfirmedDescription", nil)

	if err := uc.cart.ClearCart(ctx); err != nil {
		uc.logger.Error("failed to clear cart after order", zap.String("order_id", order.ID), zap.Error(err))
	}
	return order, nil
}

func (uc *checkoutUseCase) processPayment(ctx context.Context) error {
	if uc.opts.ProcessingDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(uc.opts.ProcessingDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// publish emits OrderCreated. The order stands even when the broker is down.
func (uc *checkoutUseCase) publish(ctx context.Context, order *model.Order) {
	if uc.publisher == nil {
		return
	}
	event := dto.OrderCreatedEvent{
		EventID:   uuid.New().String(),
		EventType: dto.EventOrderCreated,
		Payload:   *order,
		Timestamp: uc.now(),
	}
	if err := uc.publisher.PublishJSON(ctx, order.ID, event); err != nil {
		uc.logger.Error("failed to publish order event", zap.String("order_id", order.ID), zap.Error(err))
	}
}

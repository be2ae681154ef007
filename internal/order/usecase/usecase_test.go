package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/freshmarket-storefront/internal/auth"
	"github.com/fekuna/freshmarket-storefront/internal/model"
	"github.com/fekuna/freshmarket-storefront/internal/notify"
	"github.com/fekuna/freshmarket-storefront/internal/order"
	"github.com/fekuna/freshmarket-storefront/internal/order/dto"
	orderRepo "github.com/fekuna/freshmarket-storefront/internal/order/repository"
	storageRepo "github.com/fekuna/freshmarket-storefront/internal/storage/repository"
	"github.com/fekuna/freshmarket-storefront/pkg/i18n"
	"github.com/fekuna/freshmarket-storefront/pkg/logger"
)

type env struct {
	uc    order.UseCase
	store *storageRepo.MemoryRepository
	rec   *notify.Recorder
	loc   *i18n.Localizer
}

func newEnv(identity model.Identity) *env {
	e := &env{store: storageRepo.NewMemoryRepository(), rec: &notify.Recorder{}, loc: i18n.NewLocalizer("en")}
	repo := orderRepo.NewStorageRepository(e.store, logger.NewNop())
	e.uc = NewOrderUseCase(repo, auth.StaticSession{ID: identity}, notify.NewMessenger(e.rec, e.loc), logger.NewNop())
	return e
}

func placed(id string, customerID int64, at time.Time) *model.Order {
	return &model.Order{
		ID:         id,
		CustomerID: customerID,
		Total:      decimal.RequireFromString("10.98"),
		Status:     model.OrderProcessing,
		CreatedAt:  at,
	}
}

func statusEvent(id string, status model.OrderStatus) *dto.OrderStatusChangedEvent {
	return &dto.OrderStatusChangedEvent{
		EventType: dto.EventOrderStatusChanged,
		Payload:   dto.StatusPayload{OrderID: id, Status: status},
	}
}

func TestMyOrdersFiltersAndSorts(t *testing.T) {
	e := newEnv(model.Customer{ID: 7})
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, e.uc.Record(ctx, placed("a", 7, base)))
	require.NoError(t, e.uc.Record(ctx, placed("b", 8, base.Add(time.Hour))))
	require.NoError(t, e.uc.Record(ctx, placed("c", 7, base.Add(2*time.Hour))))
	require.NoError(t, e.uc.Record(ctx, placed("a", 7, base)))

	orders, err := e.uc.MyOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "c", orders[0].ID)
	assert.Equal(t, "a", orders[1].ID)
	assert.Equal(t, "10.98", orders[1].Total.String())
}

func TestRecordRecoversFromCorruptHistory(t *testing.T) {
	e := newEnv(model.Customer{ID: 7})
	ctx := context.Background()
	require.NoError(t, e.store.Set(ctx, orderRepo.KeyOrders, "{not json"))

	require.NoError(t, e.uc.Record(ctx, placed("a", 7, time.Now())))

	orders, err := e.uc.MyOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "a", orders[0].ID)
}

func TestMyOrdersCustomersOnly(t *testing.T) {
	for _, id := range []model.Identity{model.Guest{}, model.Courier{ID: 3}, model.StoreManager{ID: 1, StoreID: 2}} {
		e := newEnv(id)

		_, err := e.uc.MyOrders(context.Background())
		require.ErrorIs(t, err, order.ErrCustomersOnly)
		n, ok := e.rec.Last()
		require.True(t, ok)
		assert.Equal(t, e.loc.T("OrdersCustomersOnly", nil), n.Description)
	}
}

func TestApplyStatus(t *testing.T) {
	e := newEnv(model.Customer{ID: 7})
	ctx := context.Background()
	require.NoError(t, e.uc.Record(ctx, placed("a", 7, time.Now())))

	require.NoError(t, e.uc.ApplyStatus(ctx, statusEvent("a", model.OrderDelivered)))

	orders, err := e.uc.MyOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDelivered, orders[0].Status)

	n, _ := e.rec.Last()
	assert.Equal(t, notify.KindDefault, n.Kind)
	assert.Equal(t, "Order a is now delivered.", n.Description)
}

func TestApplyStatusCancelledIsDestructive(t *testing.T) {
	e := newEnv(model.Customer{ID: 7})
	ctx := context.Background()
	require.NoError(t, e.uc.Record(ctx, placed("a", 7, time.Now())))

	require.NoError(t, e.uc.ApplyStatus(ctx, statusEvent("a", model.OrderCancelled)))
	n, _ := e.rec.Last()
	assert.Equal(t, notify.KindDestructive, n.Kind)
}

func TestApplyStatusRejections(t *testing.T) {
	e := newEnv(model.Customer{ID: 7})
	ctx := context.Background()
	require.NoError(t, e.uc.Record(ctx, placed("a", 7, time.Now())))
	require.NoError(t, e.uc.ApplyStatus(ctx, statusEvent("a", model.OrderDelivered)))
	e.rec.Reset()

	assert.ErrorIs(t, e.uc.ApplyStatus(ctx, statusEvent("missing", model.OrderDelivered)), order.ErrOrderNotFound)
	assert.ErrorIs(t, e.uc.ApplyStatus(ctx, statusEvent("a", model.OrderPending)), order.ErrInvalidTransition)
	assert.ErrorIs(t, e.uc.ApplyStatus(ctx, statusEvent("a", "lost")), order.ErrUnknownOrderStatus)

	// a redelivered event repeats the current status
	assert.NoError(t, e.uc.ApplyStatus(ctx, statusEvent("a", model.OrderDelivered)))
	assert.Empty(t, e.rec.All())
}

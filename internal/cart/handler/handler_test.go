package handler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdto "github.com/fekuna/freshmarket-storefront/internal/catalog/dto"
	checkoutdto "github.com/fekuna/freshmarket-storefront/internal/checkout/dto"
	"github.com/fekuna/freshmarket-storefront/internal/model"
	orderdto "github.com/fekuna/freshmarket-storefront/internal/order/dto"
	"github.com/fekuna/freshmarket-storefront/pkg/logger"
)

type call struct {
	op  string
	id  int64
	qty int
}

type recordingCart struct {
	calls []call
	lines []model.CartLine
}

func (c *recordingCart) Restore(context.Context) error   { return nil }
func (c *recordingCart) Reconcile(context.Context) error { return nil }

func (c *recordingCart) AddToCart(_ context.Context, p model.Product) error {
	c.calls = append(c.calls, call{op: "add", id: p.ID})
	c.lines = append(c.lines, model.CartLine{Product: p, Quantity: 1})
	return nil
}

func (c *recordingCart) RemoveFromCart(_ context.Context, id int64) error {
	c.calls = append(c.calls, call{op: "remove", id: id})
	return nil
}

func (c *recordingCart) UpdateQuantity(_ context.Context, id int64, qty int) error {
	c.calls = append(c.calls, call{op: "qty", id: id, qty: qty})
	return nil
}

func (c *recordingCart) ClearCart(context.Context) error {
	c.calls = append(c.calls, call{op: "clear"})
	c.lines = nil
	return nil
}

func (c *recordingCart) FlushPendingDeletes(context.Context) error { return nil }
func (c *recordingCart) Items() []model.CartLine                   { return c.lines }
func (c *recordingCart) CartID() *int64                            { return nil }

func (c *recordingCart) TotalItems() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *recordingCart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

type stubCatalog struct {
	products []model.Product
	filter   *catalogdto.BrowseFilter
}

func (s *stubCatalog) ListCategories(context.Context) ([]model.Category, error) {
	return []model.Category{{ID: 1, Name: "Frutas"}}, nil
}

func (s *stubCatalog) ListProducts(context.Context, string) ([]model.Product, error) {
	return s.products, nil
}

func (s *stubCatalog) GetProduct(_ context.Context, id int64) (*model.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *stubCatalog) Browse(_ context.Context, filter *catalogdto.BrowseFilter) ([]model.Product, error) {
	s.filter = filter
	return s.products, nil
}

type stubCheckout struct {
	input *checkoutdto.PlaceOrderInput
}

func (s *stubCheckout) Quote() checkoutdto.Quote {
	fee := decimal.RequireFromString("5.99")
	return checkoutdto.Quote{Subtotal: decimal.RequireFromString("4.99"), DeliveryFee: fee, Total: decimal.RequireFromString("10.98")}
}

func (s *stubCheckout) PlaceOrder(_ context.Context, input *checkoutdto.PlaceOrderInput) (*model.Order, error) {
	s.input = input
	return &model.Order{ID: "order-1", Total: decimal.RequireFromString("10.98")}, nil
}

type stubOrders struct {
	orders []model.Order
}

func (s *stubOrders) Record(context.Context, *model.Order) error { return nil }

func (s *stubOrders) MyOrders(context.Context) ([]model.Order, error) { return s.orders, nil }

func (s *stubOrders) ApplyStatus(context.Context, *orderdto.OrderStatusChangedEvent) error {
	return nil
}

type stubSession struct {
	token string
}

func (s *stubSession) SignIn(token string) error {
	s.token = token
	return nil
}

func (s *stubSession) SignOut() { s.token = "" }

type handlerEnv struct {
	h        *StorefrontHandler
	cart     *recordingCart
	catalog  *stubCatalog
	checkout *stubCheckout
	orders   *stubOrders
	session  *stubSession
	out      *bytes.Buffer
}

func newHandlerEnv() *handlerEnv {
	env := &handlerEnv{
		cart: &recordingCart{},
		catalog: &stubCatalog{products: []model.Product{
			{ID: 1, Name: "Banana", Price: decimal.RequireFromString("4.99"), Unit: "kg", Category: "Frutas"},
		}},
		checkout: &stubCheckout{},
		orders:   &stubOrders{},
		session:  &stubSession{},
		out:      &bytes.Buffer{},
	}
	env.h = NewStorefrontHandler(env.cart, env.catalog, env.checkout, env.orders, env.session, env.out, logger.NewNop())
	return env
}

func TestHandleCartCommands(t *testing.T) {
	env := newHandlerEnv()
	ctx := context.Background()

	for _, line := range []string{"add 1", "qty 1 3", "remove 1", "clear"} {
		quit, err := env.h.Handle(ctx, line)
		require.NoError(t, err, line)
		assert.False(t, quit)
	}

	assert.Equal(t, []call{
		{op: "add", id: 1},
		{op: "qty", id: 1, qty: 3},
		{op: "remove", id: 1},
		{op: "clear"},
	}, env.cart.calls)
}

func TestHandleRejectsBadArguments(t *testing.T) {
	env := newHandlerEnv()
	for _, line := range []string{"add", "add x", "add -1", "qty 1", "qty 1 many", "dance", "checkout pix"} {
		_, err := env.h.Handle(context.Background(), line)
		assert.ErrorIs(t, err, errUsage, line)
	}
	assert.Empty(t, env.cart.calls)
}

func TestHandleAddUnknownProduct(t *testing.T) {
	env := newHandlerEnv()

	_, err := env.h.Handle(context.Background(), "add 42")
	require.Error(t, err)
	assert.Contains(t, env.out.String(), "product 42 not found")
	assert.Empty(t, env.cart.calls)
}

func TestHandleProductsBuildsFilter(t *testing.T) {
	env := newHandlerEnv()

	_, err := env.h.Handle(context.Background(), "products Frutas ban ana")
	require.NoError(t, err)
	assert.Equal(t, &catalogdto.BrowseFilter{Category: "Frutas", Search: "ban ana"}, env.catalog.filter)
	assert.Contains(t, env.out.String(), "Banana")
	assert.Contains(t, env.out.String(), "R$ 4,99/kg")

	_, err = env.h.Handle(context.Background(), "products")
	require.NoError(t, err)
	assert.Equal(t, &catalogdto.BrowseFilter{Category: catalogdto.AllCategories}, env.catalog.filter)
}

func TestHandleCheckout(t *testing.T) {
	env := newHandlerEnv()

	_, err := env.h.Handle(context.Background(), "checkout PIX Rua das Flores 10")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPix, env.checkout.input.PaymentMethod)
	assert.Equal(t, "Rua das Flores 10", env.checkout.input.Delivery.Address)
	assert.Contains(t, env.out.String(), "order order-1 total R$ 10,98")
}

func TestHandleOrders(t *testing.T) {
	env := newHandlerEnv()

	_, err := env.h.Handle(context.Background(), "orders")
	require.NoError(t, err)
	assert.Contains(t, env.out.String(), "no orders yet")

	env.orders.orders = []model.Order{{
		ID:        "order-1",
		Status:    model.OrderDelivered,
		Total:     decimal.RequireFromString("15.97"),
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Items: []model.OrderItem{
			{Name: "Banana", Price: decimal.RequireFromString("4.99"), Quantity: 2},
		},
	}}
	env.out.Reset()

	_, err = env.h.Handle(context.Background(), "orders")
	require.NoError(t, err)
	out := env.out.String()
	assert.Contains(t, out, "order-1  01/03/2026  delivered")
	assert.Contains(t, out, "R$ 15,97")
	assert.Contains(t, out, "x2")
	assert.Contains(t, out, "R$ 9,98")
}

func TestHandleSession(t *testing.T) {
	env := newHandlerEnv()

	_, err := env.h.Handle(context.Background(), "login abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", env.session.token)

	_, err = env.h.Handle(context.Background(), "logout")
	require.NoError(t, err)
	assert.Empty(t, env.session.token)
}

func TestRunUntilQuit(t *testing.T) {
	env := newHandlerEnv()
	in := strings.NewReader("categories\nadd 1\ncart\nquit\nadd 1\n")

	require.NoError(t, env.h.Run(context.Background(), in))

	out := env.out.String()
	assert.Contains(t, out, "Todos\nFrutas\n")
	assert.Contains(t, out, "total: R$ 10,98")
	assert.Len(t, env.cart.calls, 1)
}

func TestRunStopsAtEOF(t *testing.T) {
	env := newHandlerEnv()

	require.NoError(t, env.h.Run(context.Background(), strings.NewReader("help\n")))
	assert.Contains(t, env.out.String(), "commands:")
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "R$ 0,00", money(decimal.Zero))
	assert.Equal(t, "R$ 1234,50", money(decimal.RequireFromString("1234.5")))
}

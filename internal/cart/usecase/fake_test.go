package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/freshmarket-storefront/internal/auth"
	"github.com/fekuna/freshmarket-storefront/internal/cart"
	"github.com/fekuna/freshmarket-storefront/internal/cart/dto"
	"github.com/fekuna/freshmarket-storefront/internal/model"
	"github.com/fekuna/freshmarket-storefront/internal/notify"
	"github.com/fekuna/freshmarket-storefront/internal/storage/repository"
	"github.com/fekuna/freshmarket-storefront/pkg/apiclient"
	"github.com/fekuna/freshmarket-storefront/pkg/i18n"
	"github.com/fekuna/freshmarket-storefront/pkg/logger"
)

type deleteCall struct {
	cartID    int64
	productID int64
}

// fakeRepo is an in-memory cart service.
type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	carts  map[int64]*dto.RemoteCart

	creates      []dto.CreateCartInput
	upserts      []dto.UpsertItemInput
	deleteItems  []deleteCall
	deleteCarts  []int64
	fetches      []int64
	createErr    error
	upsertErr    error
	deleteErr    error
	fetchErr     error
	beforeCreate func(ctx context.Context) error
	beforeUpsert func(ctx context.Context) error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 100, carts: make(map[int64]*dto.RemoteCart)}
}

func (f *fakeRepo) CreateCart(ctx context.Context, input *dto.CreateCartInput) (int64, error) {
	if f.beforeCreate != nil {
		if err := f.beforeCreate(ctx); err != nil {
			return 0, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, *input)
	if f.createErr != nil {
		return 0, f.createErr
	}
	id := f.nextID
	f.nextID++
	f.carts[id] = &dto.RemoteCart{ID: id, Itens: []dto.RemoteItem{{ProdutoID: input.ProductID, Quantity: 1}}}
	return id, nil
}

func (f *fakeRepo) UpsertItem(ctx context.Context, input *dto.UpsertItemInput) error {
	if f.beforeUpsert != nil {
		if err := f.beforeUpsert(ctx); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, *input)
	if f.upsertErr != nil {
		return f.upsertErr
	}
	c, ok := f.carts[input.CartID]
	if !ok {
		return notFound(http.MethodPost, "/cart-items")
	}
	for i := range c.Itens {
		if c.Itens[i].ProdutoID == input.ProductID {
			c.Itens[i].Quantity = input.Quantity
			return nil
		}
	}
	c.Itens = append(c.Itens, dto.RemoteItem{ProdutoID: input.ProductID, Quantity: input.Quantity})
	return nil
}

func (f *fakeRepo) DeleteItem(_ context.Context, cartID, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteItems = append(f.deleteItems, deleteCall{cartID: cartID, productID: productID})
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if c, ok := f.carts[cartID]; ok {
		kept := c.Itens[:0]
		for _, it := range c.Itens {
			if it.ProdutoID != productID {
				kept = append(kept, it)
			}
		}
		c.Itens = kept
	}
	return nil
}

func (f *fakeRepo) DeleteCart(_ context.Context, cartID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCarts = append(f.deleteCarts, cartID)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.carts, cartID)
	return nil
}

func (f *fakeRepo) FetchCart(_ context.Context, cartID int64) (*dto.RemoteCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, cartID)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	c, ok := f.carts[cartID]
	if !ok {
		return nil, notFound(http.MethodGet, "/carts")
	}
	out := *c
	out.Itens = append([]dto.RemoteItem(nil), c.Itens...)
	return &out, nil
}

func (f *fakeRepo) setDeleteErr(err error) {
	f.mu.Lock()
	f.deleteErr = err
	f.mu.Unlock()
}

func (f *fakeRepo) counts() (creates, upserts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates), len(f.upserts)
}

func notFound(method, path string) error {
	return &apiclient.Error{Kind: apiclient.ErrStatus, Method: method, Path: path, StatusCode: http.StatusNotFound, Message: "not found"}
}

var errBackend = errors.New("backend unavailable")

type resolverFunc func(ctx context.Context, id int64) (*model.Product, error)

func (f resolverFunc) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return f(ctx, id)
}

type testEnv struct {
	uc    cart.UseCase
	repo  *fakeRepo
	store *repository.MemoryRepository
	rec   *notify.Recorder
	loc   *i18n.Localizer
}

func newTestEnv(t testing.TB, identity model.Identity, optFns ...func(*Options)) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:  newFakeRepo(),
		store: repository.NewMemoryRepository(),
		rec:   &notify.Recorder{},
		loc:   i18n.NewLocalizer("en"),
	}
	opts := Options{StoreID: 2, RemoteTimeout: time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	env.uc = NewCartUseCase(
		env.repo,
		env.store,
		auth.StaticSession{ID: identity},
		notify.NewMessenger(env.rec, env.loc),
		logger.NewNop(),
		opts,
	)
	return env
}

// reload builds a second manager over the same storage and restores it.
func (e *testEnv) reload(t testing.TB) cart.UseCase {
	t.Helper()
	uc := NewCartUseCase(e.repo, e.store, auth.StaticSession{}, notify.NewMessenger(&notify.Recorder{}, e.loc), logger.NewNop(), Options{StoreID: 2})
	require.NoError(t, uc.Restore(context.Background()))
	return uc
}

func (e *testEnv) stored(t testing.TB, key string) (string, bool) {
	t.Helper()
	v, found, err := e.store.Get(context.Background(), key)
	require.NoError(t, err)
	return v, found
}

func product(id int64, name, price string) model.Product {
	return model.Product{
		ID:       id,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: "Frutas",
		Unit:     "kg",
	}
}

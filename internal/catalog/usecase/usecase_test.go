package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/freshmarket-storefront/internal/catalog/dto"
	"github.com/fekuna/freshmarket-storefront/internal/notify"
	"github.com/fekuna/freshmarket-storefront/pkg/cache"
	"github.com/fekuna/freshmarket-storefront/pkg/i18n"
	"github.com/fekuna/freshmarket-storefront/pkg/logger"
)

type fakeRepo struct {
	mu            sync.Mutex
	categories    []dto.RemoteCategory
	products      map[string][]dto.RemoteProduct
	failCategory  string
	categoryErr   error
	categoryCalls atomic.Int32
	productCalls  atomic.Int32
	inFlight      atomic.Int32
	maxInFlight   atomic.Int32
}

func (f *fakeRepo) FindCategories(context.Context) ([]dto.RemoteCategory, error) {
	f.categoryCalls.Add(1)
	if f.categoryErr != nil {
		return nil, f.categoryErr
	}
	return f.categories, nil
}

func (f *fakeRepo) FindProducts(_ context.Context, category string) ([]dto.RemoteProduct, error) {
	f.productCalls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if category == f.failCategory {
		return nil, errors.New("boom")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[category], nil
}

func (f *fakeRepo) FindProduct(_ context.Context, id int64) (*dto.RemoteProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ps := range f.products {
		for _, p := range ps {
			if p.ID == id {
				return &p, nil
			}
		}
	}
	return nil, errors.New("not found")
}

func remoteProduct(id int64, nome, preco, categoria string) dto.RemoteProduct {
	return dto.RemoteProduct{
		ID:        id,
		Nome:      nome,
		Preco:     decimal.RequireFromString(preco),
		Categoria: dto.RemoteCategory{Nome: categoria},
	}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		categories: []dto.RemoteCategory{{ID: 1, Nome: "Frutas"}, {ID: 2, Nome: "Verduras"}, {ID: 3, Nome: "Legumes"}},
		products: map[string][]dto.RemoteProduct{
			"Frutas":   {remoteProduct(1, "Banana", "4.99", "Frutas"), remoteProduct(2, "Uva", "9.90", "Frutas")},
			"Verduras": {remoteProduct(3, "Alface", "2.50", "Verduras")},
			"Legumes":  {remoteProduct(4, "Cenoura", "3.20", "Legumes"), remoteProduct(5, "Batata Doce", "5.00", "Legumes")},
		},
	}
}

func newUseCase(repo *fakeRepo, rc *cache.RedisClient, opts Options) (*catalogUseCase, *notify.Recorder) {
	rec := &notify.Recorder{}
	uc := NewCatalogUseCase(repo, rc, notify.NewMessenger(rec, i18n.NewLocalizer("pt-BR")), logger.NewNop(), opts)
	return uc.(*catalogUseCase), rec
}

func TestListProductsMapsBackendFields(t *testing.T) {
	uc, _ := newUseCase(newFakeRepo(), nil, Options{})

	got, err := uc.ListProducts(context.Background(), "Frutas")
	require.NoError(t, err)
	require.Len(t, got, 2)

	banana := got[0]
	assert.Equal(t, int64(1), banana.ID)
	assert.Equal(t, "Banana", banana.Name)
	assert.Equal(t, "4.99", banana.Price.String())
	assert.Equal(t, "Frutas", banana.Category)
	assert.Equal(t, "kg", banana.Unit)
	assert.Equal(t, "Banana frescas e de alta qualidade.", banana.Description)
	assert.Equal(t, productImages["banana"], banana.Image)
}

func TestUnknownProductGetsDefaultImage(t *testing.T) {
	assert.Equal(t, defaultImage, imageFor("Jabuticaba"))
	assert.Equal(t, productImages["uva"], imageFor("UVA"))
}

func TestListCategoriesFailureNotifies(t *testing.T) {
	repo := newFakeRepo()
	repo.categoryErr = errors.New("down")
	uc, rec := newUseCase(repo, nil, Options{})

	_, err := uc.ListCategories(context.Background())
	require.Error(t, err)

	n, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.KindDestructive, n.Kind)
	assert.Equal(t, "Não foi possível carregar as categorias.", n.Description)
}

func TestBrowseFilters(t *testing.T) {
	cases := []struct {
		name   string
		filter *dto.BrowseFilter
		want   []int64
	}{
		{name: "everything", filter: &dto.BrowseFilter{Category: dto.AllCategories}, want: []int64{1, 2, 3, 4, 5}},
		{name: "nil filter", filter: nil, want: []int64{1, 2, 3, 4, 5}},
		{name: "one category", filter: &dto.BrowseFilter{Category: "Legumes"}, want: []int64{4, 5}},
		{name: "search is case insensitive", filter: &dto.BrowseFilter{Search: "BAT"}, want: []int64{5}},
		{name: "category and search", filter: &dto.BrowseFilter{Category: "Frutas", Search: "an"}, want: []int64{1}},
		{name: "no match", filter: &dto.BrowseFilter{Category: "Verduras", Search: "uva"}, want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc, _ := newUseCase(newFakeRepo(), nil, Options{})
			got, err := uc.Browse(context.Background(), tc.filter)
			require.NoError(t, err)

			var ids []int64
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestBrowseBoundsConcurrency(t *testing.T) {
	repo := newFakeRepo()
	for i := 10; i < 20; i++ {
		repo.categories = append(repo.categories, dto.RemoteCategory{ID: int64(i), Nome: "Extra"})
	}
	uc, _ := newUseCase(repo, nil, Options{MaxConcurrent: 2})

	_, err := uc.Browse(context.Background(), nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, repo.maxInFlight.Load(), int32(2))
	assert.Equal(t, int32(13), repo.productCalls.Load())
}

func TestBrowseKeepsOtherCategoriesWhenOneFails(t *testing.T) {
	repo := newFakeRepo()
	repo.failCategory = "Verduras"
	uc, rec := newUseCase(repo, nil, Options{})

	got, err := uc.Browse(context.Background(), nil)
	require.Error(t, err)
	assert.Len(t, got, 4)

	n, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "Não foi possível carregar os produtos.", n.Description)
}

func TestListsAreCachedInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := cache.NewRedisClient(&cache.Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	repo := newFakeRepo()
	uc, _ := newUseCase(repo, rc, Options{CacheTTL: time.Minute})
	ctx := context.Background()

	for range 3 {
		_, err := uc.ListCategories(ctx)
		require.NoError(t, err)
		got, err := uc.ListProducts(ctx, "Frutas")
		require.NoError(t, err)
		require.Len(t, got, 2)
	}
	assert.Equal(t, int32(1), repo.categoryCalls.Load())
	assert.Equal(t, int32(1), repo.productCalls.Load())
	assert.True(t, mr.Exists("catalog:categories"))

	mr.FastForward(2 * time.Minute)
	_, err = uc.ListProducts(ctx, "Frutas")
	require.NoError(t, err)
	assert.Equal(t, int32(2), repo.productCalls.Load())
}

func TestGetProduct(t *testing.T) {
	uc, _ := newUseCase(newFakeRepo(), nil, Options{})

	p, err := uc.GetProduct(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Alface", p.Name)
	assert.Equal(t, "Verduras", p.Category)

	_, err = uc.GetProduct(context.Background(), 99)
	require.Error(t, err)
}

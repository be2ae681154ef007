package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fekuna/freshmarket-storefront/internal/catalog"
	"github.com/fekuna/freshmarket-storefront/internal/catalog/dto"
	"github.com/fekuna/freshmarket-storefront/internal/model"
	"github.com/fekuna/freshmarket-storefront/internal/notify"
	"github.com/fekuna/freshmarket-storefront/pkg/cache"
	"github.com/fekuna/freshmarket-storefront/pkg/logger"
)

type Options struct {
	// CacheTTL is how long list results stay in redis. Zero disables caching.
	CacheTTL time.Duration
	// MaxConcurrent caps the per-category fetches Browse runs at once.
	MaxConcurrent int
}

type catalogUseCase struct {
	repo   catalog.Repository
	cache  *cache.RedisClient
	msg    *notify.Messenger
	logger logger.ZapLogger
	opts   Options
}

// NewCatalogUseCase builds the catalog. cache may be nil.
func NewCatalogUseCase(repo catalog.Repository, cache *cache.RedisClient, msg *notify.Messenger, log logger.ZapLogger, opts Options) catalog.UseCase {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	return &catalogUseCase{
		repo:   repo,
		cache:  cache,
		msg:    msg,
		logger: log,
		opts:   opts,
	}
}

func (uc *catalogUseCase) ListCategories(ctx context.Context) ([]model.Category, error) {
	remote, err := uc.findCategories(ctx)
	if err != nil {
		uc.logger.Error("failed to load categories", zap.Error(err))
		uc.msg.Failure(ctx, "ErrorTitle", "CatalogCategoriesFailed", nil)
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories := make([]model.Category, 0, len(remote))
	for _, c := range remote {
		categories = append(categories, model.Category{ID: c.ID, Name: c.Nome})
	}
	return categories, nil
}

func (uc *catalogUseCase) ListProducts(ctx context.Context, category string) ([]model.Product, error) {
	products, err := uc.productsOf(ctx, category)
	if err != nil {
		uc.logger.Error("failed to load products", zap.String("category", category), zap.Error(err))
		uc.msg.Failure(ctx, "ErrorTitle", "CatalogProductsFailed", nil)
		return nil, fmt.Errorf("list products of %q: %w", category, err)
	}
	return products, nil
}

func (uc *catalogUseCase) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	key := fmt.Sprintf("catalog:product:%d", id)

	var remote dto.RemoteProduct
	if !uc.cached(ctx, key, &remote) {
		p, err := uc.repo.FindProduct(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get product %d: %w", id, err)
		}
		remote = *p
		uc.store(ctx, key, remote)
	}

	p := uc.toProduct(remote)
	return &p, nil
}

func (uc *catalogUseCase) Browse(ctx context.Context, filter *dto.BrowseFilter) ([]model.Product, error) {
	categories, err := uc.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	results := make([][]model.Product, len(categories))
	failures := make([]error, len(categories))

	var g errgroup.Group
	g.SetLimit(uc.opts.MaxConcurrent)
	for i, c := range categories {
		g.Go(func() error {
			products, err := uc.productsOf(ctx, c.Name)
			if err != nil {
				failures[i] = fmt.Errorf("category %q: %w", c.Name, err)
				return nil
			}
			results[i] = products
			return nil
		})
	}
	// workers always return nil; failures are collected per category
	g.Wait()

	if err := errors.Join(failures...); err != nil {
		uc.logger.Warn("some categories failed to load", zap.Error(err))
		uc.msg.Failure(ctx, "ErrorTitle", "CatalogProductsFailed", nil)
	}

	var out []model.Product
	for _, products := range results {
		for _, p := range products {
			if matches(p, filter) {
				out = append(out, p)
			}
		}
	}
	return out, errors.Join(failures...)
}

func matches(p model.Product, filter *dto.BrowseFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Category != "" && filter.Category != dto.AllCategories && p.Category != filter.Category {
		return false
	}
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search))
}

func (uc *catalogUseCase) findCategories(ctx context.Context) ([]dto.RemoteCategory, error) {
	const key = "catalog:categories"

	var remote []dto.RemoteCategory
	if uc.cached(ctx, key, &remote) {
		return remote, nil
	}
	remote, err := uc.repo.FindCategories(ctx)
	if err != nil {
		return nil, err
	}
	uc.store(ctx, key, remote)
	return remote, nil
}

func (uc *catalogUseCase) productsOf(ctx context.Context, category string) ([]model.Product, error) {
	key := fmt.Sprintf("catalog:products:%x", md5.Sum([]byte(category)))

	var remote []dto.RemoteProduct
	if !uc.cached(ctx, key, &remote) {
		var err error
		remote, err = uc.repo.FindProducts(ctx, category)
		if err != nil {
			return nil, err
		}
		uc.store(ctx, key, remote)
	}

	products := make([]model.Product, 0, len(remote))
	for _, r := range remote {
		products = append(products, uc.toProduct(r))
	}
	return products, nil
}

func (uc *catalogUseCase) toProduct(r dto.RemoteProduct) model.Product {
	return model.Product{
		ID:          r.ID,
		Name:        r.Nome,
		Price:       r.Preco,
		Image:       imageFor(r.Nome),
		Category:    r.Categoria.Nome,
		Unit:        "kg",
		Description: uc.msg.Text("ProductDescription", map[string]any{"Name": r.Nome}),
	}
}

func (uc *catalogUseCase) cached(ctx context.Context, key string, v any) bool {
	if uc.cache == nil || uc.opts.CacheTTL <= 0 {
		return false
	}
	val, err := uc.cache.Client.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), v); err != nil {
		uc.logger.Warn("ignoring undecodable catalog cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (uc *catalogUseCase) store(ctx context.Context, key string, v any) {
	if uc.cache == nil || uc.opts.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := uc.cache.Client.Set(ctx, key, data, uc.opts.CacheTTL).Err(); err != nil {
		uc.logger.Warn("failed to cache catalog entry", zap.String("key", key), zap.Error(err))
	}
}

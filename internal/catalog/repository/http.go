package repository

import (
	"context"
	"fmt"

	"github.com/fekuna/freshmarket-storefront/internal/catalog/dto"
	"github.com/fekuna/freshmarket-storefront/pkg/apiclient"
)

type HTTPRepository struct {
	api *apiclient.Client
}

func NewHTTPRepository(api *apiclient.Client) *HTTPRepository {
	return &HTTPRepository{api: api}
}

func (r *HTTPRepository) FindCategories(ctx context.Context) ([]dto.RemoteCategory, error) {
	var out []dto.RemoteCategory
	if err := r.api.Get(ctx, "/categorias", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *HTTPRepository) FindProducts(ctx context.Context, category string) ([]dto.RemoteProduct, error) {
	var out []dto.RemoteProduct
	if err := r.api.Get(ctx, "/produtos", &out, apiclient.WithQuery("categoria", category)); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *HTTPRepository) FindProduct(ctx context.Context, id int64) (*dto.RemoteProduct, error) {
	var out dto.RemoteProduct
	if err := r.api.Get(ctx, fmt.Sprintf("/produtos/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fekuna/freshmarket-storefront/internal/cart/dto"
	"github.com/fekuna/freshmarket-storefront/pkg/apiclient"
)

var errNoCartID = errors.New("create cart response has no id")

// HTTPRepository talks to the marketplace cart endpoints.
type HTTPRepository struct {
	api *apiclient.Client
}

func NewHTTPRepository(api *apiclient.Client) *HTTPRepository {
	return &HTTPRepository{api: api}
}

func (r *HTTPRepository) CreateCart(ctx context.Context, input *dto.CreateCartInput) (int64, error) {
	req := dto.CreateCartRequest{
		CreateCartDto: dto.CreateCartDto{
			ClienteID: input.CustomerID,
			LojaID:    input.StoreID,
		},
		ProdutoID: input.ProductID,
	}

	var resp dto.CreateCartResponse
	if err := r.api.Post(ctx, "/carts/newCart", req, &resp); err != nil {
		return 0, err
	}
	if resp.ID == nil {
		return 0, errNoCartID
	}
	return *resp.ID, nil
}

func (r *HTTPRepository) UpsertItem(ctx context.Context, input *dto.UpsertItemInput) error {
	req := dto.UpsertItemRequest{
		Quantity:  input.Quantity,
		ProdutoID: input.ProductID,
		CartID:    input.CartID,
	}
	return r.api.Post(ctx, "/cart-items", req, nil)
}

func (r *HTTPRepository) DeleteItem(ctx context.Context, cartID, productID int64) error {
	path := fmt.Sprintf("/cart-items/%d", productID)
	return r.api.Delete(ctx, path, apiclient.WithQuery("cartId", strconv.FormatInt(cartID, 10)))
}

func (r *HTTPRepository) DeleteCart(ctx context.Context, cartID int64) error {
	return r.api.Delete(ctx, fmt.Sprintf("/carts/%d", cartID))
}

func (r *HTTPRepository) FetchCart(ctx context.Context, cartID int64) (*dto.RemoteCart, error) {
	var resp dto.RemoteCart
	if err := r.api.Get(ctx, fmt.Sprintf("/carts/%d", cartID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

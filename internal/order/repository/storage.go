package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/fekuna/freshmarket-storefront/internal/model"
	"github.com/fekuna/freshmarket-storefront/internal/storage"
	"github.com/fekuna/freshmarket-storefront/pkg/logger"
)

// KeyOrders holds the order history as a JSON array.
const KeyOrders = "orders"

// StorageRepository keeps the order history in the same key-value store as
// the cart snapshot.
type StorageRepository struct {
	store  storage.Repository
	logger logger.ZapLogger
}

func NewStorageRepository(store storage.Repository, log logger.ZapLogger) *StorageRepository {
	return &StorageRepository{store: store, logger: log}
}

func (r *StorageRepository) FindAll(ctx context.Context) ([]model.Order, error) {
	raw, found, err := r.store.Get(ctx, KeyOrders)
	if err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}
	if !found {
		return nil, nil
	}

	var orders []model.Order
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		// a corrupt history reads as empty
		r.logger.Warn("discarding corrupt order history", zap.String("key", KeyOrders), zap.Error(err))
		if err := r.store.Remove(ctx, KeyOrders); err != nil {
			r.logger.Error("failed to remove corrupt order history", zap.String("key", KeyOrders), zap.Error(err))
		}
		return nil, nil
	}
	return orders, nil
}

func (r *StorageRepository) SaveAll(ctx context.Context, orders []model.Order) error {
	if orders == nil {
		orders = []model.Order{}
	}
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode orders: %w", err)
	}
	if err := r.store.Set(ctx, KeyOrders, string(data)); err != nil {
		return fmt.Errorf("write orders: %w", err)
	}
	return nil
}

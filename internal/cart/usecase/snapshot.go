package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fekuna/freshmarket-storefront/internal/cart/dto"
	"github.com/fekuna/freshmarket-storefront/internal/model"
)

// Storage keys of the persisted cart. They match what the web storefront
// keeps in localStorage.
const (
	KeyCartItems      = "cartItems"
	KeyCartID         = "cartId"
	KeyPendingDeletes = "cartPendingDeletes"
)

var errCorrupt = errors.New("corrupt snapshot entry")

func validateLines(lines []model.CartLine) error {
	seen := make(map[int64]struct{}, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			return fmt.Errorf("%w: product %d has quantity %d", errCorrupt, l.ID, l.Quantity)
		}
		if l.Price.IsNegative() {
			return fmt.Errorf("%w: product %d has a negative price", errCorrupt, l.ID)
		}
		if _, dup := seen[l.ID]; dup {
			return fmt.Errorf("%w: product %d appears twice", errCorrupt, l.ID)
		}
		seen[l.ID] = struct{}{}
	}
	return nil
}

// loadEntry decodes one key into v. Missing keys leave v untouched; corrupt
// ones are logged, removed and reported as missing.
func (uc *cartUseCase) loadEntry(ctx context.Context, key string, v any, validate func() error) (bool, error) {
	raw, found, err := uc.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !found {
		return false, nil
	}

	decodeErr := json.Unmarshal([]byte(raw), v)
	if decodeErr == nil && validate != nil {
		decodeErr = validate()
	}
	if decodeErr != nil {
		uc.logger.Warn("discarding corrupt cart snapshot entry", zap.String("key", key), zap.Error(decodeErr))
		if err := uc.store.Remove(ctx, key); err != nil {
			uc.logger.Error("failed to remove corrupt cart snapshot entry", zap.String("key", key), zap.Error(err))
		}
		return false, nil
	}
	return true, nil
}

// persistLocked mirrors the in-memory state into storage. Callers hold uc.mu.
// A storage failure does not undo a transition the backend already accepted,
// so it is logged rather than returned.
func (uc *cartUseCase) persistLocked(ctx context.Context) {
	lines := uc.lines
	if lines == nil {
		lines = []model.CartLine{}
	}
	uc.writeEntry(ctx, KeyCartItems, lines)
	uc.writeEntry(ctx, KeyCartID, uc.cartID)
}

func (uc *cartUseCase) persistPendingLocked(ctx context.Context) {
	pending := uc.pending
	if pending == nil {
		pending = []dto.PendingDelete{}
	}
	uc.writeEntry(ctx, KeyPendingDeletes, pending)
}

func (uc *cartUseCase) writeEntry(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		uc.logger.Error("failed to encode cart snapshot entry", zap.String("key", key), zap.Error(err))
		return
	}
	// the write must land even when the caller's deadline has just expired
	if err := uc.store.Set(context.WithoutCancel(ctx), key, string(raw)); err != nil {
		uc.logger.Error("failed to persist cart snapshot entry", zap.String("key", key), zap.Error(err))
	}
}

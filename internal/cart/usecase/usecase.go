package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/freshmarket-storefront/internal/auth"
	"github.com/fekuna/freshmarket-storefront/internal/cart"
	"github.com/fekuna/freshmarket-storefront/internal/cart/dto"
	"github.com/fekuna/freshmarket-storefront/internal/model"
	"github.com/fekuna/freshmarket-storefront/internal/notify"
	"github.com/fekuna/freshmarket-storefront/internal/storage"
	"github.com/fekuna/freshmarket-storefront/pkg/apiclient"
	"github.com/fekuna/freshmarket-storefront/pkg/logger"
)

type Options struct {
	// StoreID is the store every new remote cart is opened against.
	StoreID int64
	// RemoteTimeout bounds each call to the cart service. Zero means the
	// caller's context alone decides.
	RemoteTimeout time.Duration
	// Resolver hydrates products found remotely during Reconcile. Optional.
	Resolver cart.ProductResolver
}

// cartUseCase owns the local cart. Adds and quantity changes are committed
// locally only after the cart service accepted them; removals and clears
// are committed locally first and replayed remotely.
type cartUseCase struct {
	repo    cart.Repository
	store   storage.Repository
	session auth.SessionProvider
	msg     *notify.Messenger
	logger  logger.ZapLogger
	opts    Options

	keys     *keyLock
	createMu sync.Mutex
	flushMu  sync.Mutex

	mu      sync.RWMutex
	lines   []model.CartLine
	cartID  *int64
	pending []dto.PendingDelete
}

func NewCartUseCase(
	repo cart.Repository,
	store storage.Repository,
	session auth.SessionProvider,
	msg *notify.Messenger,
	log logger.ZapLogger,
	opts Options,
) cart.UseCase {
	return &cartUseCase{
		repo:    repo,
		store:   store,
		session: session,
		msg:     msg,
		logger:  log,
		opts:    opts,
		keys:    newKeyLock(),
	}
}

func (uc *cartUseCase) Restore(ctx context.Context) error {
	var lines []model.CartLine
	if _, err := uc.loadEntry(ctx, KeyCartItems, &lines, func() error { return validateLines(lines) }); err != nil {
		return err
	}

	var cartID *int64
	if _, err := uc.loadEntry(ctx, KeyCartID, &cartID, nil); err != nil {
		return err
	}

	var pending []dto.PendingDelete
	if _, err := uc.loadEntry(ctx, KeyPendingDeletes, &pending, nil); err != nil {
		return err
	}

	if len(lines) > 0 && cartID == nil {
		uc.logger.Warn("restored cart has items but no cart id", zap.Int("lines", len(lines)))
	}

	uc.mu.Lock()
	uc.lines = lines
	uc.cartID = cartID
	uc.pending = pending
	uc.mu.Unlock()

	uc.logger.Info("cart restored",
		zap.Int("lines", len(lines)),
		zap.Bool("has_cart_id", cartID != nil),
		zap.Int("pending_deletes", len(pending)),
	)
	return nil
}

func (uc *cartUseCase) AddToCart(ctx context.Context, product model.Product) error {
	if product.ID <= 0 || product.Price.IsNegative() {
		uc.msg.Failure(ctx, "CartErrorTitle", "CartAddFailedDescription", nil)
		return fmt.Errorf("%w: id %d price %s", cart.ErrInvalidProduct, product.ID, product.Price)
	}

	unlock, err := uc.keys.Lock(ctx, product.ID)
	if err != nil {
		uc.notifyRemoteFailure(ctx, "CartAddFailedTitle", "CartAddFailedDescription", err)
		return err
	}
	defer unlock()

	if uc.needsRemoteCart() {
		uc.createMu.Lock()
		if uc.needsRemoteCart() {
			defer uc.createMu.Unlock()
			return uc.createWithFirstItem(ctx, product)
		}
		uc.createMu.Unlock()
	}

	uc.mu.RLock()
	cartID := copyID(uc.cartID)
	existing, found := uc.lineLocked(product.ID)
	uc.mu.RUnlock()

	if cartID == nil {
		desc := "CartIDMissingAdd"
		if found {
			desc = "CartIDMissingUpdate"
		}
		uc.msg.Failure(ctx, "CartErrorTitle", desc, nil)
		return cart.ErrCartIDMissing
	}

	quantity := 1
	if found {
		quantity = existing.Quantity + 1
	}

	if err := uc.upsert(ctx, *cartID, product.ID, quantity); err != nil {
		uc.notifyRemoteFailure(ctx, "CartAddFailedTitle", "CartAddFailedDescription", err)
		return fmt.Errorf("add product %d: %w", product.ID, err)
	}

	uc.mu.Lock()
	if !sameID(uc.cartID, cartID) {
		uc.mu.Unlock()
		uc.msg.Failure(ctx, "CartErrorTitle", "CartChangedDescription", nil)
		return cart.ErrCartChanged
	}
	if idx := uc.indexLocked(product.ID); idx >= 0 {
		uc.lines[idx].Quantity = quantity
	} else {
		uc.lines = append(uc.lines, model.CartLine{Product: product, Quantity: quantity})
	}
	uc.dropPendingLocked(ctx, *cartID, product.ID)
	uc.persistLocked(ctx)
	uc.mu.Unlock()

	data := map[string]any{"Name": product.Name}
	if found {
		uc.msg.Success(ctx, "CartItemUpdatedTitle", "CartItemUpdatedDescription", data)
	} else {
		uc.msg.Success(ctx, "CartItemAddedTitle", "CartItemAddedDescription", data)
	}
	return nil
}

func (uc *cartUseCase) createWithFirstItem(ctx context.Context, product model.Product) error {
	uc.flushBestEffort(ctx)

	input := &dto.CreateCartInput{
		CustomerID: customerID(auth.IdentityFrom(ctx, uc.session)),
		StoreID:    uc.opts.StoreID,
		ProductID:  product.ID,
	}

	rctx, cancel := uc.remoteContext(ctx)
	id, err := uc.repo.CreateCart(rctx, input)
	cancel()
	if err != nil {
		uc.notifyRemoteFailure(ctx, "CartAddFailedTitle", "CartAddFailedDescription", err)
		return fmt.Errorf("create cart: %w", err)
	}

	uc.mu.Lock()
	if len(uc.lines) != 0 || uc.cartID != nil {
		// a reconcile adopted another cart meanwhile; the new one is orphaned
		uc.enqueuePendingLocked(ctx, dto.PendingDelete{CartID: id})
		uc.mu.Unlock()
		uc.msg.Failure(ctx, "CartErrorTitle", "CartChangedDescription", nil)
		return cart.ErrCartChanged
	}
	uc.lines = []model.CartLine{{Product: product, Quantity: 1}}
	uc.cartID = &id
	uc.persistLocked(ctx)
	uc.mu.Unlock()

	uc.logger.Info("remote cart created", zap.Int64("cart_id", id), zap.Int64("product_id", product.ID))
	uc.msg.Success(ctx, "CartCreatedTitle", "CartCreatedDescription", map[string]any{"Name": product.Name})
	return nil
}

func (uc *cartUseCase) RemoveFromCart(ctx context.Context, productID int64) error {
	unlock, err := uc.keys.Lock(ctx, productID)
	if err != nil {
		return err
	}
	defer unlock()

	uc.mu.Lock()
	previousID := copyID(uc.cartID)
	idx := uc.indexLocked(productID)
	if idx >= 0 {
		uc.lines = append(uc.lines[:idx:idx], uc.lines[idx+1:]...)
	}

	var remote *dto.PendingDelete
	emptied := idx >= 0 && len(uc.lines) == 0 && previousID != nil
	switch {
	case emptied:
		uc.cartID = nil
		remote = &dto.PendingDelete{CartID: *previousID}
	case idx >= 0 && previousID != nil:
		pid := productID
		remote = &dto.PendingDelete{CartID: *previousID, ProductID: &pid}
	}
	uc.persistLocked(ctx)
	uc.mu.Unlock()

	if emptied {
		uc.msg.Success(ctx, "CartEmptiedTitle", "CartEmptiedDescription", nil)
	} else {
		uc.msg.Success(ctx, "CartItemRemovedTitle", "CartItemRemovedDescription", nil)
	}

	if remote != nil {
		uc.deleteRemote(ctx, *remote)
	}
	return nil
}

func (uc *cartUseCase) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return uc.RemoveFromCart(ctx, productID)
	}

	unlock, err := uc.keys.Lock(ctx, productID)
	if err != nil {
		uc.notifyRemoteFailure(ctx, "ErrorTitle", "CartQuantityFailedDescription", err)
		return err
	}
	defer unlock()

	uc.mu.RLock()
	cartID := copyID(uc.cartID)
	_, found := uc.lineLocked(productID)
	uc.mu.RUnlock()

	if cartID == nil {
		uc.msg.Failure(ctx, "CartErrorTitle", "CartIDMissingQuantity", nil)
		return cart.ErrCartIDMissing
	}
	if !found {
		uc.msg.Failure(ctx, "ErrorTitle", "CartQuantityFailedDescription", nil)
		return fmt.Errorf("%w: product %d", cart.ErrItemNotInCart, productID)
	}

	if err := uc.upsert(ctx, *cartID, productID, quantity); err != nil {
		uc.notifyRemoteFailure(ctx, "ErrorTitle", "CartQuantityFailedDescription", err)
		return fmt.Errorf("update quantity of product %d: %w", productID, err)
	}

	uc.mu.Lock()
	idx := uc.indexLocked(productID)
	if !sameID(uc.cartID, cartID) || idx < 0 {
		uc.mu.Unlock()
		uc.msg.Failure(ctx, "CartErrorTitle", "CartChangedDescription", nil)
		return cart.ErrCartChanged
	}
	uc.lines[idx].Quantity = quantity
	uc.dropPendingLocked(ctx, *cartID, productID)
	uc.persistLocked(ctx)
	uc.mu.Unlock()

	uc.msg.Success(ctx, "CartQuantityUpdatedTitle", "CartQuantityUpdatedDescription", nil)
	return nil
}

func (uc *cartUseCase) ClearCart(ctx context.Context) error {
	uc.mu.Lock()
	previousID := copyID(uc.cartID)
	uc.lines = nil
	uc.cartID = nil
	uc.persistLocked(ctx)
	uc.mu.Unlock()

	uc.msg.Success(ctx, "CartClearedTitle", "CartClearedDescription", nil)

	if previousID != nil {
		uc.deleteRemote(ctx, dto.PendingDelete{CartID: *previousID})
	}
	return nil
}

func (uc *cartUseCase) Reconcile(ctx context.Context) error {
	uc.flushBestEffort(ctx)

	uc.mu.RLock()
	cartID := copyID(uc.cartID)
	local := make(map[int64]model.CartLine, len(uc.lines))
	for _, l := range uc.lines {
		local[l.ID] = l
	}
	pending := append([]dto.PendingDelete(nil), uc.pending...)
	uc.mu.RUnlock()

	if cartID == nil {
		return nil
	}
	fetchedID := *cartID

	var next []model.CartLine
	if slices.Contains(pending, dto.PendingDelete{CartID: fetchedID}) {
		// the cart is already deleted locally; the remote copy is stale
		uc.logger.Info("remote cart deletion pending, resetting local cart", zap.Int64("cart_id", fetchedID))
		cartID = nil
	} else {
		rctx, cancel := uc.remoteContext(ctx)
		remote, err := uc.repo.FetchCart(rctx, fetchedID)
		cancel()

		switch {
		case apiclient.IsNotFound(err):
			uc.logger.Info("remote cart is gone, resetting local cart", zap.Int64("cart_id", fetchedID))
			cartID = nil
		case err != nil:
			uc.logger.Warn("cart reconcile failed, keeping local snapshot", zap.Int64("cart_id", fetchedID), zap.Error(err))
			return fmt.Errorf("fetch cart %d: %w", fetchedID, err)
		default:
			next = uc.mergeRemote(ctx, local, fetchedID, remote, pending)
		}
	}

	uc.mu.Lock()
	if !sameID(uc.cartID, &fetchedID) {
		uc.mu.Unlock()
		return cart.ErrCartChanged
	}
	changed := !sameLines(uc.lines, next) || !sameID(uc.cartID, cartID)
	uc.lines = next
	uc.cartID = cartID
	uc.persistLocked(ctx)
	uc.mu.Unlock()

	if changed {
		uc.msg.Success(ctx, "CartRestoredTitle", "CartRestoredDescription", nil)
	}
	return nil
}

// mergeRemote takes quantities from the backend and product details from
// the local snapshot, falling back to the resolver for unknown products.
// Items whose delete is still queued stay removed.
func (uc *cartUseCase) mergeRemote(ctx context.Context, local map[int64]model.CartLine, cartID int64, remote *dto.RemoteCart, pending []dto.PendingDelete) []model.CartLine {
	next := make([]model.CartLine, 0, len(remote.Itens))
	seen := make(map[int64]struct{}, len(remote.Itens))
	for _, item := range remote.Itens {
		if item.Quantity < 1 {
			continue
		}
		if slices.ContainsFunc(pending, func(p dto.PendingDelete) bool { return p.Matches(cartID, item.ProdutoID) }) {
			continue
		}
		if _, dup := seen[item.ProdutoID]; dup {
			continue
		}
		seen[item.ProdutoID] = struct{}{}

		if l, ok := local[item.ProdutoID]; ok {
			l.Quantity = item.Quantity
			next = append(next, l)
			continue
		}
		if uc.opts.Resolver == nil {
			uc.logger.Warn("dropping remote cart item with unknown product", zap.Int64("product_id", item.ProdutoID))
			continue
		}
		rctx, cancel := uc.remoteContext(ctx)
		p, err := uc.opts.Resolver.GetProduct(rctx, item.ProdutoID)
		cancel()
		if err != nil || p == nil {
			uc.logger.Warn("could not resolve remote cart item", zap.Int64("product_id", item.ProdutoID), zap.Error(err))
			continue
		}
		next = append(next, model.CartLine{Product: *p, Quantity: item.Quantity})
	}
	return next
}

func (uc *cartUseCase) FlushPendingDeletes(ctx context.Context) error {
	uc.flushMu.Lock()
	defer uc.flushMu.Unlock()

	uc.mu.RLock()
	queued := append([]dto.PendingDelete(nil), uc.pending...)
	uc.mu.RUnlock()

	var errs []error
	done := make([]dto.PendingDelete, 0, len(queued))
	for _, op := range queued {
		if err := uc.callDelete(ctx, op); err != nil && !apiclient.IsNotFound(err) {
			errs = append(errs, err)
			continue
		}
		done = append(done, op)
	}

	if len(done) > 0 {
		uc.mu.Lock()
		for _, op := range done {
			uc.removePendingLocked(op)
		}
		uc.persistPendingLocked(ctx)
		uc.mu.Unlock()
	}
	return errors.Join(errs...)
}

func (uc *cartUseCase) Items() []model.CartLine {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	out := make([]model.CartLine, len(uc.lines))
	copy(out, uc.lines)
	return out
}

func (uc *cartUseCase) CartID() *int64 {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return copyID(uc.cartID)
}

func (uc *cartUseCase) TotalItems() int {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	total := 0
	for _, l := range uc.lines {
		total += l.Quantity
	}
	return total
}

func (uc *cartUseCase) TotalPrice() decimal.Decimal {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	total := decimal.Zero
	for _, l := range uc.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (uc *cartUseCase) upsert(ctx context.Context, cartID, productID int64, quantity int) error {
	uc.flushBestEffort(ctx)

	rctx, cancel := uc.remoteContext(ctx)
	defer cancel()
	return uc.repo.UpsertItem(rctx, &dto.UpsertItemInput{CartID: cartID, ProductID: productID, Quantity: quantity})
}

// deleteRemote issues a remote delete whose local effect is already
// committed. Failures go to the pending queue.
func (uc *cartUseCase) deleteRemote(ctx context.Context, op dto.PendingDelete) {
	err := uc.callDelete(ctx, op)
	if err == nil || apiclient.IsNotFound(err) {
		return
	}
	uc.logger.Warn("remote delete failed, queued for replay",
		zap.Int64("cart_id", op.CartID),
		zap.Bool("whole_cart", op.ProductID == nil),
		zap.Error(err),
	)
	uc.mu.Lock()
	uc.enqueuePendingLocked(ctx, op)
	uc.mu.Unlock()
}

func (uc *cartUseCase) callDelete(ctx context.Context, op dto.PendingDelete) error {
	rctx, cancel := uc.remoteContext(ctx)
	defer cancel()
	if op.ProductID == nil {
		return uc.repo.DeleteCart(rctx, op.CartID)
	}
	return uc.repo.DeleteItem(rctx, op.CartID, *op.ProductID)
}

func (uc *cartUseCase) flushBestEffort(ctx context.Context) {
	uc.mu.RLock()
	n := len(uc.pending)
	uc.mu.RUnlock()
	if n == 0 {
		return
	}
	if err := uc.FlushPendingDeletes(ctx); err != nil {
		uc.logger.Warn("pending cart deletes still failing", zap.Error(err))
	}
}

func (uc *cartUseCase) enqueuePendingLocked(ctx context.Context, op dto.PendingDelete) {
	for _, p := range uc.pending {
		if samePending(p, op) {
			return
		}
	}
	uc.pending = append(uc.pending, op)
	uc.persistPendingLocked(ctx)
}

func (uc *cartUseCase) removePendingLocked(op dto.PendingDelete) {
	kept := uc.pending[:0]
	for _, p := range uc.pending {
		if !samePending(p, op) {
			kept = append(kept, p)
		}
	}
	uc.pending = kept
}

// dropPendingLocked forgets a queued item delete made obsolete by an
// accepted upsert of the same product on the same cart.
func (uc *cartUseCase) dropPendingLocked(ctx context.Context, cartID, productID int64) {
	kept := uc.pending[:0]
	for _, p := range uc.pending {
		if !p.Matches(cartID, productID) {
			kept = append(kept, p)
		}
	}
	if len(kept) != len(uc.pending) {
		uc.pending = kept
		uc.persistPendingLocked(ctx)
	}
}

func (uc *cartUseCase) needsRemoteCart() bool {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return len(uc.lines) == 0 && uc.cartID == nil
}

func (uc *cartUseCase) lineLocked(productID int64) (model.CartLine, bool) {
	if idx := uc.indexLocked(productID); idx >= 0 {
		return uc.lines[idx], true
	}
	return model.CartLine{}, false
}

func (uc *cartUseCase) indexLocked(productID int64) int {
	for i, l := range uc.lines {
		if l.ID == productID {
			return i
		}
	}
	return -1
}

func (uc *cartUseCase) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.opts.RemoteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, uc.opts.RemoteTimeout)
}

func (uc *cartUseCase) notifyRemoteFailure(ctx context.Context, titleID, descID string, err error) {
	if apiclient.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		descID = "CartTimeoutDescription"
	}
	uc.logger.Error("cart operation failed", zap.Error(err))
	uc.msg.Failure(ctx, titleID, descID, nil)
}

// customerID is the identity sent on cart creation: only signed-in
// customers own a cart on the backend.
func customerID(id model.Identity) *int64 {
	switch v := id.(type) {
	case model.Customer:
		cid := v.ID
		return &cid
	case model.Guest, model.StoreManager, model.Courier:
		return nil
	default:
		return nil
	}
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func samePending(a, b dto.PendingDelete) bool {
	return a.CartID == b.CartID && sameID(a.ProductID, b.ProductID)
}

func sameLines(a, b []model.CartLine) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Quantity != b[i].Quantity {
			return false
		}
	}
	return true
}

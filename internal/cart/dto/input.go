package dto

type CreateCartInput struct {
	// CustomerID is nil for anyone who is not a signed-in customer.
	CustomerID *int64
	StoreID    int64
	ProductID  int64
}

type UpsertItemInput struct {
	CartID    int64
	ProductID int64
	Quantity  int
}

// PendingDelete is a remote delete that failed and waits for a replay.
// A nil ProductID means the whole cart.
type PendingDelete struct {
	CartID    int64  `json:"cartId"`
	ProductID *int64 `json:"productId,omitempty"`
}

func (p PendingDelete) Matches(cartID, productID int64) bool {
	return p.CartID == cartID && p.ProductID != nil && *p.ProductID == productID
}

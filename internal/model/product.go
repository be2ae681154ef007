package model

import "github.com/shopspring/decimal"

// Product is a catalog entry as the storefront shows it. The cart never
// mutates it.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Unit        string          `json:"unit"`
	Description string          `json:"description"`
}

// CartLine is one product in the cart. Quantity is always at least 1.
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

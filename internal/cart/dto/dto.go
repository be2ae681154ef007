package dto

// Wire shapes of the cart endpoints. Field names follow the backend.

type CreateCartDto struct {
	ClienteID *int64 `json:"clienteId"`
	LojaID    int64  `json:"lojaId"`
}

type CreateCartRequest struct {
	CreateCartDto CreateCartDto `json:"createCartDto"`
	ProdutoID     int64         `json:"produtoId"`
}

type CreateCartResponse struct {
	ID *int64 `json:"id"`
}

type UpsertItemRequest struct {
	Quantity  int   `json:"quantity"`
	ProdutoID int64 `json:"produtoId"`
	CartID    int64 `json:"cartId"`
}

type RemoteItem struct {
	ProdutoID int64 `json:"produtoId"`
	Quantity  int   `json:"quantity"`
}

type RemoteCart struct {
	ID    int64        `json:"id"`
	Itens []RemoteItem `json:"itens"`
}

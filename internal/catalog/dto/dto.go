package dto

import "github.com/shopspring/decimal"

type RemoteCategory struct {
	ID   int64  `json:"id"`
	Nome string `json:"nome"`
}

type RemoteProduct struct {
	ID        int64           `json:"id"`
	Nome      string          `json:"nome"`
	Preco     decimal.Decimal `json:"preco"`
	Categoria RemoteCategory  `json:"categoria"`
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateVariantRequest entrada para crear una variante.
type CreateVariantRequest struct {
	ProductID  string          `json:"productId"`
	SKU        string          `json:"sku" validate:"required,min=1,max=100"`
	Name       string          `json:"name" validate:"required,min=1,max=200"`
	Price      decimal.Decimal `json:"price"`
	TotalStock int             `json:"totalStock" validate:"min=0"`
}

// AdjustStockRequest fija el stock físico absoluto de una variante.
type AdjustStockRequest struct {
	TotalStock int `json:"totalStock" validate:"min=0"`
}

// VariantResponse salida de una variante.
type VariantResponse struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"productId"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	TotalStock int             `json:"totalStock"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest línea del carrito.
type OrderItemRequest struct {
	VariantID string `json:"variantId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

// CreateOrderRequest crea un pedido pendiente a partir del carrito de la sesión.
type CreateOrderRequest struct {
	SessionID string             `json:"sessionId" validate:"required,max=255"`
	Items     []OrderItemRequest `json:"items" validate:"required,min=1"`
}

// PayOrderRequest pago simulado. La tarjeta solo se valida con Luhn; nunca se persiste.
type PayOrderRequest struct {
	SessionID  string `json:"sessionId"`
	CardNumber string `json:"cardNumber" validate:"required"`
}

// OrderItemResponse línea del pedido con precio congelado.
type OrderItemResponse struct {
	VariantID string          `json:"variantId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderResponse salida de un pedido.
type OrderResponse struct {
	ID        string              `json:"id"`
	SessionID string              `json:"sessionId"`
	UserID    *string             `json:"userId,omitempty"`
	Status    string              `json:"status"`
	Total     decimal.Decimal     `json:"total"`
	Items     []OrderItemResponse `json:"items"`
	CreatedAt time.Time           `json:"createdAt"`
	PaidAt    *time.Time          `json:"paidAt,omitempty"`
}

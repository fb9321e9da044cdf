package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados válidos de Order.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// Order pedido de checkout. Al pagarse se convierte en descuento definitivo de stock.
type Order struct {
	ID        string
	SessionID string
	UserID    *string
	Status    string // pending, paid, cancelled
	Total     decimal.Decimal
	Items     []OrderItem
	CreatedAt time.Time
	PaidAt    *time.Time
}

// OrderItem línea del pedido; UnitPrice se congela al crear el pedido.
type OrderItem struct {
	VariantID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal devuelve Quantity * UnitPrice.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

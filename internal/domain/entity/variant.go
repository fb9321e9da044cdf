package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Variant representa una variante vendible de un producto (talla, color...) con su stock físico.
// TotalStock es el conteo autoritativo; solo lo reduce la finalización de una venta
// o un ajuste administrativo.
type Variant struct {
	ID         string
	ProductID  string
	SKU        string // código único
	Name       string
	Price      decimal.Decimal // precio de venta
	TotalStock int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

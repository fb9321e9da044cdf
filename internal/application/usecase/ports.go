package usecase

import (
	"context"

	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// CheckoutTxRunner transacción del checkout: pedido y stock se confirman juntos o no se confirman.
type CheckoutTxRunner interface {
	RunCheckout(ctx context.Context, fn func(
		variants repository.VariantRepository,
		reservations repository.ReservationRepository,
		orders repository.OrderRepository,
	) error) error
}

// ReceiptLine línea del recibo con los datos de la variante resueltos.
type ReceiptLine struct {
	SKU       string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// ReceiptGenerator genera el recibo (PDF) de un pedido pagado.
type ReceiptGenerator interface {
	GenerateReceipt(ctx context.Context, order *entity.Order, lines []ReceiptLine) ([]byte, error)
}

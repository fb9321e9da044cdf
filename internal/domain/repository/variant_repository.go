package repository

import (
	"context"

	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

// VariantRepository define el puerto de persistencia para Variant (Inventory Store).
type VariantRepository interface {
	Create(ctx context.Context, variant *entity.Variant) error
	// GetByID devuelve (nil, nil) si la variante no existe.
	GetByID(ctx context.Context, id string) (*entity.Variant, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Variant, error)
	SetStock(ctx context.Context, id string, totalStock int) error
	// DecrementStockIfEnough resta qty solo si el resultado no queda negativo.
	// Devuelve false si no había stock suficiente (o la variante no existe).
	DecrementStockIfEnough(ctx context.Context, id string, qty int) (bool, error)
}

package repository

import (
	"context"
	"time"

	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para Order.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	// GetByID devuelve (nil, nil) si el pedido no existe.
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	MarkPaid(ctx context.Context, id string, paidAt time.Time) error
}

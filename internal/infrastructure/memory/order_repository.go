package memory

import (
	"context"
	"time"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo pedidos en memoria.
type OrderRepo struct {
	access accessFunc
}

func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	return r.access(ctx, func(st *state) error {
		if _, ok := st.orders[o.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, it := range o.Items {
			if _, ok := st.variants[it.VariantID]; !ok {
				return domain.ErrNotFound
			}
		}
		st.orders[o.ID] = copyOrder(*o)
		return nil
	})
}

func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var out *entity.Order
	err := r.access(ctx, func(st *state) error {
		if o, ok := st.orders[id]; ok {
			c := copyOrder(o)
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *OrderRepo) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	return r.access(ctx, func(st *state) error {
		o, ok := st.orders[id]
		if !ok || o.Status != entity.OrderStatusPending {
			return domain.ErrConflict
		}
		o.Status = entity.OrderStatusPaid
		o.PaidAt = &paidAt
		st.orders[id] = o
		return nil
	})
}

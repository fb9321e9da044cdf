package memory

import (
	"context"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

var _ repository.VariantRepository = (*VariantRepo)(nil)

// VariantRepo variantes en memoria.
type VariantRepo struct {
	access accessFunc
}

func (r *VariantRepo) Create(ctx context.Context, v *entity.Variant) error {
	return r.access(ctx, func(st *state) error {
		if _, ok := st.variants[v.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, existing := range st.variants {
			if existing.SKU == v.SKU {
				return domain.ErrDuplicate
			}
		}
		if v.TotalStock < 0 {
			return domain.NewValidationError("totalStock", "no puede ser negativo")
		}
		st.variants[v.ID] = *v
		return nil
	})
}

func (r *VariantRepo) GetByID(ctx context.Context, id string) (*entity.Variant, error) {
	var out *entity.Variant
	err := r.access(ctx, func(st *state) error {
		if v, ok := st.variants[id]; ok {
			out = &v
		}
		return nil
	})
	return out, err
}

// GetForUpdate equivale a GetByID: la transacción en memoria ya es exclusiva.
func (r *VariantRepo) GetForUpdate(ctx context.Context, id string) (*entity.Variant, error) {
	return r.GetByID(ctx, id)
}

func (r *VariantRepo) SetStock(ctx context.Context, id string, totalStock int) error {
	return r.access(ctx, func(st *state) error {
		v, ok := st.variants[id]
		if !ok {
			return domain.ErrNotFound
		}
		if totalStock < 0 {
			return domain.NewValidationError("totalStock", "no puede ser negativo")
		}
		v.TotalStock = totalStock
		st.variants[id] = v
		return nil
	})
}

func (r *VariantRepo) DecrementStockIfEnough(ctx context.Context, id string, qty int) (bool, error) {
	var ok bool
	err := r.access(ctx, func(st *state) error {
		v, found := st.variants[id]
		if !found || v.TotalStock < qty {
			return nil
		}
		v.TotalStock -= qty
		st.variants[id] = v
		ok = true
		return nil
	})
	return ok, err
}

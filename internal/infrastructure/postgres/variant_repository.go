package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

var _ repository.VariantRepository = (*VariantRepo)(nil)

// VariantRepo implementación de VariantRepository sobre PostgreSQL (usable con pool o tx).
type VariantRepo struct {
	q Querier
}

// NewVariantRepository construye el adaptador. Pasar pool o tx (Querier).
func NewVariantRepository(q Querier) *VariantRepo {
	return &VariantRepo{q: q}
}

const variantColumns = `id, product_id, sku, name, price, total_stock, created_at, updated_at`

// Create persiste una nueva variante.
func (r *VariantRepo) Create(ctx context.Context, v *entity.Variant) error {
	query := `
		INSERT INTO variants (` + variantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		v.ID, v.ProductID, v.SKU, v.Name, v.Price, v.TotalStock, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isCheckViolation(err) {
			return domain.NewValidationError("totalStock", "no puede ser negativo")
		}
		return fmt.Errorf("insert variant: %w", err)
	}
	return nil
}

// GetByID obtiene una variante por ID. (nil, nil) si no existe.
func (r *VariantRepo) GetByID(ctx context.Context, id string) (*entity.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM variants WHERE id = $1`
	return r.getOne(ctx, query, id, "get variant")
}

// GetForUpdate obtiene la variante y bloquea la fila (SELECT FOR UPDATE).
func (r *VariantRepo) GetForUpdate(ctx context.Context, id string) (*entity.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM variants WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id, "get variant for update")
}

func (r *VariantRepo) getOne(ctx context.Context, query, id, op string) (*entity.Variant, error) {
	var v entity.Variant
	err := r.q.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Price, &v.TotalStock, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isInvalidUUID(err) {
			return nil, domain.NewValidationError("variantId", "debe ser un UUID válido")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &v, nil
}

// SetStock ajuste administrativo del stock absoluto.
func (r *VariantRepo) SetStock(ctx context.Context, id string, totalStock int) error {
	query := `UPDATE variants SET total_stock = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, totalStock)
	if err != nil {
		if isCheckViolation(err) {
			return domain.NewValidationError("totalStock", "no puede ser negativo")
		}
		return fmt.Errorf("set variant stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DecrementStockIfEnough descuento atómico condicional: solo si total_stock >= qty.
func (r *VariantRepo) DecrementStockIfEnough(ctx context.Context, id string, qty int) (bool, error) {
	query := `
		UPDATE variants
		SET total_stock = total_stock - $2, updated_at = now()
		WHERE id = $1 AND total_stock >= $2`
	tag, err := r.q.Exec(ctx, query, id, qty)
	if err != nil {
		return false, fmt.Errorf("decrement variant stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

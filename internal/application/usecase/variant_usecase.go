package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/reservas-api/internal/application/dto"
	"github.com/jhoicas/reservas-api/internal/application/stock"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
	"golang.org/x/text/unicode/norm"
)

// VariantUseCase administración de variantes y de su stock físico.
type VariantUseCase struct {
	tx    stock.TxRunner
	repo  repository.VariantRepository
	stock *stock.Service
}

// NewVariantUseCase construye el caso de uso.
func NewVariantUseCase(tx stock.TxRunner, repo repository.VariantRepository, stockSvc *stock.Service) *VariantUseCase {
	return &VariantUseCase{tx: tx, repo: repo, stock: stockSvc}
}

// Create crea una variante con su stock inicial.
func (uc *VariantUseCase) Create(ctx context.Context, in dto.CreateVariantRequest) (*dto.VariantResponse, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	// NFC: "Pantalón" con tilde combinada o precompuesta se guarda igual.
	in.Name = norm.NFC.String(strings.TrimSpace(in.Name))
	if in.SKU == "" {
		return nil, domain.NewValidationError("sku", "es obligatorio")
	}
	if in.Name == "" {
		return nil, domain.NewValidationError("name", "es obligatorio")
	}
	if in.Price.IsNegative() {
		return nil, domain.NewValidationError("price", "no puede ser negativo")
	}
	if in.TotalStock < 0 {
		return nil, domain.NewValidationError("totalStock", "no puede ser negativo")
	}
	if in.ProductID != "" {
		if _, err := uuid.Parse(in.ProductID); err != nil {
			return nil, domain.NewValidationError("productId", "debe ser un UUID")
		}
	}

	now := uc.stock.Now()
	v := &entity.Variant{
		ID:         uuid.New().String(),
		ProductID:  in.ProductID,
		SKU:        in.SKU,
		Name:       in.Name,
		Price:      in.Price,
		TotalStock: in.TotalStock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return toVariantResponse(v), nil
}

// GetByID obtiene una variante. Devuelve ErrNotFound si no existe.
func (uc *VariantUseCase) GetByID(ctx context.Context, id string) (*dto.VariantResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	v, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.ErrNotFound
	}
	return toVariantResponse(v), nil
}

// AdjustStock fija el stock físico con la fila bloqueada, serializado con las reservas en curso.
// Las reservas existentes no se tocan: si superan el nuevo total, la disponibilidad se reporta en 0.
func (uc *VariantUseCase) AdjustStock(ctx context.Context, id string, in dto.AdjustStockRequest) (*dto.VariantResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	if in.TotalStock < 0 {
		return nil, domain.NewValidationError("totalStock", "no puede ser negativo")
	}

	var out *entity.Variant
	err := uc.tx.Run(ctx, func(variants repository.VariantRepository, _ repository.ReservationRepository) error {
		v, err := variants.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if v == nil {
			return domain.ErrNotFound
		}
		if err := variants.SetStock(ctx, id, in.TotalStock); err != nil {
			return err
		}
		v.TotalStock = in.TotalStock
		v.UpdatedAt = uc.stock.Now()
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toVariantResponse(out), nil
}

func toVariantResponse(v *entity.Variant) *dto.VariantResponse {
	return &dto.VariantResponse{
		ID:         v.ID,
		ProductID:  v.ProductID,
		SKU:        v.SKU,
		Name:       v.Name,
		Price:      v.Price,
		TotalStock: v.TotalStock,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

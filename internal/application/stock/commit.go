package stock

import (
	"context"
	"errors"
	"sort"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

var errNegativeStock = errors.New("el descuento dejaría el stock negativo")

// CommitLine línea comprada: VariantID vacío = línea sin variante (no toca stock).
type CommitLine struct {
	VariantID string
	Quantity  int
}

// Commit convierte las reservas de la sesión en descuento definitivo de stock, en una sola transacción.
// Se invoca exactamente una vez por pago autorizado.
func (s *Service) Commit(ctx context.Context, sessionID string, lines []CommitLine) error {
	return s.tx.Run(ctx, func(
		variants repository.VariantRepository,
		reservations repository.ReservationRepository,
	) error {
		return s.CommitInTx(ctx, variants, reservations, sessionID, lines)
	})
}

// CommitInTx ejecuta la finalización con los repositorios de la transacción del caller
// (el flujo de pago marca el pedido como pagado en la misma tx).
//
// Por cada variante: descuento condicional (total_stock >= qty) y limpieza del ledger según el
// alcance configurado. Si el stock quedaría negativo es un ConsistencyError fatal: nunca se
// ajusta a cero en silencio y la transacción completa se revierte.
func (s *Service) CommitInTx(
	ctx context.Context,
	variants repository.VariantRepository,
	reservations repository.ReservationRepository,
	sessionID string,
	lines []CommitLine,
) error {
	merged, err := mergeLines(lines)
	if err != nil {
		return err
	}
	if s.releaseScope == ReleaseScopeSession {
		if err := validateSessionID(sessionID); err != nil {
			return err
		}
	}

	units := 0
	for _, line := range merged {
		ok, err := variants.DecrementStockIfEnough(ctx, line.VariantID, line.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			s.metrics.ConsistencyFailure("commit")
			cerr := &domain.ConsistencyError{VariantID: line.VariantID, Op: "commit", Err: errNegativeStock}
			if v, gerr := variants.GetByID(ctx, line.VariantID); gerr == nil && v == nil {
				cerr.Err = errors.New("la variante vendida no existe")
			}
			s.log.Error().
				Err(cerr).
				Str("session_id", sessionID).
				Str("variant_id", line.VariantID).
				Int("quantity", line.Quantity).
				Msg("finalización requiere conciliación manual")
			return cerr
		}

		if s.releaseScope == ReleaseScopeSession {
			_, err = reservations.DeleteBySessionAndVariant(ctx, sessionID, line.VariantID)
		} else {
			_, err = reservations.DeleteByVariant(ctx, line.VariantID)
		}
		if err != nil {
			return err
		}
		units += line.Quantity
	}

	s.metrics.StockCommitted(units)
	return nil
}

// mergeLines agrupa por variante y ordena por ID para que dos finalizaciones concurrentes
// bloqueen las filas en el mismo orden.
func mergeLines(lines []CommitLine) ([]CommitLine, error) {
	byVariant := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.VariantID == "" {
			continue
		}
		if err := validateVariantID(l.VariantID); err != nil {
			return nil, err
		}
		if l.Quantity < 1 {
			return nil, domain.NewValidationError("quantity", "debe ser mayor o igual a 1")
		}
		byVariant[l.VariantID] += l.Quantity
	}
	out := make([]CommitLine, 0, len(byVariant))
	for id, qty := range byVariant {
		out = append(out, CommitLine{VariantID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VariantID < out[j].VariantID })
	return out, nil
}

// VerifyInTx comprueba, con las filas de las variantes bloqueadas, que la sesión puede llevarse
// cada línea sin consumir unidades retenidas por otras sesiones. Se ejecuta antes de CommitInTx
// en la misma transacción; no modifica nada salvo el barrido de vencidas.
func (s *Service) VerifyInTx(
	ctx context.Context,
	variants repository.VariantRepository,
	reservations repository.ReservationRepository,
	sessionID string,
	lines []CommitLine,
) error {
	merged, err := mergeLines(lines)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	for _, line := range merged {
		variant, err := variants.GetForUpdate(ctx, line.VariantID)
		if err != nil {
			return &domain.ConsistencyError{VariantID: line.VariantID, Op: "verify", Err: err}
		}
		if variant == nil {
			return domain.ErrNotFound
		}
		if err := s.sweepVariant(ctx, reservations, line.VariantID, now); err != nil {
			return err
		}
		active, err := reservations.ListActiveByVariant(ctx, line.VariantID, now)
		if err != nil {
			return &domain.ConsistencyError{VariantID: line.VariantID, Op: "verify", Err: err}
		}
		av := computeAvailability(variant, active, sessionID, now)
		if variant.TotalStock-av.ReservedByOthers < line.Quantity {
			return &domain.InsufficientStockError{
				VariantID:        line.VariantID,
				Requested:        line.Quantity,
				Available:        av.AvailableStock,
				ReservedByOthers: av.ReservedByOthers,
			}
		}
	}
	return nil
}

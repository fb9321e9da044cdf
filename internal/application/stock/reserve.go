package stock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

// ReserveInput solicitud de retener Quantity unidades de VariantID para SessionID.
type ReserveInput struct {
	SessionID string
	VariantID string
	Quantity  int
	UserID    string // opcional, informativo
}

// ReserveResult reserva resultante y stock que queda para el resto tras retenerla.
type ReserveResult struct {
	Reservation      HeldReservation
	TotalStock       int
	ReservedByOthers int
	AvailableStock   int
}

// Reserve crea o reemplaza la reserva de (SessionID, VariantID).
//
// Todo ocurre en una transacción: la fila de la variante se bloquea (SELECT FOR UPDATE), lo que
// serializa a todos los escritores del ledger de esa variante; luego se barren sus reservas
// vencidas, se suman las activas de otras sesiones y, si alcanza, se hace el upsert.
// Reservar dos veces no acumula: la segunda cantidad reemplaza a la primera.
func (s *Service) Reserve(ctx context.Context, in ReserveInput) (*ReserveResult, error) {
	if err := validateSessionID(in.SessionID); err != nil {
		return nil, err
	}
	if err := validateVariantID(in.VariantID); err != nil {
		return nil, err
	}
	if in.Quantity < 1 {
		return nil, domain.NewValidationError("quantity", "debe ser mayor o igual a 1")
	}

	now := s.clock.Now()
	var result *ReserveResult

	err := s.tx.Run(ctx, func(
		variants repository.VariantRepository,
		reservations repository.ReservationRepository,
	) error {
		variant, err := variants.GetForUpdate(ctx, in.VariantID)
		if err != nil {
			return s.reserveFailure(in.VariantID, err)
		}
		if variant == nil {
			return domain.ErrNotFound
		}

		if err := s.sweepVariant(ctx, reservations, in.VariantID, now); err != nil {
			return err
		}

		active, err := reservations.ListActiveByVariant(ctx, in.VariantID, now)
		if err != nil {
			return s.reserveFailure(in.VariantID, err)
		}
		av := computeAvailability(variant, active, in.SessionID, now)

		if variant.TotalStock-av.ReservedByOthers < in.Quantity {
			return &domain.InsufficientStockError{
				VariantID:        in.VariantID,
				Requested:        in.Quantity,
				Available:        av.AvailableStock,
				ReservedByOthers: av.ReservedByOthers,
			}
		}

		res := &entity.Reservation{
			ID:        uuid.New().String(),
			SessionID: in.SessionID,
			VariantID: in.VariantID,
			Quantity:  in.Quantity,
			ExpiresAt: now.Add(s.holdDuration),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if in.UserID != "" {
			userID := in.UserID
			res.UserID = &userID
		}
		saved, err := reservations.Upsert(ctx, res)
		if err != nil {
			return s.reserveFailure(in.VariantID, err)
		}

		result = &ReserveResult{
			Reservation:      toHeld(saved, now),
			TotalStock:       variant.TotalStock,
			ReservedByOthers: av.ReservedByOthers,
			AvailableStock:   variant.TotalStock - av.ReservedByOthers - in.Quantity,
		}
		return nil
	})
	if err != nil {
		var insufficient *domain.InsufficientStockError
		if errors.As(err, &insufficient) {
			s.metrics.ReservationRejected()
		}
		return nil, err
	}

	s.metrics.ReservationCreated()
	s.log.Debug().
		Str("session_id", in.SessionID).
		Str("variant_id", in.VariantID).
		Int("quantity", in.Quantity).
		Int("available", result.AvailableStock).
		Msg("reserva creada")
	return result, nil
}

// reserveFailure registra un fallo de almacenamiento dentro de la transacción de reserva.
func (s *Service) reserveFailure(variantID string, err error) error {
	s.metrics.ConsistencyFailure("reserve")
	s.log.Error().Err(err).Str("variant_id", variantID).Msg("fallo de almacenamiento al reservar")
	return &domain.ConsistencyError{VariantID: variantID, Op: "reserve", Err: err}
}

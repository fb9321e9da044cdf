package stock

import (
	"context"
	"time"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

// Availability stock disponible para una sesión en un instante. Nunca se persiste.
type Availability struct {
	VariantID        string
	TotalStock       int
	AvailableStock   int
	ReservedByOthers int
	ReservedByMe     int
	MyReservations   []HeldReservation
}

// Availability calcula TotalStock - reservas activas de otras sesiones.
// La reserva propia no se descuenta. sessionID vacío = ninguna reserva es propia.
// Solo lectura, salvo las eliminaciones del barrido previo.
func (s *Service) Availability(ctx context.Context, variantID, sessionID string) (*Availability, error) {
	if err := validateVariantID(variantID); err != nil {
		return nil, err
	}
	if len(sessionID) > maxSessionIDLength {
		return nil, domain.NewValidationError("sessionId", "excede 255 caracteres")
	}

	now := s.clock.Now()
	if err := s.sweepVariant(ctx, s.reservations, variantID, now); err != nil {
		return nil, err
	}

	variant, err := s.variants.GetByID(ctx, variantID)
	if err != nil {
		s.metrics.ConsistencyFailure("availability")
		return nil, &domain.ConsistencyError{VariantID: variantID, Op: "availability", Err: err}
	}
	if variant == nil {
		return nil, domain.ErrNotFound
	}

	active, err := s.reservations.ListActiveByVariant(ctx, variantID, now)
	if err != nil {
		s.metrics.ConsistencyFailure("availability")
		return nil, &domain.ConsistencyError{VariantID: variantID, Op: "availability", Err: err}
	}

	return computeAvailability(variant, active, sessionID, now), nil
}

// computeAvailability separa las reservas en propias y ajenas.
// Vuelve a filtrar por vigencia: la corrección no depende de que el barrido haya corrido.
func computeAvailability(variant *entity.Variant, active []*entity.Reservation, sessionID string, now time.Time) *Availability {
	out := &Availability{
		VariantID:      variant.ID,
		TotalStock:     variant.TotalStock,
		MyReservations: []HeldReservation{},
	}
	for _, r := range active {
		if !r.IsActive(now) {
			continue
		}
		if sessionID != "" && r.SessionID == sessionID {
			out.ReservedByMe += r.Quantity
			out.MyReservations = append(out.MyReservations, toHeld(r, now))
			continue
		}
		out.ReservedByOthers += r.Quantity
	}
	out.AvailableStock = clampZero(out.TotalStock - out.ReservedByOthers)
	return out
}

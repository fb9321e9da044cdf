package stock

import (
	"context"

	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

// Stats cuenta reservas activas y vencidas sin eliminar nada.
func (s *Service) Stats(ctx context.Context) (*entity.ReservationStats, error) {
	return s.reservations.Stats(ctx, s.clock.Now())
}

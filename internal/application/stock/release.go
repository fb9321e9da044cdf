package stock

import "context"

// Release elimina las reservas activas de la sesión, opcionalmente solo las de variantID.
// Primero barre las vencidas, así el conteo solo incluye reservas que seguían vigentes.
// Cero eliminaciones es un resultado válido. Se invoca al modificar el carrito y, sin garantía
// de entrega, al cerrar la página: el vencimiento sigue siendo la única limpieza confiable.
func (s *Service) Release(ctx context.Context, sessionID, variantID string) (int64, error) {
	if err := validateSessionID(sessionID); err != nil {
		return 0, err
	}
	if variantID != "" {
		if err := validateVariantID(variantID); err != nil {
			return 0, err
		}
	}

	var (
		n   int64
		err error
	)
	if variantID == "" {
		if _, err := s.sweep(ctx, SweepSourceRequest); err != nil {
			return 0, err
		}
		n, err = s.reservations.DeleteBySession(ctx, sessionID)
	} else {
		if err := s.sweepVariant(ctx, s.reservations, variantID, s.clock.Now()); err != nil {
			return 0, err
		}
		n, err = s.reservations.DeleteBySessionAndVariant(ctx, sessionID, variantID)
	}
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.metrics.ReservationsReleased(n)
	}
	return n, nil
}

package repository

import (
	"context"
	"time"

	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

// ReservationRepository define el puerto del Reservation Ledger.
// Todas las operaciones de borrado devuelven la cantidad de filas eliminadas.
type ReservationRepository interface {
	// ListActiveByVariant devuelve las reservas con expires_at > now de la variante.
	ListActiveByVariant(ctx context.Context, variantID string, now time.Time) ([]*entity.Reservation, error)
	// Upsert inserta o reemplaza (cantidad y vencimiento) la reserva de (session_id, variant_id).
	// Devuelve la fila resultante.
	Upsert(ctx context.Context, r *entity.Reservation) (*entity.Reservation, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteExpiredByVariant(ctx context.Context, variantID string, now time.Time) (int64, error)
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
	DeleteBySessionAndVariant(ctx context.Context, sessionID, variantID string) (int64, error)
	DeleteByVariant(ctx context.Context, variantID string) (int64, error)
	Stats(ctx context.Context, now time.Time) (*entity.ReservationStats, error)
}

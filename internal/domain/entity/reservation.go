package entity

import "time"

// Reservation retención temporal de unidades de una variante por una sesión de navegador.
// Hay como máximo una fila por (SessionID, VariantID): renovar reemplaza cantidad y vencimiento.
type Reservation struct {
	ID        string
	SessionID string // token opaco generado por el cliente, no es credencial
	VariantID string
	Quantity  int
	ExpiresAt time.Time
	UserID    *string // informativo: cuenta autenticada que retiene, si existe
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive informa si la reserva sigue vigente en now (now < ExpiresAt).
func (r *Reservation) IsActive(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

// ReservationStats conteos del ledger para el endpoint interno de limpieza.
type ReservationStats struct {
	Active  int64
	Expired int64
	Total   int64
}

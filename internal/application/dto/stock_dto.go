package dto

import "time"

// AvailabilityQuery parámetros de GET /api/stock/availability.
type AvailabilityQuery struct {
	VariantID string `query:"variantId" validate:"required,uuid"`
	SessionID string `query:"sessionId" validate:"max=255"`
}

// HeldReservationResponse reserva vigente vista por su dueño.
type HeldReservationResponse struct {
	ID               string    `json:"id"`
	Quantity         int       `json:"quantity"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RemainingMinutes int       `json:"remainingMinutes"`
}

// AvailabilityResponse disponibilidad de una variante para la sesión que consulta.
type AvailabilityResponse struct {
	VariantID        string                    `json:"variantId"`
	TotalStock       int                       `json:"totalStock"`
	AvailableStock   int                       `json:"availableStock"`
	ReservedByOthers int                       `json:"reservedByOthers"`
	ReservedByMe     int                       `json:"reservedByMe"`
	MyReservations   []HeldReservationResponse `json:"myReservations"`
}

// ReserveRequest cuerpo de POST /api/stock/reserve.
type ReserveRequest struct {
	SessionID string `json:"sessionId" validate:"required,max=255"`
	VariantID string `json:"variantId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

// ReserveResponse reserva creada o reemplazada.
type ReserveResponse struct {
	Reservation    HeldReservationResponse `json:"reservation"`
	AvailableStock int                     `json:"availableStock"`
}

// InsufficientStockResponse cuerpo 400 cuando no alcanza el stock.
type InsufficientStockResponse struct {
	Error             string `json:"error"`
	AvailableStock    int    `json:"availableStock"`
	RequestedQuantity int    `json:"requestedQuantity"`
	ReservedQuantity  int    `json:"reservedQuantity"`
}

// ReleaseRequest cuerpo de DELETE /api/stock/reserve y POST /api/stock/release.
type ReleaseRequest struct {
	SessionID string `json:"sessionId" validate:"required,max=255"`
	VariantID string `json:"variantId" validate:"omitempty,uuid"`
}

// ReleaseResponse cantidad de reservas eliminadas.
type ReleaseResponse struct {
	ReleasedReservations int64 `json:"releasedReservations"`
}

// CleanupResponse reservas vencidas eliminadas por el barrido manual.
type CleanupResponse struct {
	CleanedReservations int64 `json:"cleanedReservations"`
}

// ReservationStatsResponse conteos del ledger.
type ReservationStatsResponse struct {
	ActiveReservations  int64 `json:"activeReservations"`
	ExpiredReservations int64 `json:"expiredReservations"`
	TotalReservations   int64 `json:"totalReservations"`
}

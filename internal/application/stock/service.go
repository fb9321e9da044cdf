package stock

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/reservas-api/internal/clock"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
	"github.com/jhoicas/reservas-api/pkg/logger"
)

// DefaultHoldDuration TTL de una reserva si no se configura otro.
const DefaultHoldDuration = 45 * time.Minute

const maxSessionIDLength = 255

// ReleaseScope alcance de la limpieza del ledger al confirmar una venta.
type ReleaseScope string

const (
	// ReleaseScopeVariant elimina todas las reservas de la variante vendida, obligando a
	// todas las sesiones a revalidar contra el nuevo total.
	ReleaseScopeVariant ReleaseScope = "variant"
	// ReleaseScopeSession elimina solo las reservas de la sesión compradora.
	ReleaseScopeSession ReleaseScope = "session"
)

// Service motor de reservas de stock: barrido, disponibilidad, reserva, liberación y finalización.
// No mantiene estado compartido en memoria; toda la coordinación ocurre en el almacenamiento.
type Service struct {
	tx           TxRunner
	variants     repository.VariantRepository
	reservations repository.ReservationRepository
	clock        clock.Clock
	holdDuration time.Duration
	releaseScope ReleaseScope
	metrics      Metrics
	log          *logger.Logger
}

// Option configura el Service.
type Option func(*Service)

// WithHoldDuration sobrescribe el TTL de las reservas nuevas o renovadas.
func WithHoldDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.holdDuration = d
		}
	}
}

// WithReleaseScope define qué reservas se eliminan al confirmar una venta.
func WithReleaseScope(scope ReleaseScope) Option {
	return func(s *Service) {
		if scope == ReleaseScopeVariant || scope == ReleaseScopeSession {
			s.releaseScope = scope
		}
	}
}

// WithMetrics registra los eventos del motor en m.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger inyecta el logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService construye el motor. variants y reservations son los repositorios fuera de transacción.
func NewService(
	tx TxRunner,
	variants repository.VariantRepository,
	reservations repository.ReservationRepository,
	clk clock.Clock,
	opts ...Option,
) *Service {
	s := &Service{
		tx:           tx,
		variants:     variants,
		reservations: reservations,
		clock:        clk,
		holdDuration: DefaultHoldDuration,
		releaseScope: ReleaseScopeVariant,
		metrics:      nopMetrics{},
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HoldDuration devuelve el TTL configurado.
func (s *Service) HoldDuration() time.Duration { return s.holdDuration }

// Now expone el reloj del servicio (para calcular minutos restantes fuera del motor).
func (s *Service) Now() time.Time { return s.clock.Now() }

// HeldReservation vista de una reserva con los minutos que le quedan.
type HeldReservation struct {
	ID               string
	VariantID        string
	Quantity         int
	ExpiresAt        time.Time
	RemainingMinutes int
}

func toHeld(r *entity.Reservation, now time.Time) HeldReservation {
	return HeldReservation{
		ID:               r.ID,
		VariantID:        r.VariantID,
		Quantity:         r.Quantity,
		ExpiresAt:        r.ExpiresAt,
		RemainingMinutes: RemainingMinutes(r.ExpiresAt, now),
	}
}

// RemainingMinutes minutos (redondeo hacia arriba) hasta expiresAt; nunca negativo.
func RemainingMinutes(expiresAt, now time.Time) int {
	left := expiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Minutes()))
}

func validateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return domain.NewValidationError("sessionId", "es requerido")
	}
	if len(sessionID) > maxSessionIDLength {
		return domain.NewValidationError("sessionId", "excede 255 caracteres")
	}
	return nil
}

func validateVariantID(variantID string) error {
	if variantID == "" {
		return domain.NewValidationError("variantId", "es requerido")
	}
	if _, err := uuid.Parse(variantID); err != nil {
		return domain.NewValidationError("variantId", "debe ser un UUID válido")
	}
	return nil
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

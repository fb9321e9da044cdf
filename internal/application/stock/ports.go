package stock

import (
	"context"
	"time"

	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza que la verificación de disponibilidad y el upsert de la reserva sean atómicos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		variants repository.VariantRepository,
		reservations repository.ReservationRepository,
	) error) error
}

// Locker lock distribuido con TTL. Lo usa el barrido en segundo plano para que
// solo una réplica barra por intervalo.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, acquired bool, err error)
}

// Metrics registra los eventos del motor de reservas.
type Metrics interface {
	ReservationCreated()
	ReservationRejected()
	ReservationsReleased(n int64)
	ReservationsSwept(n int64, source string)
	StockCommitted(units int)
	ConsistencyFailure(op string)
}

type nopMetrics struct{}

func (nopMetrics) ReservationCreated()             {}
func (nopMetrics) ReservationRejected()            {}
func (nopMetrics) ReservationsReleased(int64)      {}
func (nopMetrics) ReservationsSwept(int64, string) {}
func (nopMetrics) StockCommitted(int)              {}
func (nopMetrics) ConsistencyFailure(string)       {}

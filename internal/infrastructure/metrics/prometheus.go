package metrics

import (
	"github.com/jhoicas/reservas-api/internal/application/stock"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reservas"

var _ stock.Metrics = (*Prometheus)(nil)

// Prometheus métricas del motor de reservas.
type Prometheus struct {
	reservations *prometheus.CounterVec
	released     prometheus.Counter
	swept        *prometheus.CounterVec
	committed    prometheus.Counter
	consistency  *prometheus.CounterVec
}

// NewPrometheus crea y registra los contadores en reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	m := &Prometheus{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Solicitudes de reserva por resultado.",
		}, []string{"result"}),
		released: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_released_total",
			Help:      "Reservas liberadas explícitamente por la sesión.",
		}),
		swept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_swept_total",
			Help:      "Reservas vencidas eliminadas por el barrido.",
		}, []string{"source"}),
		committed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_committed_units_total",
			Help:      "Unidades descontadas del stock físico por ventas confirmadas.",
		}),
		consistency: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consistency_failures_total",
			Help:      "Errores de consistencia por operación.",
		}, []string{"op"}),
	}

	for _, c := range []prometheus.Collector{m.reservations, m.released, m.swept, m.committed, m.consistency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Prometheus) ReservationCreated()  { m.reservations.WithLabelValues("created").Inc() }
func (m *Prometheus) ReservationRejected() { m.reservations.WithLabelValues("rejected").Inc() }

func (m *Prometheus) ReservationsReleased(n int64) { m.released.Add(float64(n)) }

func (m *Prometheus) ReservationsSwept(n int64, source string) {
	m.swept.WithLabelValues(source).Add(float64(n))
}

func (m *Prometheus) StockCommitted(units int) { m.committed.Add(float64(units)) }

func (m *Prometheus) ConsistencyFailure(op string) { m.consistency.WithLabelValues(op).Inc() }

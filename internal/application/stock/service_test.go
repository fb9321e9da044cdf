package stock_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reservas-api/internal/application/stock"
	"github.com/jhoicas/reservas-api/internal/clock"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
	"github.com/jhoicas/reservas-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	clk   *clock.Manual
	svc   *stock.Service
}

func newFixture(t *testing.T, opts ...stock.Option) *fixture {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewManual(t0)
	svc := stock.NewService(store, store.Variants(), store.Reservations(), clk, opts...)
	return &fixture{store: store, clk: clk, svc: svc}
}

// addVariant crea una variante con el stock indicado y devuelve su ID.
func (f *fixture) addVariant(t *testing.T, total int) string {
	t.Helper()
	id := uuid.NewString()
	err := f.store.Variants().Create(context.Background(), &entity.Variant{
		ID:         id,
		SKU:        "SKU-" + id[:8],
		Name:       "Camiseta",
		Price:      decimal.NewFromInt(50000),
		TotalStock: total,
		CreatedAt:  t0,
		UpdatedAt:  t0,
	})
	require.NoError(t, err)
	return id
}

// holdAt inserta una reserva con vencimiento arbitrario, sin pasar por Reserve.
func (f *fixture) holdAt(t *testing.T, sessionID, variantID string, qty int, expiresAt time.Time) {
	t.Helper()
	_, err := f.store.Reservations().Upsert(context.Background(), &entity.Reservation{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		VariantID: variantID,
		Quantity:  qty,
		ExpiresAt: expiresAt,
		CreatedAt: t0,
		UpdatedAt: t0,
	})
	require.NoError(t, err)
}

func (f *fixture) totalStock(t *testing.T, variantID string) int {
	t.Helper()
	v, err := f.store.Variants().GetByID(context.Background(), variantID)
	require.NoError(t, err)
	require.NotNil(t, v)
	return v.TotalStock
}

func (f *fixture) reserve(sessionID, variantID string, qty int) (*stock.ReserveResult, error) {
	return f.svc.Reserve(context.Background(), stock.ReserveInput{SessionID: sessionID, VariantID: variantID, Quantity: qty})
}

// ──────────────────────────────────────────────────────────────────────────────
// Reserve / Release
// ──────────────────────────────────────────────────────────────────────────────

// Escenario: reservar, rechazar por falta de stock, liberar y volver a reservar.
func TestReserve_ReservarYLiberar(t *testing.T) {
	f := newFixture(t)
	v := f.addVariant(t, 10)

	res, err := f.reserve("A", v, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, res.AvailableStock)
	assert.Equal(t, 4, res.Reservation.Quantity)
	assert.Equal(t, 45, res.Reservation.RemainingMinutes)
	assert.Equal(t, t0.Add(45*time.Minute), res.Reservation.ExpiresAt)

	_, err = f.reserve("B", v, 7)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 6, insufficient.Available)
	assert.Equal(t, 7, insufficient.Requested)
	assert.Equal(t, 4, insufficient.ReservedByOthers)

	n, err := f.svc.Release(context.Background(), "A", v)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	res, err = f.reserve("B", v, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, res.AvailableStock)

	// el stock físico nunca cambia por reservar
	assert.Equal(t, 10, f.totalStock(t, v))
}

// Reservar dos veces la misma (sesión, variante) reemplaza la cantidad.
func TestReserve_ReemplazaNoAcumula(t *testing.T) {
	f := newFixture(t)
	v := f.addVariant(t, 10)

	first, err := f.reserve("A", v, 3)
	require.NoError(t, err)

	f.clk.Advance(10 * time.Minute)
	second, err := f.reserve("A", v, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, second.AvailableStock)
	assert.Equal(t, first.Reservation.ID, second.Reservation.ID, "la fila se actualiza, no se duplica")
	assert.Equal(t, f.clk.Now().Add(45*time.Minute), second.Reservation.ExpiresAt, "el vencimiento se renueva")

	av, err := f.svc.Availability(context.Background(), v, "A")
	require.NoError(t, err)
	assert.Equal(t, 5, av.ReservedByMe)
	require.Len(t, av.MyReservations, 1)
	assert.Equal(t, 5, av.MyReservations[0].Quantity)

	st, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Total)
}

// La reserva propia no cuenta contra la misma sesión al volver a reservar.
func TestReserve_ReservaPropiaNoSeDescuenta(t *testing.T) {
	f := newFixture(t)
	v := f.addVariant(t, 5)

	_, err := f.reserve("A", v, 5)
	require.NoError(t, err)

	// A puede subir o bajar su cantidad hasta el total
	res, err := f.reserve("A", v, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, res.AvailableStock)

	res, err = f.reserve("A", v, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, res.AvailableStock)

	av, err := f.svc.Availability(context.Background(), v, "A")
	require.NoError(t, err)
	assert.Equal(t, 5, av.AvailableStock)
	assert.Equal(t, 0, av.ReservedByOthers)
	assert.Equal(t, 2, av.ReservedByMe)

	av, err = f.svc.Availability(context.Background(), v, "B")
	require.NoError(t, err)
	assert.Equal(t, 3, av.AvailableStock)
	assert.Equal(t, 2, av.ReservedByOthers)
	assert.Empty(t, av.MyReservations)
}

func TestReserve_Validacion(t *testing.T) {
	f := newFixture(t)
	v := f.addVariant(t, 10)
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'x'
	}

	cases := []struct {
		name  string
		in    stock.ReserveInput
		field string
	}{
		{"sin sesión", stock.ReserveInput{VariantID: v, Quantity: 1}, "sessionId"},
		{"sesión muy larga", stock.ReserveInput{SessionID: string(long), VariantID: v, Quantity: 1}, "sessionId"},
		{"sin variante", stock.ReserveInput{SessionID: "A", Quantity: 1}, "variantId"},
		{"variante no UUID", stock.ReserveInput{SessionID: "A", VariantID: "abc", Quantity: 1}, "variantId"},
		{"cantidad cero", stock.ReserveInput{SessionID: "A", VariantID: v, Quantity: 0}, "quantity"},
		{"cantidad negativa", stock.ReserveInput{SessionID: "A", VariantID: v, Quantity: -3}, "quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Reserve(context.Background(), tc.in)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	st, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.Total, "una solicitud inválida no deja efectos")
}

func TestReserve_VarianteInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.reserve("A", uuid.NewString(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Ninguna combinación de reservas concurrentes supera el stock total.
func TestReserve_ConcurrenteNoSobrevende(t *testing.T) {
	f := newFixture(t)
	v := f.addVariant(t, 10)

	const sessions = 40
	var (
		wg       sync.WaitGroup
		ok       atomic.Int64
		rejected atomic.Int64
	)
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.reserve(fmt.Sprintf("s-%d", i), v, 1+i%3)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(sessions), ok.Load()+rejected.Load())
	assert.Positive(t, ok.Load())

	av, err := f.svc.Availability(context.Background(), v, "")
	require.NoError(t, err)
	assert.LessOrEqual(t, av.ReservedByOthers, 10)
	assert.Equal(t, 10-av.ReservedByOthers, av.AvailableStock)
}

func TestRelease(t *testing.T) {
	f := newFixture(t)
	v1 := f.addVariant(t, 10)
	v2 := f.addVariant(t, 10)

	_, err := f.reserve("A", v1, 1)
	require.NoError(t, err)
	_, err = f.reserve("A", v2, 1)
	require.NoError(t, err)
	_, err = f.reserve("B", v1, 1)
	require.NoError(t, err)

	// Caso: sin reservas es un resultado válido
	n, err := f.svc.Release(context.Background(), "C", "")
	require.NoError(t, err)
	assert.Zero(t, n)

	// Caso: toda la sesión
	n, err = f.svc.Release(context.Background(), "A", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Caso: validación
	_, err = f.svc.Release(context.Background(), "", v1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.Release(context.Background(), "B", "no-es-uuid")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	av, err := f.svc.Availability(context.Background(), v1, "B")
	require.NoError(t, err)
	assert.Equal(t, 1, av.ReservedByMe)
}

// Una reserva vencida no cuenta como liberada: el barrido previo ya la eliminó.
func TestRelease_ReservaVencidaNoCuenta(t *testing.T) {
	f := newFixture(t)
	v := f.addVariant(t, 10)

	_, err := f.reserve("A", v, 4)
	require.NoError(t, err)
	f.clk.Advance(46 * time.Minute)

	n, err := f.svc.Release(context.Background(), "A", v)
	require.NoError(t, err)
	assert.Zero(t, n)

	// sin variante: igual, solo cuentan las vigentes
	f.holdAt(t, "B", v, 1, t0.Add(time.Hour))
	f.holdAt(t, "B", f.addVariant(t, 5), 1, t0.Add(time.Minute))
	n, err = f.svc.Release(context.Background(), "B", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// ──────────────────────────────────────────────────────────────────────────────
// Vencimiento y barrido
// ──────────────────────────────────────────────────────────────────────────────

// Una reserva vencida no bloquea a otras sesiones.
func TestReserve_ReservaVencidaNoBloquea(t *testing.T) {
	f := newFixture(t)
	v := f.addVariant(t, 10)
	f.holdAt(t, "A", v, 10, t0.Add(-time.Second))

	res, err := f.reserve("B", v, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, res.AvailableStock)

	st, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Total, "la reserva vencida de A fue barrida")
}

func TestAvailability_Vencimiento(t *testing.T) {
	f := newFixture(t)
	v := f.addVariant(t, 10)

	_, err := f.reserve("A", v, 4)
	require.NoError(t, err)

	// un instante antes del vencimiento sigue activa
	f.clk.Advance(45*time.Minute - time.Second)
	av, err := f.svc.Availability(context.Background(), v, "B")
	require.NoError(t, err)
	assert.Equal(t, 6, av.AvailableStock)

	av, err = f.svc.Availability(context.Background(), v, "A")
	require.NoError(t, err)
	require.Len(t, av.MyReservations, 1)
	assert.Equal(t, 1, av.MyReservations[0].RemainingMinutes)

	// en expiresAt exacto ya no está activa
	f.clk.Advance(time.Second)
	av, err = f.svc.Availability(context.Background(), v, "B")
	require.NoError(t, err)
	assert.Equal(t, 10, av.AvailableStock)
	assert.Zero(t, av.ReservedByOthers)

	st, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.Total, "la consulta barre las vencidas de la variante")
}

func TestSweep_Idempotente(t *testing.T) {
	f := newFixture(t)
	v := f.addVariant(t, 10)
	f.holdAt(t, "A", v, 1, t0.Add(-time.Minute))
	f.holdAt(t, "B", v, 1, t0.Add(-time.Second))
	f.holdAt(t, "C", v, 1, t0.Add(time.Minute))

	n, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	st, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStats{Active: 1, Expired: 0, Total: 1}, *st)
}

func TestSweep_FalloDeAlmacenamiento(t *testing.T) {
	f := newFixture(t)
	v := f.addVariant(t, 10)
	f.store.SetFailure(errors.New("disco lleno"))
	defer f.store.SetFailure(nil)

	_, err := f.svc.Sweep(context.Background())
	assert.ErrorIs(t, err, domain.ErrConsistency)

	_, err = f.svc.Availability(context.Background(), v, "A")
	assert.ErrorIs(t, err, domain.ErrConsistency)
}

func TestStats_NoElimina(t *testing.T) {
	f := newFixture(t)
	v := f.addVariant(t, 10)
	f.holdAt(t, "A", v, 1, t0.Add(-time.Minute))
	f.holdAt(t, "B", v, 2, t0.Add(time.Minute))

	for i := 0; i < 2; i++ {
		st, err := f.svc.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), st.Active)
		assert.Equal(t, int64(1), st.Expired)
		assert.Equal(t, int64(2), st.Total)
	}
}

func TestAvailability_Validacion(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Availability(context.Background(), "", "A")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Availability(context.Background(), uuid.NewString(), "A")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// El stock reducido por debajo de lo reservado se reporta como 0, nunca negativo.
func TestAvailability_NuncaNegativa(t *testing.T) {
	f := newFixture(t)
	v := f.addVariant(t, 10)
	_, err := f.reserve("A", v, 8)
	require.NoError(t, err)
	require.NoError(t, f.store.Variants().SetStock(context.Background(), v, 5))

	av, err := f.svc.Availability(context.Background(), v, "B")
	require.NoError(t, err)
	assert.Equal(t, 0, av.AvailableStock)
	assert.Equal(t, 8, av.ReservedByOthers)
}

func TestRemainingMinutes(t *testing.T) {
	cases := []struct {
		left time.Duration
		want int
	}{
		{45 * time.Minute, 45},
		{44*time.Minute + time.Second, 45},
		{30 * time.Second, 1},
		{0, 0},
		{-5 * time.Minute, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, stock.RemainingMinutes(t0.Add(tc.left), t0), tc.left.String())
	}
}

func TestWithHoldDuration(t *testing.T) {
	f := newFixture(t, stock.WithHoldDuration(10*time.Minute))
	v := f.addVariant(t, 1)

	res, err := f.reserve("A", v, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Reservation.RemainingMinutes)
	assert.Equal(t, 10*time.Minute, f.svc.HoldDuration())
}

// ──────────────────────────────────────────────────────────────────────────────
// Fallos de almacenamiento dentro de la reserva
// ──────────────────────────────────────────────────────────────────────────────

// countingMetrics cuenta los fallos de consistencia por operación.
type countingMetrics struct {
	mu          sync.Mutex
	consistency map[string]int
}

func (m *countingMetrics) ReservationCreated() {}
func (m *countingMetrics) ReservationRejected() {}
func (m *countingMetrics) ReservationsReleased(int64) {}
func (m *countingMetrics) ReservationsSwept(int64, string) {}
func (m *countingMetrics) StockCommitted(int) {}
func (m *countingMetrics) ConsistencyFailure(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consistency == nil {
		m.consistency = map[string]int{}
	}
	m.consistency[op]++
}

// faultyTx envuelve la transacción del store y hace fallar una operación puntual.
type faultyTx struct {
	store      *memory.Store
	failLock   error
	failUpsert error
}

func (tx faultyTx) Run(ctx context.Context, fn func(repository.VariantRepository, repository.ReservationRepository) error) error {
	return tx.store.Run(ctx, func(variants repository.VariantRepository, reservations repository.ReservationRepository) error {
		return fn(
			faultyVariants{VariantRepository: variants, err: tx.failLock},
			faultyReservations{ReservationRepository: reservations, err: tx.failUpsert},
		)
	})
}

type faultyVariants struct {
	repository.VariantRepository
	err error
}

func (v faultyVariants) GetForUpdate(ctx context.Context, id string) (*entity.Variant, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.VariantRepository.GetForUpdate(ctx, id)
}

type faultyReservations struct {
	repository.ReservationRepository
	err error
}

func (r faultyReservations) Upsert(ctx context.Context, res *entity.Reservation) (*entity.Reservation, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.ReservationRepository.Upsert(ctx, res)
}

func TestReserve_FalloDeAlmacenamiento(t *testing.T) {
	tests := []struct {
		name string
		tx   func(store *memory.Store) faultyTx
	}{
		{"bloqueo de la variante", func(store *memory.Store) faultyTx {
			return faultyTx{store: store, failLock: errors.New("conexión perdida")}
		}},
		{"upsert de la reserva", func(store *memory.Store) faultyTx {
			return faultyTx{store: store, failUpsert: errors.New("conexión perdida")}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			v := f.addVariant(t, 10)
			m := &countingMetrics{}
			svc := stock.NewService(tt.tx(f.store), f.store.Variants(), f.store.Reservations(), f.clk, stock.WithMetrics(m))

			_, err := svc.Reserve(context.Background(), stock.ReserveInput{SessionID: "A", VariantID: v, Quantity: 1})
			require.ErrorIs(t, err, domain.ErrConsistency)
			var cerr *domain.ConsistencyError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, "reserve", cerr.Op)
			assert.Equal(t, 1, m.consistency["reserve"])

			// nada quedó retenido
			av, err := f.svc.Availability(context.Background(), v, "A")
			require.NoError(t, err)
			assert.Zero(t, av.ReservedByMe)
		})
	}
}

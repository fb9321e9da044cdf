package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/reservas-api/internal/application/stock"
	"github.com/jhoicas/reservas-api/internal/application/usecase"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

var _ stock.TxRunner = (*Store)(nil)
var _ usecase.CheckoutTxRunner = (*Store)(nil)

type reservationKey struct {
	sessionID string
	variantID string
}

type state struct {
	variants     map[string]entity.Variant
	reservations map[reservationKey]entity.Reservation
	orders       map[string]entity.Order
	users        map[string]entity.User
}

func newState() *state {
	return &state{
		variants:     make(map[string]entity.Variant),
		reservations: make(map[reservationKey]entity.Reservation),
		orders:       make(map[string]entity.Order),
		users:        make(map[string]entity.User),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.variants {
		c.variants[k] = v
	}
	for k, r := range s.reservations {
		c.reservations[k] = copyReservation(r)
	}
	for k, o := range s.orders {
		c.orders[k] = copyOrder(o)
	}
	for k, u := range s.users {
		c.users[k] = u
	}
	return c
}

// Store almacenamiento en memoria (STORAGE_DRIVER=memory y tests).
// Las transacciones son serializables: Run toma el lock global, trabaja sobre una copia
// y solo la publica si fn no devuelve error.
type Store struct {
	mu      sync.Mutex
	st      *state
	failure error
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// SetFailure hace fallar todas las operaciones con err hasta SetFailure(nil).
func (s *Store) SetFailure(err error) {
	s.mu.Lock()
	s.failure = err
	s.mu.Unlock()
}

type accessFunc func(ctx context.Context, fn func(st *state) error) error

func (s *Store) direct(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return s.failure
	}
	return fn(s.st)
}

func (s *Store) inTx(work *state) accessFunc {
	return func(ctx context.Context, fn func(st *state) error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.failure != nil {
			return s.failure
		}
		return fn(work)
	}
}

// Variants repositorio fuera de transacción.
func (s *Store) Variants() *VariantRepo { return &VariantRepo{access: s.direct} }

// Reservations repositorio fuera de transacción.
func (s *Store) Reservations() *ReservationRepo { return &ReservationRepo{access: s.direct} }

// Orders repositorio fuera de transacción.
func (s *Store) Orders() *OrderRepo { return &OrderRepo{access: s.direct} }

// Users repositorio fuera de transacción.
func (s *Store) Users() *UserRepo { return &UserRepo{access: s.direct} }

// Run implementa stock.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(
	variants repository.VariantRepository,
	reservations repository.ReservationRepository,
) error) error {
	return s.run(ctx, func(access accessFunc) error {
		return fn(&VariantRepo{access: access}, &ReservationRepo{access: access})
	})
}

// RunCheckout implementa usecase.CheckoutTxRunner.
func (s *Store) RunCheckout(ctx context.Context, fn func(
	variants repository.VariantRepository,
	reservations repository.ReservationRepository,
	orders repository.OrderRepository,
) error) error {
	return s.run(ctx, func(access accessFunc) error {
		return fn(&VariantRepo{access: access}, &ReservationRepo{access: access}, &OrderRepo{access: access})
	})
}

func (s *Store) run(ctx context.Context, fn func(access accessFunc) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return s.failure
	}

	work := s.st.clone()
	if err := fn(s.inTx(work)); err != nil {
		return err
	}
	s.st = work
	return nil
}

func copyReservation(r entity.Reservation) entity.Reservation {
	if r.UserID != nil {
		u := *r.UserID
		r.UserID = &u
	}
	return r
}

func copyOrder(o entity.Order) entity.Order {
	o.Items = append([]entity.OrderItem(nil), o.Items...)
	if o.UserID != nil {
		u := *o.UserID
		o.UserID = &u
	}
	if o.PaidAt != nil {
		p := *o.PaidAt
		o.PaidAt = &p
	}
	return o
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/reservas-api/internal/application/stock"
	"github.com/jhoicas/reservas-api/internal/application/usecase"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

// Ensure TxRunner implements stock.TxRunner and usecase.CheckoutTxRunner.
var _ stock.TxRunner = (*TxRunner)(nil)
var _ usecase.CheckoutTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	variants repository.VariantRepository,
	reservations repository.ReservationRepository,
) error) error {
	return r.run(ctx, func(q Querier) error {
		return fn(NewVariantRepository(q), NewReservationRepository(q))
	})
}

// RunCheckout inicia una transacción con repos de inventario, ledger y pedidos (pago de un pedido).
func (r *TxRunner) RunCheckout(ctx context.Context, fn func(
	variants repository.VariantRepository,
	reservations repository.ReservationRepository,
	orders repository.OrderRepository,
) error) error {
	return r.run(ctx, func(q Querier) error {
		return fn(NewVariantRepository(q), NewReservationRepository(q), NewOrderRepository(q))
	})
}

func (r *TxRunner) run(ctx context.Context, fn func(q Querier) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

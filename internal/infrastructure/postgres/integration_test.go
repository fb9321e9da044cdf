package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reservas-api/internal/application/stock"
	"github.com/jhoicas/reservas-api/internal/clock"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/reservas-api/internal/infrastructure/postgres/migrations"
	"github.com/jhoicas/reservas-api/pkg/config"
)

// Requiere una base desechable: TEST_DATABASE_URL=postgres://... go test ./internal/infrastructure/postgres/
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = migrations.Apply(ctx, pool)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE order_items, orders, stock_reservations, variants, users`)
	require.NoError(t, err)
	return pool
}

func seedVariant(t *testing.T, pool *pgxpool.Pool, total int) string {
	t.Helper()
	id := uuid.NewString()
	now := time.Now().UTC()
	err := postgres.NewVariantRepository(pool).Create(context.Background(), &entity.Variant{
		ID: id, SKU: "SKU-" + id[:8], Name: "Pantalón", Price: decimal.RequireFromString("99900.50"),
		TotalStock: total, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return id
}

func newService(pool *pgxpool.Pool, clk clock.Clock) *stock.Service {
	return stock.NewService(
		postgres.NewTxRunner(pool),
		postgres.NewVariantRepository(pool),
		postgres.NewReservationRepository(pool),
		clk,
	)
}

func TestMigrations_Idempotentes(t *testing.T) {
	pool := testPool(t)
	applied, err := migrations.Apply(context.Background(), pool)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestVariantRepo(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := postgres.NewVariantRepository(pool)
	id := seedVariant(t, pool, 3)

	v, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, v.Price.Equal(decimal.RequireFromString("99900.50")))

	missing, err := repo.GetByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)

	ok, err := repo.DecrementStockIfEnough(ctx, id, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DecrementStockIfEnough(ctx, id, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, repo.SetStock(ctx, uuid.NewString(), 1), domain.ErrNotFound)

	err = repo.Create(ctx, &entity.Variant{ID: uuid.NewString(), SKU: v.SKU, Name: "dup"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestReservationRepo_UpsertYBarrido(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := postgres.NewReservationRepository(pool)
	v := seedVariant(t, pool, 10)
	now := time.Now().UTC().Truncate(time.Microsecond)

	first, err := repo.Upsert(ctx, &entity.Reservation{
		ID: uuid.NewString(), SessionID: "A", VariantID: v, Quantity: 3, ExpiresAt: now.Add(time.Minute), CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	second, err := repo.Upsert(ctx, &entity.Reservation{
		ID: uuid.NewString(), SessionID: "A", VariantID: v, Quantity: 5, ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	_, err = repo.Upsert(ctx, &entity.Reservation{
		ID: uuid.NewString(), SessionID: "B", VariantID: v, Quantity: 1, ExpiresAt: now.Add(-time.Second), CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	active, err := repo.ListActiveByVariant(ctx, v, now)
	require.NoError(t, err)
	require.Len(t, active, 1)

	st, err := repo.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStats{Active: 1, Expired: 1, Total: 2}, *st)

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// Con varias conexiones reales, el bloqueo de la fila evita sobreventa.
func TestService_ConcurrenteNoSobrevende(t *testing.T) {
	pool := testPool(t)
	svc := newService(pool, clock.NewSystem())
	v := seedVariant(t, pool, 10)

	var (
		wg sync.WaitGroup
		ok atomic.Int64
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), stock.ReserveInput{SessionID: fmt.Sprintf("s-%d", i), VariantID: v, Quantity: 1})
			if err == nil {
				ok.Add(1)
				return
			}
			if !errors.Is(err, domain.ErrInsufficientStock) {
				t.Errorf("error inesperado: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(10), ok.Load())
	av, err := svc.Availability(context.Background(), v, "")
	require.NoError(t, err)
	assert.Equal(t, 10, av.ReservedByOthers)
	assert.Zero(t, av.AvailableStock)
}

func TestService_CommitRevierteTodo(t *testing.T) {
	pool := testPool(t)
	svc := newService(pool, clock.NewSystem())
	v1 := seedVariant(t, pool, 5)
	v2 := seedVariant(t, pool, 1)

	_, err := svc.Reserve(context.Background(), stock.ReserveInput{SessionID: "A", VariantID: v1, Quantity: 2})
	require.NoError(t, err)

	err = svc.Commit(context.Background(), "A", []stock.CommitLine{{VariantID: v1, Quantity: 2}, {VariantID: v2, Quantity: 2}})
	assert.ErrorIs(t, err, domain.ErrConsistency)

	av, err := svc.Availability(context.Background(), v1, "A")
	require.NoError(t, err)
	assert.Equal(t, 5, av.TotalStock)
	assert.Equal(t, 2, av.ReservedByMe)

	require.NoError(t, svc.Commit(context.Background(), "A", []stock.CommitLine{{VariantID: v1, Quantity: 2}}))
	av, err = svc.Availability(context.Background(), v1, "A")
	require.NoError(t, err)
	assert.Equal(t, 3, av.TotalStock)
	assert.Zero(t, av.ReservedByMe)
}

func TestOrderRepo(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	v := seedVariant(t, pool, 5)
	repo := postgres.NewOrderRepository(pool)

	id := uuid.NewString()
	price := decimal.RequireFromString("99900.50")
	err := repo.Create(ctx, &entity.Order{
		ID: id, SessionID: "A", Status: entity.OrderStatusPending, Total: price.Mul(decimal.NewFromInt(2)),
		Items:     []entity.OrderItem{{VariantID: v, Quantity: 2, UnitPrice: price}},
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	o, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("199801")))

	require.NoError(t, repo.MarkPaid(ctx, id, time.Now().UTC()))
	assert.ErrorIs(t, repo.MarkPaid(ctx, id, time.Now().UTC()), domain.ErrConflict)

	missing, err := repo.GetByID(ctx, "no-uuid")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepo(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := postgres.NewUserRepository(pool)
	now := time.Now().UTC()

	u := &entity.User{
		ID: uuid.NewString(), Email: "ops@tienda.co", PasswordHash: "hash", Name: "Ops",
		Role: entity.RoleAdmin, Status: entity.UserStatusActive, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, u))

	dup := *u
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, repo.Create(ctx, &dup), domain.ErrDuplicate)

	got, err := repo.FindByEmail(ctx, "ops@tienda.co")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	missing, err := repo.FindByEmail(ctx, "nadie@tienda.co")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

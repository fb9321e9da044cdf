package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
	"github.com/jhoicas/reservas-api/internal/infrastructure/memory"
)

const (
	variantID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	orderID   = "9b2f0f1e-3c4d-4e5f-8a9b-0c1d2e3f4a5b"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *memory.Store, total int) {
	t.Helper()
	require.NoError(t, s.Variants().Create(context.Background(), &entity.Variant{
		ID: variantID, SKU: "SKU-1", Name: "Gorra", TotalStock: total, CreatedAt: now, UpdatedAt: now,
	}))
}

func TestStore_RunRevierteSiFalla(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, 5)
	boom := errors.New("boom")

	err := s.Run(context.Background(), func(v repository.VariantRepository, r repository.ReservationRepository) error {
		ok, err := v.DecrementStockIfEnough(context.Background(), variantID, 2)
		require.NoError(t, err)
		require.True(t, ok)
		_, err = r.Upsert(context.Background(), &entity.Reservation{
			ID: "r1", SessionID: "A", VariantID: variantID, Quantity: 1, ExpiresAt: now.Add(time.Hour),
		})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	v, err := s.Variants().GetByID(context.Background(), variantID)
	require.NoError(t, err)
	assert.Equal(t, 5, v.TotalStock)

	st, err := s.Reservations().Stats(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, st.Total)
}

func TestStore_RunConfirma(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, 5)

	err := s.Run(context.Background(), func(v repository.VariantRepository, _ repository.ReservationRepository) error {
		_, err := v.DecrementStockIfEnough(context.Background(), variantID, 5)
		return err
	})
	require.NoError(t, err)

	ok, err := s.Variants().DecrementStockIfEnough(context.Background(), variantID, 1)
	require.NoError(t, err)
	assert.False(t, ok, "el stock ya está en cero")
}

func TestReservationRepo_UpsertReemplaza(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, 5)
	repo := s.Reservations()
	user := "u1"

	first, err := repo.Upsert(context.Background(), &entity.Reservation{
		ID: "r1", SessionID: "A", VariantID: variantID, Quantity: 2, ExpiresAt: now.Add(time.Minute), UserID: &user,
	})
	require.NoError(t, err)

	second, err := repo.Upsert(context.Background(), &entity.Reservation{
		ID: "r2", SessionID: "A", VariantID: variantID, Quantity: 4, ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 4, second.Quantity)
	require.NotNil(t, second.UserID, "sin usuario nuevo se conserva el anterior")
	assert.Equal(t, "u1", *second.UserID)

	active, err := repo.ListActiveByVariant(context.Background(), variantID, now)
	require.NoError(t, err)
	require.Len(t, active, 1)

	// la copia devuelta no comparte memoria con el almacenamiento
	*active[0].UserID = "otro"
	again, err := repo.ListActiveByVariant(context.Background(), variantID, now)
	require.NoError(t, err)
	assert.Equal(t, "u1", *again[0].UserID)
}

func TestOrderRepo_MarkPaidUnaVez(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, 5)
	repo := s.Orders()

	require.NoError(t, repo.Create(context.Background(), &entity.Order{
		ID: orderID, SessionID: "A", Status: entity.OrderStatusPending,
		Items: []entity.OrderItem{{VariantID: variantID, Quantity: 1}},
	}))
	require.NoError(t, repo.MarkPaid(context.Background(), orderID, now))
	assert.ErrorIs(t, repo.MarkPaid(context.Background(), orderID, now), domain.ErrConflict)

	o, err := repo.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPaid, o.Status)

	missing, err := repo.GetByID(context.Background(), "nada")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_ContextoCancelado(t *testing.T) {
	s := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Variants().GetByID(ctx, variantID)
	assert.ErrorIs(t, err, context.Canceled)
}

package stock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reservas-api/internal/application/stock"
)

type fakeLocker struct {
	mu       sync.Mutex
	held     bool
	err      error
	unlocked int
	ttl      time.Duration
}

func (l *fakeLocker) TryLock(_ context.Context, _ string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ttl = ttl
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	l.held = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held = false
		l.unlocked++
		return nil
	}, true, nil
}

func TestBackgroundSweeper_RunOnce(t *testing.T) {
	f := newFixture(t)
	v := f.addVariant(t, 10)

	// Caso 1: lock libre → barre y lo suelta
	f.holdAt(t, "A", v, 1, t0.Add(-time.Minute))
	locker := &fakeLocker{}
	sw := stock.NewBackgroundSweeper(f.svc, 30*time.Second, locker, nil)

	n, swept, err := sw.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, swept)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, locker.unlocked)
	assert.Equal(t, 30*time.Second, locker.ttl)

	// Caso 2: otra réplica tiene el lock → no barre
	f.holdAt(t, "B", v, 1, t0.Add(-time.Minute))
	locker.held = true
	n, swept, err = sw.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, swept)
	assert.Zero(t, n)

	st, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Expired)

	// Caso 3: el lock falla → se barre igual
	locker.held = false
	locker.err = errors.New("redis caído")
	n, swept, err = sw.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, swept)
	assert.Equal(t, int64(1), n)
}

func TestBackgroundSweeper_SinLocker(t *testing.T) {
	f := newFixture(t)
	v := f.addVariant(t, 10)
	f.holdAt(t, "A", v, 1, t0.Add(-time.Minute))

	n, swept, err := stock.NewBackgroundSweeper(f.svc, 0, nil, nil).RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, swept)
	assert.Equal(t, int64(1), n)
}

func TestBackgroundSweeper_RunBarreHastaCancelar(t *testing.T) {
	f := newFixture(t)
	v := f.addVariant(t, 10)
	f.holdAt(t, "A", v, 1, t0.Add(-time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- stock.NewBackgroundSweeper(f.svc, 5*time.Millisecond, nil, nil).Run(ctx) }()

	assert.Eventually(t, func() bool {
		st, err := f.svc.Stats(context.Background())
		return err == nil && st.Total == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run no terminó al cancelar el contexto")
	}
}

func TestBackgroundSweeper_DesactivadoEsperaCancelacion(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- stock.NewBackgroundSweeper(f.svc, 0, nil, nil).Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run no terminó al cancelar el contexto")
	}
}

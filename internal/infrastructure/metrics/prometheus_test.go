package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheus(reg)
	require.NoError(t, err)

	m.ReservationCreated()
	m.ReservationCreated()
	m.ReservationRejected()
	m.ReservationsSwept(3, "background")
	m.StockCommitted(5)
	m.ConsistencyFailure("commit")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reservations.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reservations.WithLabelValues("rejected")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.swept.WithLabelValues("background")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.committed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.consistency.WithLabelValues("commit")))
}

func TestPrometheus_DoubleRegisterFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg)
	require.NoError(t, err)

	_, err = NewPrometheus(reg)
	assert.Error(t, err)
}

package clock

import (
	"sync"
	"time"
)

// Clock permite inyectar el tiempo en servicios y repositorios.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem devuelve un reloj respaldado por time.Now (UTC).
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Manual reloj controlable para tests: fijo hasta que se llame Set o Advance.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual devuelve un reloj manual que empieza en t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t.UTC()}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set fija el instante actual.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t.UTC()
	m.mu.Unlock()
}

// Advance adelanta el reloj d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

package stock

import (
	"context"
	"time"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
	"github.com/jhoicas/reservas-api/pkg/logger"
)

// Orígenes del barrido para métricas.
const (
	SweepSourceRequest    = "request"
	SweepSourceBackground = "background"
	SweepSourceManual     = "manual"
)

const sweepLockKey = "reservas:sweep-lock"

// Sweep elimina todas las reservas vencidas (expires_at <= now) del ledger.
// Es idempotente. Un fallo del almacenamiento se propaga como ConsistencyError porque
// cualquier lectura posterior de disponibilidad depende de haber barrido antes.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	return s.sweep(ctx, SweepSourceManual)
}

func (s *Service) sweep(ctx context.Context, source string) (int64, error) {
	n, err := s.reservations.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		s.metrics.ConsistencyFailure("sweep")
		s.log.Error().Err(err).Str("source", source).Msg("barrido de reservas vencidas")
		return 0, &domain.ConsistencyError{Op: "sweep", Err: err}
	}
	if n > 0 {
		s.metrics.ReservationsSwept(n, source)
	}
	return n, nil
}

// sweepVariant barrido oportunista acotado a una variante, con el repositorio indicado (pool o tx).
func (s *Service) sweepVariant(ctx context.Context, reservations repository.ReservationRepository, variantID string, now time.Time) error {
	n, err := reservations.DeleteExpiredByVariant(ctx, variantID, now)
	if err != nil {
		s.metrics.ConsistencyFailure("sweep")
		s.log.Error().Err(err).Str("variant_id", variantID).Msg("barrido de reservas vencidas de la variante")
		return &domain.ConsistencyError{VariantID: variantID, Op: "sweep", Err: err}
	}
	if n > 0 {
		s.metrics.ReservationsSwept(n, SweepSourceRequest)
	}
	return nil
}

// BackgroundSweeper barre el ledger a intervalo fijo. Es complementario: el barrido
// previo a cada lectura se mantiene y la corrección nunca depende de este proceso.
type BackgroundSweeper struct {
	svc      *Service
	interval time.Duration
	locker   Locker
	log      *logger.Logger
}

// NewBackgroundSweeper construye el barrido periódico. locker puede ser nil (una sola réplica).
func NewBackgroundSweeper(svc *Service, interval time.Duration, locker Locker, log *logger.Logger) *BackgroundSweeper {
	if log == nil {
		log = logger.Nop()
	}
	return &BackgroundSweeper{svc: svc, interval: interval, locker: locker, log: log}
}

// Run barre cada intervalo hasta que ctx se cancele. Con intervalo <= 0 solo espera la cancelación.
func (b *BackgroundSweeper) Run(ctx context.Context) error {
	if b.interval <= 0 {
		b.log.Info().Msg("barrido en segundo plano desactivado")
		<-ctx.Done()
		return nil
	}
	b.log.Info().Dur("interval", b.interval).Msg("barrido en segundo plano iniciado")

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.log.Info().Msg("barrido en segundo plano detenido")
			return nil
		case <-ticker.C:
			if _, _, err := b.RunOnce(ctx); err != nil && ctx.Err() == nil {
				b.log.Error().Err(err).Msg("barrido en segundo plano")
			}
		}
	}
}

// RunOnce ejecuta un barrido. swept=false indica que otra réplica tenía el lock.
// Si el lock no está disponible por un error (Redis caído) se barre igual: el barrido es idempotente.
func (b *BackgroundSweeper) RunOnce(ctx context.Context) (n int64, swept bool, err error) {
	if b.locker != nil {
		unlock, acquired, lockErr := b.locker.TryLock(ctx, sweepLockKey, b.lockTTL())
		switch {
		case lockErr != nil:
			b.log.Warn().Err(lockErr).Msg("lock de barrido no disponible, se barre sin coordinar")
		case !acquired:
			return 0, false, nil
		default:
			defer func() {
				if uerr := unlock(context.Background()); uerr != nil {
					b.log.Warn().Err(uerr).Msg("liberar lock de barrido")
				}
			}()
		}
	}

	n, err = b.svc.sweep(ctx, SweepSourceBackground)
	if err != nil {
		return 0, true, err
	}
	if n > 0 {
		b.log.Info().Int64("swept", n).Msg("reservas vencidas eliminadas")
	}
	return n, true, nil
}

func (b *BackgroundSweeper) lockTTL() time.Duration {
	if b.interval > 0 {
		return b.interval
	}
	return time.Minute
}

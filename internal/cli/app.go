package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/reservas-api/internal/application/stock"
	"github.com/jhoicas/reservas-api/internal/application/usecase"
	"github.com/jhoicas/reservas-api/internal/clock"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
	"github.com/jhoicas/reservas-api/internal/infrastructure/memory"
	"github.com/jhoicas/reservas-api/internal/infrastructure/metrics"
	"github.com/jhoicas/reservas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/reservas-api/internal/infrastructure/postgres/migrations"
	infraredis "github.com/jhoicas/reservas-api/internal/infrastructure/redis"
	"github.com/jhoicas/reservas-api/pkg/config"
	"github.com/jhoicas/reservas-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
)

type txRunner interface {
	stock.TxRunner
	usecase.CheckoutTxRunner
}

// app dependencias ya construidas de un proceso.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	pool  *pgxpool.Pool   // nil con STORAGE_DRIVER=memory
	redis *goredis.Client // nil sin REDIS_ADDR

	tx           txRunner
	variants     repository.VariantRepository
	reservations repository.ReservationRepository
	orders       repository.OrderRepository
	users        repository.UserRepository

	registry *prometheus.Registry
	stock    *stock.Service
	locker   stock.Locker
}

func loadConfig(opts *RootOptions) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("cargar configuración: %w", err)
	}
	if opts.LogLevel != "" {
		cfg.App.LogLevel = opts.LogLevel
	}
	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	return cfg, log, nil
}

// newApp conecta almacenamiento, Redis y métricas y construye el motor de reservas.
func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, log, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, registry: prometheus.NewRegistry()}

	switch cfg.Storage.Driver {
	case "memory":
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		a.tx = store
		a.variants = store.Variants()
		a.reservations = store.Reservations()
		a.orders = store.Orders()
		a.users = store.Users()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		a.pool = pool
		if cfg.DB.AutoMigrate {
			applied, err := migrations.Apply(ctx, pool)
			if err != nil {
				a.Close()
				return nil, err
			}
			log.Info().Strs("applied", applied).Msg("migraciones")
		}
		a.tx = postgres.NewTxRunner(pool)
		a.variants = postgres.NewVariantRepository(pool)
		a.reservations = postgres.NewReservationRepository(pool)
		a.orders = postgres.NewOrderRepository(pool)
		a.users = postgres.NewUserRepository(pool)
	}

	if cfg.Redis.Addr != "" {
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			// sin Redis el barrido corre sin coordinar entre réplicas; sigue siendo correcto
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis no disponible")
		} else {
			a.redis = client
			a.locker = infraredis.NewLocker(client)
		}
	}

	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.NewPrometheus(a.registry)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("registrar métricas: %w", err)
	}

	a.stock = stock.NewService(a.tx, a.variants, a.reservations, clock.NewSystem(),
		stock.WithHoldDuration(cfg.Reservation.HoldDuration()),
		stock.WithReleaseScope(stock.ReleaseScope(cfg.Reservation.CommitReleaseScope)),
		stock.WithMetrics(m),
		stock.WithLogger(log.Component("stock")),
	)
	return a, nil
}

// Close libera conexiones.
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("cerrar Redis")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

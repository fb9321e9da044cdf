package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jhoicas/reservas-api/docs"
	"github.com/jhoicas/reservas-api/internal/application/auth"
	"github.com/jhoicas/reservas-api/internal/application/dto"
	"github.com/jhoicas/reservas-api/internal/application/stock"
	"github.com/jhoicas/reservas-api/internal/application/usecase"
	"github.com/jhoicas/reservas-api/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/reservas-api/internal/interfaces/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/swaggo/swag"
	"golang.org/x/sync/errgroup"
)

const swaggerFile = "./docs/swagger.json"

// NewServeCommand crea el comando serve.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Arranca la API HTTP y el barrido en segundo plano",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

func runServe(parent context.Context, opts *RootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	log := a.log
	cfg := a.cfg
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Dur("hold", a.stock.HoldDuration()).
		Msg("iniciando aplicación")

	fiberApp := newFiberApp(a)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := fiberApp.Listen(cfg.HTTP.Addr()); err != nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sweeper := stock.NewBackgroundSweeper(a.stock, cfg.Reservation.SweepInterval(), a.locker, log.Component("sweeper"))
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return fiberApp.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("servidor finalizado con error")
		return err
	}
	log.Info().Msg("aplicación detenida")
	return nil
}

func newFiberApp(a *app) *fiber.App {
	cfg := a.cfg
	log := a.log

	fiberApp := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	fiberApp.Use(recover.New())
	fiberApp.Use(requestid.New())
	fiberApp.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		fiberApp.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Reservas API",
		}))
	}
	docs.SwaggerInfo.Host = cfg.HTTP.Addr()
	fiberApp.Get("/openapi.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(doc)
	})

	fiberApp.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		out := dto.HealthResponse{Status: "ok", Database: cfg.Storage.Driver}
		status := fiber.StatusOK
		if a.pool != nil {
			pingCtx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := a.pool.Ping(pingCtx); err != nil {
				out.Status, out.Database = "degraded", "down"
				status = fiber.StatusServiceUnavailable
			} else {
				out.Database = "up"
			}
		}
		if a.redis != nil {
			out.Redis = "up"
			if err := a.redis.Ping(c.UserContext()).Err(); err != nil {
				out.Redis = "down"
			}
		}
		return c.Status(status).JSON(out)
	})

	variantUC := usecase.NewVariantUseCase(a.tx, a.variants, a.stock)
	orderUC := usecase.NewOrderUseCase(a.tx, a.orders, a.stock, pdf.NewMarotoReceiptGenerator(cfg.App.Name), log.Component("orders"))
	authUC := auth.NewAuthUseCase(a.users, cfg.JWT, 0)

	httpRouter.Router(fiberApp, httpRouter.RouterDeps{
		Stock:         a.stock,
		VariantUC:     variantUC,
		OrderUC:       orderUC,
		AuthUC:        authUC,
		JWTSecret:     cfg.JWT.Secret,
		CleanupSecret: cfg.Reservation.CleanupSecret,
		Logger:        log.Component("http"),
	})
	return fiberApp
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/reservas-api/internal/application/auth"
	"github.com/jhoicas/reservas-api/internal/application/stock"
	"github.com/jhoicas/reservas-api/internal/application/usecase"
	"github.com/jhoicas/reservas-api/pkg/jwt"
	"github.com/jhoicas/reservas-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Stock         *stock.Service
	VariantUC     *usecase.VariantUseCase
	OrderUC       *usecase.OrderUseCase
	AuthUC        *auth.AuthUseCase
	JWTSecret     string
	CleanupSecret string
	Logger        *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, log)
	api.Post("/auth/login", authHandler.Login)

	// Stock (público; el token, si viene, solo completa user_id)
	stockHandler := NewStockHandler(deps.Stock, log)
	stockGroup := api.Group("/stock", OptionalAuth(deps.JWTSecret))
	stockGroup.Get("/availability", stockHandler.Availability)
	stockGroup.Post("/reserve", stockHandler.Reserve)
	stockGroup.Delete("/reserve", stockHandler.Release)
	stockGroup.Post("/release", stockHandler.Release)

	// Limpieza (cron con secreto compartido)
	cleanupHandler := NewCleanupHandler(deps.Stock, log)
	internal := api.Group("/internal", SharedSecret(deps.CleanupSecret))
	internal.Post("/cleanup-reservations", cleanupHandler.Sweep)
	internal.Get("/cleanup-reservations", cleanupHandler.Stats)

	// Pedidos
	orderHandler := NewOrderHandler(deps.OrderUC, log)
	orders := api.Group("/orders", OptionalAuth(deps.JWTSecret))
	orders.Post("/", orderHandler.Create)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Post("/:id/pay", orderHandler.Pay)
	orders.Get("/:id/receipt", orderHandler.Receipt)

	// Administración (JWT rol admin)
	variantHandler := NewVariantHandler(deps.VariantUC, log)
	admin := api.Group("/admin", AuthMiddleware(deps.JWTSecret), RequireRole(jwt.RoleAdmin))
	admin.Post("/variants", variantHandler.Create)
	admin.Get("/variants/:id", variantHandler.GetByID)
	admin.Put("/variants/:id/stock", variantHandler.AdjustStock)
	admin.Post("/users", authHandler.Register)
}

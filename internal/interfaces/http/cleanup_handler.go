package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/reservas-api/internal/application/dto"
	"github.com/jhoicas/reservas-api/internal/application/stock"
	"github.com/jhoicas/reservas-api/pkg/logger"
)

// CleanupHandler endpoints internos para el cron de limpieza (Bearer compartido).
type CleanupHandler struct {
	svc *stock.Service
	log *logger.Logger
}

// NewCleanupHandler construye el handler.
func NewCleanupHandler(svc *stock.Service, log *logger.Logger) *CleanupHandler {
	return &CleanupHandler{svc: svc, log: log}
}

// Sweep godoc
// @Summary      Barrer reservas vencidas
// @Tags         internal
// @Security     CleanupSecret
// @Produce      json
// @Success      200  {object}  dto.CleanupResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/internal/cleanup-reservations [post]
func (h *CleanupHandler) Sweep(c *fiber.Ctx) error {
	n, err := h.svc.Sweep(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Info().Int64("cleaned", n).Msg("limpieza manual de reservas")
	return c.JSON(dto.CleanupResponse{CleanedReservations: n})
}

// Stats godoc
// @Summary      Conteo de reservas
// @Description  Activas, vencidas y total, sin eliminar nada.
// @Tags         internal
// @Security     CleanupSecret
// @Produce      json
// @Success      200  {object}  dto.ReservationStatsResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/internal/cleanup-reservations [get]
func (h *CleanupHandler) Stats(c *fiber.Ctx) error {
	st, err := h.svc.Stats(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ReservationStatsResponse{
		ActiveReservations:  st.Active,
		ExpiredReservations: st.Expired,
		TotalReservations:   st.Total,
	})
}

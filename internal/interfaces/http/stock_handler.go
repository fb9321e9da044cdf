package http

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/reservas-api/internal/application/dto"
	"github.com/jhoicas/reservas-api/internal/application/stock"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/pkg/logger"
)

// StockHandler disponibilidad, reservas y liberación (público, sesión anónima).
type StockHandler struct {
	svc *stock.Service
	log *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(svc *stock.Service, log *logger.Logger) *StockHandler {
	return &StockHandler{svc: svc, log: log}
}

// Availability godoc
// @Summary      Disponibilidad de una variante
// @Description  Stock total menos lo retenido por otras sesiones. La reserva propia no se descuenta.
// @Tags         stock
// @Produce      json
// @Param        variantId  query  string  true   "ID de la variante"
// @Param        sessionId  query  string  false  "Sesión que consulta"
// @Success      200  {object}  dto.AvailabilityResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/availability [get]
func (h *StockHandler) Availability(c *fiber.Ctx) error {
	av, err := h.svc.Availability(c.UserContext(), c.Query("variantId"), c.Query("sessionId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	mine := make([]dto.HeldReservationResponse, 0, len(av.MyReservations))
	for _, r := range av.MyReservations {
		mine = append(mine, toHeldResponse(r))
	}
	return c.JSON(dto.AvailabilityResponse{
		VariantID:        av.VariantID,
		TotalStock:       av.TotalStock,
		AvailableStock:   av.AvailableStock,
		ReservedByOthers: av.ReservedByOthers,
		ReservedByMe:     av.ReservedByMe,
		MyReservations:   mine,
	})
}

// Reserve godoc
// @Summary      Reservar stock
// @Description  Crea o reemplaza (no acumula) la reserva de la sesión para la variante. Vence a los 45 minutos.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "Reserva"
// @Success      201   {object}  dto.ReserveResponse
// @Failure      400   {object}  dto.InsufficientStockResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/reserve [post]
func (h *StockHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Reserve(c.UserContext(), stock.ReserveInput{
		SessionID: in.SessionID,
		VariantID: in.VariantID,
		Quantity:  in.Quantity,
		UserID:    GetUserID(c),
	})
	if err != nil {
		var insufficient *domain.InsufficientStockError
		if errors.As(err, &insufficient) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.InsufficientStockResponse{
				Error:             "Stock insuficiente",
				AvailableStock:    insufficient.Available,
				RequestedQuantity: insufficient.Requested,
				ReservedQuantity:  insufficient.ReservedByOthers,
			})
		}
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReserveResponse{
		Reservation:    toHeldResponse(out.Reservation),
		AvailableStock: out.AvailableStock,
	})
}

// Release godoc
// @Summary      Liberar reservas
// @Description  Elimina las reservas de la sesión (todas o solo las de variantId). Cero es un resultado válido.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReleaseRequest  true  "Sesión y variante opcional"
// @Success      200   {object}  dto.ReleaseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/reserve [delete]
// @Router       /api/stock/release [post]
func (h *StockHandler) Release(c *fiber.Ctx) error {
	in, ok := parseReleaseRequest(c)
	if !ok {
		return badBody(c)
	}
	n, err := h.svc.Release(c.UserContext(), in.SessionID, in.VariantID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ReleaseResponse{ReleasedReservations: n})
}

// parseReleaseRequest acepta JSON con cualquier Content-Type (sendBeacon envía text/plain)
// y, si no hay cuerpo, los parámetros de query.
func parseReleaseRequest(c *fiber.Ctx) (dto.ReleaseRequest, bool) {
	var in dto.ReleaseRequest
	if body := c.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &in); err != nil {
			return in, false
		}
		return in, true
	}
	in.SessionID = c.Query("sessionId")
	in.VariantID = c.Query("variantId")
	return in, true
}

func toHeldResponse(r stock.HeldReservation) dto.HeldReservationResponse {
	return dto.HeldReservationResponse{
		ID:               r.ID,
		Quantity:         r.Quantity,
		ExpiresAt:        r.ExpiresAt,
		RemainingMinutes: r.RemainingMinutes,
	}
}

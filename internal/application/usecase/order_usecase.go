package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/reservas-api/internal/application/dto"
	"github.com/jhoicas/reservas-api/internal/application/stock"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
	"github.com/jhoicas/reservas-api/pkg/logger"
	"github.com/shopspring/decimal"
)

const maxOrderItems = 100

// OrderUseCase pedidos y pago simulado. El pago es el único camino hacia la finalización de stock.
type OrderUseCase struct {
	tx       CheckoutTxRunner
	orders   repository.OrderRepository
	stock    *stock.Service
	receipts ReceiptGenerator
	log      *logger.Logger
}

// NewOrderUseCase construye el caso de uso. receipts puede ser nil: Receipt responde ErrNotFound.
func NewOrderUseCase(
	tx CheckoutTxRunner,
	orders repository.OrderRepository,
	stockSvc *stock.Service,
	receipts ReceiptGenerator,
	log *logger.Logger,
) *OrderUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &OrderUseCase{tx: tx, orders: orders, stock: stockSvc, receipts: receipts, log: log}
}

// Create crea un pedido pendiente. Los precios se toman de las variantes al momento de crear.
// No retiene stock: eso lo hacen las reservas de la sesión.
func (uc *OrderUseCase) Create(ctx context.Context, userID string, in dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	in.SessionID = strings.TrimSpace(in.SessionID)
	if in.SessionID == "" {
		return nil, domain.NewValidationError("sessionId", "es obligatorio")
	}
	if len(in.SessionID) > 255 {
		return nil, domain.NewValidationError("sessionId", "excede 255 caracteres")
	}
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", "el pedido no tiene líneas")
	}
	if len(in.Items) > maxOrderItems {
		return nil, domain.NewValidationError("items", "demasiadas líneas")
	}
	for _, it := range in.Items {
		if _, err := uuid.Parse(it.VariantID); err != nil {
			return nil, domain.NewValidationError("variantId", "debe ser un UUID")
		}
		if it.Quantity < 1 {
			return nil, domain.NewValidationError("quantity", "debe ser mayor o igual a 1")
		}
	}

	now := uc.stock.Now()
	order := &entity.Order{
		ID:        uuid.New().String(),
		SessionID: in.SessionID,
		Status:    entity.OrderStatusPending,
		Total:     decimal.Zero,
		Items:     make([]entity.OrderItem, 0, len(in.Items)),
		CreatedAt: now,
	}
	if userID != "" {
		order.UserID = &userID
	}

	err := uc.tx.RunCheckout(ctx, func(
		variants repository.VariantRepository,
		_ repository.ReservationRepository,
		orders repository.OrderRepository,
	) error {
		for _, it := range in.Items {
			v, err := variants.GetByID(ctx, it.VariantID)
			if err != nil {
				return err
			}
			if v == nil {
				return domain.ErrNotFound
			}
			item := entity.OrderItem{VariantID: v.ID, Quantity: it.Quantity, UnitPrice: v.Price}
			order.Items = append(order.Items, item)
			order.Total = order.Total.Add(item.Subtotal())
		}
		return orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

// GetByID obtiene un pedido. Devuelve ErrNotFound si no existe.
func (uc *OrderUseCase) GetByID(ctx context.Context, id string) (*dto.OrderResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	order, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return toOrderResponse(order), nil
}

// Pay autoriza el pago (simulado) y finaliza el stock del pedido.
//
// En una sola transacción: bloquea el pedido, exige estado pending (un segundo pago es ErrConflict,
// así la finalización ocurre exactamente una vez), verifica que las unidades no estén retenidas por
// otras sesiones, descuenta stock y marca el pedido como pagado.
func (uc *OrderUseCase) Pay(ctx context.Context, id string, in dto.PayOrderRequest) (*dto.OrderResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	if strings.TrimSpace(in.CardNumber) == "" {
		return nil, domain.NewValidationError("cardNumber", "es obligatorio")
	}
	if !authorizeCard(in.CardNumber) {
		return nil, domain.ErrPaymentDeclined
	}

	var paid *entity.Order
	err := uc.tx.RunCheckout(ctx, func(
		variants repository.VariantRepository,
		reservations repository.ReservationRepository,
		orders repository.OrderRepository,
	) error {
		order, err := orders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if in.SessionID != "" && in.SessionID != order.SessionID {
			return domain.ErrForbidden
		}
		if order.Status != entity.OrderStatusPending {
			return domain.ErrConflict
		}

		lines := make([]stock.CommitLine, 0, len(order.Items))
		for _, it := range order.Items {
			lines = append(lines, stock.CommitLine{VariantID: it.VariantID, Quantity: it.Quantity})
		}
		if err := uc.stock.VerifyInTx(ctx, variants, reservations, order.SessionID, lines); err != nil {
			return err
		}
		if err := uc.stock.CommitInTx(ctx, variants, reservations, order.SessionID, lines); err != nil {
			return err
		}

		now := uc.stock.Now()
		if err := orders.MarkPaid(ctx, order.ID, now); err != nil {
			return err
		}
		order.Status = entity.OrderStatusPaid
		order.PaidAt = &now
		paid = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("order_id", paid.ID).
		Str("session_id", paid.SessionID).
		Str("total", paid.Total.String()).
		Msg("pedido pagado")
	return toOrderResponse(paid), nil
}

// Receipt genera el recibo PDF de un pedido pagado. sessionID, si viene, debe coincidir con el del pedido.
// Un pedido sin pagar responde ErrConflict.
func (uc *OrderUseCase) Receipt(ctx context.Context, id, sessionID string) ([]byte, error) {
	if uc.receipts == nil {
		return nil, domain.ErrNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}

	var (
		order *entity.Order
		lines []ReceiptLine
	)
	err := uc.tx.RunCheckout(ctx, func(
		variants repository.VariantRepository,
		_ repository.ReservationRepository,
		orders repository.OrderRepository,
	) error {
		o, err := orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		if sessionID != "" && sessionID != o.SessionID {
			return domain.ErrForbidden
		}
		if o.Status != entity.OrderStatusPaid {
			return domain.ErrConflict
		}
		lines = make([]ReceiptLine, 0, len(o.Items))
		for _, it := range o.Items {
			line := ReceiptLine{
				Name:      it.VariantID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				Subtotal:  it.Subtotal(),
			}
			v, err := variants.GetByID(ctx, it.VariantID)
			if err != nil {
				return err
			}
			if v != nil {
				line.SKU, line.Name = v.SKU, v.Name
			}
			lines = append(lines, line)
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.receipts.GenerateReceipt(ctx, order, lines)
}

func toOrderResponse(o *entity.Order) *dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OrderItemResponse{
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal(),
		})
	}
	return &dto.OrderResponse{
		ID:        o.ID,
		SessionID: o.SessionID,
		UserID:    o.UserID,
		Status:    o.Status,
		Total:     o.Total,
		Items:     items,
		CreatedAt: o.CreatedAt,
		PaidAt:    o.PaidAt,
	}
}

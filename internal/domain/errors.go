package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrConsistency       = errors.New("inconsistencia de inventario")
	ErrPaymentDeclined   = errors.New("pago rechazado")
)

// ValidationError entrada mal formada en un campo concreto. Siempre causada por el cliente.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError construye un ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InsufficientStockError la cantidad pedida supera el stock disponible.
// Lleva la cantidad realmente disponible para que el cliente pueda reintentar con menos.
type InsufficientStockError struct {
	VariantID        string
	Requested        int
	Available        int
	ReservedByOthers int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: solicitado %d, disponible %d", e.VariantID, e.Requested, e.Available)
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// ConsistencyError fallo fatal: el stock quedaría negativo al finalizar una venta, o el
// almacenamiento falló durante un barrido o una lectura de disponibilidad. No se reintenta.
type ConsistencyError struct {
	VariantID string
	Op        string
	Err       error
}

func (e *ConsistencyError) Error() string {
	if e.VariantID != "" {
		return fmt.Sprintf("consistencia (%s, variante %s): %v", e.Op, e.VariantID, e.Err)
	}
	return fmt.Sprintf("consistencia (%s): %v", e.Op, e.Err)
}

// Is permite errors.Is(err, ErrConsistency).
func (e *ConsistencyError) Is(target error) bool { return target == ErrConsistency }

func (e *ConsistencyError) Unwrap() error { return e.Err }

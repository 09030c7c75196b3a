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
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrNegativeStock     = errors.New("el stock quedaría negativo")
	ErrStore             = errors.New("error del almacén de datos")
)

// Códigos de validación expuestos al cliente.
const (
	CodeNonPositiveQuantity = "NON_POSITIVE_QUANTITY"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeNegativeStock       = "NEGATIVE_STOCK"
	CodeDuplicateName       = "DUPLICATE_NAME"
	CodeEmptyName           = "EMPTY_NAME"
)

// StockError es un rechazo de validación previo a cualquier escritura.
// Lleva las cifras necesarias para reproducir la decisión.
type StockError struct {
	Code         string
	Message      string
	ProductID    int64
	CurrentStock int64
	Requested    int64
	Available    int64
	WouldBe      int64

	kind error
}

func (e *StockError) Error() string { return e.Message }

// Unwrap permite errors.Is contra los sentinelas del paquete.
func (e *StockError) Unwrap() error { return e.kind }

// NewNonPositiveQuantity cantidad <= 0.
func NewNonPositiveQuantity(qty int64) *StockError {
	return &StockError{
		Code:      CodeNonPositiveQuantity,
		Message:   fmt.Sprintf("la cantidad debe ser mayor que cero (recibida: %d)", qty),
		Requested: qty,
		kind:      ErrInvalidInput,
	}
}

// NewInsufficientStock salida mayor que el stock disponible.
func NewInsufficientStock(productID, current, available, requested int64) *StockError {
	return &StockError{
		Code: CodeInsufficientStock,
		Message: fmt.Sprintf("stock insuficiente para el producto %d: disponible %d, solicitado %d",
			productID, available, requested),
		ProductID:    productID,
		CurrentStock: current,
		Requested:    requested,
		Available:    available,
		WouldBe:      available - requested,
		kind:         ErrInsufficientStock,
	}
}

// NewNegativeStock la operación dejaría el stock del producto por debajo de cero.
func NewNegativeStock(productID, current, wouldBe int64) *StockError {
	return &StockError{
		Code: CodeNegativeStock,
		Message: fmt.Sprintf("el stock del producto %d quedaría en %d (actual %d); existen salidas que dependen de esta entrada",
			productID, wouldBe, current),
		ProductID:    productID,
		CurrentStock: current,
		WouldBe:      wouldBe,
		kind:         ErrNegativeStock,
	}
}

// NewDuplicateName ya existe un producto con ese nombre.
func NewDuplicateName(name string) *StockError {
	return &StockError{
		Code:    CodeDuplicateName,
		Message: fmt.Sprintf("el producto '%s' ya existe", name),
		kind:    ErrDuplicate,
	}
}

// NewEmptyName nombre de producto vacío.
func NewEmptyName() *StockError {
	return &StockError{
		Code:    CodeEmptyName,
		Message: "el nombre del producto no puede estar vacío",
		kind:    ErrInvalidInput,
	}
}

// StoreError envuelve una falla de persistencia (conexión, timeout, constraint).
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("almacén: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is hace que errors.Is(err, ErrStore) sea verdadero para cualquier StoreError.
func (e *StoreError) Is(target error) bool { return target == ErrStore }

// IsValidation indica si err es un rechazo de negocio (no una falla del almacén).
func IsValidation(err error) bool {
	var se *StockError
	if errors.As(err, &se) {
		return true
	}
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrConflict)
}

// WrapStore convierte fallas de persistencia en *StoreError; los errores de negocio
// y los StoreError ya envueltos pasan sin cambios.
func WrapStore(op string, err error) error {
	if err == nil || IsValidation(err) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia de ambos libros (IN y OUT).
// Cada llamada es atómica por sí misma: se aplica completa o no se aplica.
type MovementRepository interface {
	// Create asigna movement.ID. Devuelve domain.ErrNotFound si el producto no existe.
	Create(ctx context.Context, ledger entity.Ledger, movement *entity.Movement) error
	// GetByID devuelve (nil, nil) si la fila no existe.
	GetByID(ctx context.Context, ledger entity.Ledger, id int64) (*entity.Movement, error)
	// Update reemplaza producto, fecha y cantidad; domain.ErrNotFound si la fila no existe.
	Update(ctx context.Context, ledger entity.Ledger, movement *entity.Movement) error
	Delete(ctx context.Context, ledger entity.Ledger, id int64) error
	// ListByDateRange filas con fecha en [r.From, r.To), más recientes primero, con nombre de producto.
	ListByDateRange(ctx context.Context, ledger entity.Ledger, r entity.DateRange) ([]*entity.Movement, error)
	// SumQuantity suma de cantidades del producto en el libro; 0 si no hay filas.
	SumQuantity(ctx context.Context, ledger entity.Ledger, productID int64) (int64, error)
}

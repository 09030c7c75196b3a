package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockRepository consulta agregada de solo lectura: una fila por producto
// (sumas ausentes = 0), ordenada por nombre de producto.
type StockRepository interface {
	Snapshot(ctx context.Context) ([]entity.StockSnapshot, error)
	// ForProduct totales de un producto leídos en una sola consulta (mismo snapshot
	// para entradas y salidas); (nil, nil) si el producto no existe.
	ForProduct(ctx context.Context, productID int64) (*entity.StockSnapshot, error)
}

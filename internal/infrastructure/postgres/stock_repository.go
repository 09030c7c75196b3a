package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// snapshotQuery agrega cada libro por separado antes del join para no multiplicar filas.
const snapshotQuery = `
	SELECT p.product_id, p.product_name,
	       COALESCE(r.total_in, 0)  AS total_in,
	       COALESCE(o.total_out, 0) AS total_out
	FROM products p
	LEFT JOIN (
		SELECT product_id, SUM(quantity) AS total_in
		FROM stock_receipts GROUP BY product_id
	) r ON r.product_id = p.product_id
	LEFT JOIN (
		SELECT product_id, SUM(quantity) AS total_out
		FROM stock_out GROUP BY product_id
	) o ON o.product_id = p.product_id
	ORDER BY p.product_name, p.product_id`

// Snapshot stock de todos los productos, ordenado por nombre.
func (r *StockRepo) Snapshot(ctx context.Context) ([]entity.StockSnapshot, error) {
	rows, err := r.q.Query(ctx, snapshotQuery)
	if err != nil {
		return nil, fmt.Errorf("snapshot stock: %w", err)
	}
	defer rows.Close()
	var list []entity.StockSnapshot
	for rows.Next() {
		var s entity.StockSnapshot
		if err := rows.Scan(&s.ProductID, &s.ProductName, &s.TotalIn, &s.TotalOut); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// productStockQuery una sola sentencia: ambas sumas salen del mismo snapshot.
const productStockQuery = `
	SELECT p.product_id, p.product_name,
	       COALESCE((SELECT SUM(quantity) FROM stock_receipts r WHERE r.product_id = p.product_id), 0) AS total_in,
	       COALESCE((SELECT SUM(quantity) FROM stock_out o WHERE o.product_id = p.product_id), 0)      AS total_out
	FROM products p
	WHERE p.product_id = $1`

// ForProduct stock de un producto; (nil, nil) si no existe.
func (r *StockRepo) ForProduct(ctx context.Context, productID int64) (*entity.StockSnapshot, error) {
	var s entity.StockSnapshot
	err := r.q.QueryRow(ctx, productStockQuery, productID).Scan(&s.ProductID, &s.ProductName, &s.TotalIn, &s.TotalOut)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("stock producto %d: %w", productID, err)
	}
	return &s, nil
}

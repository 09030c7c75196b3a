package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto y asigna su ID.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO products (product_name) VALUES ($1) RETURNING product_id`,
		product.Name,
	).Scan(&product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	return r.get(ctx, `SELECT product_id, product_name FROM products WHERE product_id = $1`, id)
}

// GetForUpdate obtiene el producto y bloquea la fila (SELECT FOR UPDATE) hasta el fin de la tx.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.get(ctx, `SELECT product_id, product_name FROM products WHERE product_id = $1 FOR UPDATE`, id)
}

func (r *ProductRepo) get(ctx context.Context, query string, id int64) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// List lista todos los productos ordenados por nombre.
func (r *ProductRepo) List(ctx context.Context) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `SELECT product_id, product_name FROM products ORDER BY product_name, product_id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// CountByName cuenta productos con exactamente ese nombre.
func (r *ProductRepo) CountByName(ctx context.Context, name string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE product_name = $1`, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("count product name: %w", err)
	}
	return n, nil
}

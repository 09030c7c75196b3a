package postgres

import (
	"context"
	"fmt"
)

// schema es idempotente; se aplica al arrancar con STORE_DRIVER=postgres.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id   BIGSERIAL PRIMARY KEY,
		product_name TEXT NOT NULL UNIQUE CHECK (btrim(product_name) <> '')
	)`,
	`CREATE TABLE IF NOT EXISTS stock_receipts (
		receipt_id   BIGSERIAL PRIMARY KEY,
		product_id   BIGINT NOT NULL REFERENCES products (product_id),
		receipt_date DATE   NOT NULL,
		quantity     BIGINT NOT NULL CHECK (quantity > 0)
	)`,
	`CREATE TABLE IF NOT EXISTS stock_out (
		out_id     BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products (product_id),
		out_date   DATE   NOT NULL,
		quantity   BIGINT NOT NULL CHECK (quantity > 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_receipts_product ON stock_receipts (product_id)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_receipts_date ON stock_receipts (receipt_date DESC, receipt_id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_out_product ON stock_out (product_id)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_out_date ON stock_out (out_date DESC, out_id DESC)`,
}

// Migrate crea tablas e índices si no existen.
func Migrate(ctx context.Context, q Querier) error {
	for _, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

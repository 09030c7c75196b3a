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

var _ repository.MovementRepository = (*MovementRepo)(nil)

// ledgerTable nombres físicos de cada libro. Los dos libros tienen la misma forma
// y solo difieren en tabla y columnas.
type ledgerTable struct {
	table   string
	idCol   string
	dateCol string
}

var ledgerTables = map[entity.Ledger]ledgerTable{
	entity.LedgerIN:  {table: "stock_receipts", idCol: "receipt_id", dateCol: "receipt_date"},
	entity.LedgerOUT: {table: "stock_out", idCol: "out_id", dateCol: "out_date"},
}

func (t ledgerTable) insertQuery() string {
	return fmt.Sprintf(
		`INSERT INTO %s (product_id, %s, quantity) VALUES ($1, $2, $3) RETURNING %s`,
		t.table, t.dateCol, t.idCol)
}

func (t ledgerTable) getQuery() string {
	return fmt.Sprintf(`
		SELECT m.%s, m.product_id, p.product_name, m.%s, m.quantity
		FROM %s m JOIN products p ON p.product_id = m.product_id
		WHERE m.%s = $1`,
		t.idCol, t.dateCol, t.table, t.idCol)
}

func (t ledgerTable) updateQuery() string {
	return fmt.Sprintf(
		`UPDATE %s SET product_id = $2, %s = $3, quantity = $4 WHERE %s = $1`,
		t.table, t.dateCol, t.idCol)
}

func (t ledgerTable) deleteQuery() string {
	return fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.table, t.idCol)
}

// listByDateRangeQuery rango semiabierto [$1, $2), más recientes primero.
func (t ledgerTable) listByDateRangeQuery() string {
	return fmt.Sprintf(`
		SELECT m.%[1]s, m.product_id, p.product_name, m.%[2]s, m.quantity
		FROM %[3]s m JOIN products p ON p.product_id = m.product_id
		WHERE m.%[2]s >= $1 AND m.%[2]s < $2
		ORDER BY m.%[2]s DESC, m.%[1]s DESC`,
		t.idCol, t.dateCol, t.table)
}

func (t ledgerTable) sumQuery() string {
	return fmt.Sprintf(`SELECT COALESCE(SUM(quantity), 0) FROM %s WHERE product_id = $1`, t.table)
}

func tableFor(ledger entity.Ledger) (ledgerTable, error) {
	t, ok := ledgerTables[ledger]
	if !ok {
		return ledgerTable{}, fmt.Errorf("%w: libro %q", domain.ErrInvalidInput, ledger)
	}
	return t, nil
}

// MovementRepo implementación sobre PostgreSQL de ambos libros (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste un movimiento y asigna su ID.
func (r *MovementRepo) Create(ctx context.Context, ledger entity.Ledger, m *entity.Movement) error {
	t, err := tableFor(ledger)
	if err != nil {
		return err
	}
	date := entity.CalendarDate(m.Date)
	if err := r.q.QueryRow(ctx, t.insertQuery(), m.ProductID, date, m.Quantity).Scan(&m.ID); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: producto %d", domain.ErrNotFound, m.ProductID)
		}
		return fmt.Errorf("insert %s: %w", t.table, err)
	}
	m.Ledger = ledger
	m.Date = date
	return nil
}

// GetByID obtiene un movimiento con el nombre del producto; (nil, nil) si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, ledger entity.Ledger, id int64) (*entity.Movement, error) {
	t, err := tableFor(ledger)
	if err != nil {
		return nil, err
	}
	m := entity.Movement{Ledger: ledger}
	err = r.q.QueryRow(ctx, t.getQuery(), id).Scan(&m.ID, &m.ProductID, &m.ProductName, &m.Date, &m.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", t.table, err)
	}
	m.Date = entity.CalendarDate(m.Date)
	return &m, nil
}

// Update reemplaza producto, fecha y cantidad.
func (r *MovementRepo) Update(ctx context.Context, ledger entity.Ledger, m *entity.Movement) error {
	t, err := tableFor(ledger)
	if err != nil {
		return err
	}
	cmd, err := r.q.Exec(ctx, t.updateQuery(), m.ID, m.ProductID, entity.CalendarDate(m.Date), m.Quantity)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: producto %d", domain.ErrNotFound, m.ProductID)
		}
		return fmt.Errorf("update %s: %w", t.table, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: movimiento %d", domain.ErrNotFound, m.ID)
	}
	return nil
}

// Delete elimina un movimiento por ID.
func (r *MovementRepo) Delete(ctx context.Context, ledger entity.Ledger, id int64) error {
	t, err := tableFor(ledger)
	if err != nil {
		return err
	}
	cmd, err := r.q.Exec(ctx, t.deleteQuery(), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.table, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: movimiento %d", domain.ErrNotFound, id)
	}
	return nil
}

// ListByDateRange movimientos con fecha en [From, To), más recientes primero.
func (r *MovementRepo) ListByDateRange(ctx context.Context, ledger entity.Ledger, dr entity.DateRange) ([]*entity.Movement, error) {
	t, err := tableFor(ledger)
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, t.listByDateRangeQuery(), dr.From, dr.To)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.table, err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m := entity.Movement{Ledger: ledger}
		if err := rows.Scan(&m.ID, &m.ProductID, &m.ProductName, &m.Date, &m.Quantity); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.table, err)
		}
		m.Date = entity.CalendarDate(m.Date)
		list = append(list, &m)
	}
	return list, rows.Err()
}

// SumQuantity suma de cantidades del producto en el libro (0 sin filas).
func (r *MovementRepo) SumQuantity(ctx context.Context, ledger entity.Ledger, productID int64) (int64, error) {
	t, err := tableFor(ledger)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := r.q.QueryRow(ctx, t.sumQuery(), productID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum %s: %w", t.table, err)
	}
	return total, nil
}

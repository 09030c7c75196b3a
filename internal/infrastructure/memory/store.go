// Package memory implementa los puertos de persistencia en memoria del proceso.
// Se usa con STORE_DRIVER=memory (desarrollo, demos) y en los tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.ProductRepository  = (*ProductRepo)(nil)
	_ repository.MovementRepository = (*MovementRepo)(nil)
	_ repository.StockRepository    = (*StockRepo)(nil)
	_ inventory.TxRunner            = (*TxRunner)(nil)
)

// Store contiene las tres tablas (products, stock_receipts, stock_out).
// Cada llamada de repositorio toma el mutex y es atómica por sí misma.
type Store struct {
	mu        sync.RWMutex
	products  map[int64]entity.Product
	movements map[entity.Ledger]map[int64]entity.Movement
	seq       map[string]int64
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		products: make(map[int64]entity.Product),
		movements: map[entity.Ledger]map[int64]entity.Movement{
			entity.LedgerIN:  {},
			entity.LedgerOUT: {},
		},
		seq: make(map[string]int64),
	}
}

// Products repositorio de productos.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Movements repositorio de ambos libros.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

// Stock repositorio de lectura del stock derivado.
func (s *Store) Stock() *StockRepo { return &StockRepo{s: s} }

// TxRunner runner de "transacciones" en memoria.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

func (s *Store) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func (s *Store) table(ledger entity.Ledger) (map[int64]entity.Movement, error) {
	t, ok := s.movements[ledger]
	if !ok {
		return nil, fmt.Errorf("%w: libro %q", domain.ErrInvalidInput, ledger)
	}
	return t, nil
}

// ── Productos ─────────────────────────────────────────────────────────────

// ProductRepo implementación en memoria de ProductRepository.
type ProductRepo struct{ s *Store }

// Create asigna ID; domain.ErrDuplicate si el nombre ya existe.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.Name == product.Name {
			return domain.ErrDuplicate
		}
	}
	product.ID = r.s.nextID("products")
	r.s.products[product.ID] = *product
	return nil
}

// GetByID (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// GetForUpdate igual que GetByID: la exclusión la dan los bloqueos por producto del motor.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

// List productos ordenados por nombre.
func (r *ProductRepo) List(ctx context.Context) ([]*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		list = append(list, &p)
	}
	slices.SortFunc(list, func(a, b *entity.Product) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return list, nil
}

// CountByName cuántos productos tienen exactamente ese nombre (0 o 1).
func (r *ProductRepo) CountByName(ctx context.Context, name string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, p := range r.s.products {
		if p.Name == name {
			n++
		}
	}
	return n, nil
}

// ── Movimientos ───────────────────────────────────────────────────────────

// MovementRepo implementación en memoria de MovementRepository.
type MovementRepo struct{ s *Store }

// Create asigna ID; domain.ErrNotFound si el producto no existe.
func (r *MovementRepo) Create(ctx context.Context, ledger entity.Ledger, m *entity.Movement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, err := r.s.table(ledger)
	if err != nil {
		return err
	}
	if _, ok := r.s.products[m.ProductID]; !ok {
		return fmt.Errorf("%w: producto %d", domain.ErrNotFound, m.ProductID)
	}
	m.ID = r.s.nextID(string(ledger))
	m.Ledger = ledger
	m.Date = entity.CalendarDate(m.Date)
	row := *m
	row.ProductName = ""
	t[m.ID] = row
	return nil
}

// GetByID (nil, nil) si no existe. Incluye el nombre del producto.
func (r *MovementRepo) GetByID(ctx context.Context, ledger entity.Ledger, id int64) (*entity.Movement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, err := r.s.table(ledger)
	if err != nil {
		return nil, err
	}
	m, ok := t[id]
	if !ok {
		return nil, nil
	}
	m.ProductName = r.s.products[m.ProductID].Name
	return &m, nil
}

// Update reemplaza producto, fecha y cantidad.
func (r *MovementRepo) Update(ctx context.Context, ledger entity.Ledger, m *entity.Movement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, err := r.s.table(ledger)
	if err != nil {
		return err
	}
	if _, ok := t[m.ID]; !ok {
		return fmt.Errorf("%w: movimiento %d", domain.ErrNotFound, m.ID)
	}
	if _, ok := r.s.products[m.ProductID]; !ok {
		return fmt.Errorf("%w: producto %d", domain.ErrNotFound, m.ProductID)
	}
	t[m.ID] = entity.Movement{
		ID:        m.ID,
		Ledger:    ledger,
		ProductID: m.ProductID,
		Date:      entity.CalendarDate(m.Date),
		Quantity:  m.Quantity,
	}
	return nil
}

// Delete elimina la fila; domain.ErrNotFound si no existe.
func (r *MovementRepo) Delete(ctx context.Context, ledger entity.Ledger, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, err := r.s.table(ledger)
	if err != nil {
		return err
	}
	if _, ok := t[id]; !ok {
		return fmt.Errorf("%w: movimiento %d", domain.ErrNotFound, id)
	}
	delete(t, id)
	return nil
}

// ListByDateRange filas en [From, To) ordenadas por fecha e ID descendentes.
func (r *MovementRepo) ListByDateRange(ctx context.Context, ledger entity.Ledger, dr entity.DateRange) ([]*entity.Movement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, err := r.s.table(ledger)
	if err != nil {
		return nil, err
	}
	list := make([]*entity.Movement, 0)
	for _, m := range t {
		if !dr.Contains(m.Date) {
			continue
		}
		m.ProductName = r.s.products[m.ProductID].Name
		list = append(list, &m)
	}
	slices.SortFunc(list, func(a, b *entity.Movement) int {
		return cmp.Or(b.Date.Compare(a.Date), cmp.Compare(b.ID, a.ID))
	})
	return list, nil
}

// SumQuantity suma de cantidades del producto en el libro.
func (r *MovementRepo) SumQuantity(ctx context.Context, ledger entity.Ledger, productID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, err := r.s.table(ledger)
	if err != nil {
		return 0, err
	}
	return sumFor(t, productID), nil
}

func sumFor(t map[int64]entity.Movement, productID int64) int64 {
	var total int64
	for _, m := range t {
		if m.ProductID == productID {
			total += m.Quantity
		}
	}
	return total
}

// ── Stock ─────────────────────────────────────────────────────────────────

// StockRepo calcula el stock derivado de todos los productos.
type StockRepo struct{ s *Store }

// Snapshot una fila por producto ordenada por nombre.
func (r *StockRepo) Snapshot(ctx context.Context) ([]entity.StockSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	in := r.s.movements[entity.LedgerIN]
	out := r.s.movements[entity.LedgerOUT]
	list := make([]entity.StockSnapshot, 0, len(r.s.products))
	for _, p := range r.s.products {
		list = append(list, entity.StockSnapshot{
			ProductID:   p.ID,
			ProductName: p.Name,
			TotalIn:     sumFor(in, p.ID),
			TotalOut:    sumFor(out, p.ID),
		})
	}
	slices.SortFunc(list, func(a, b entity.StockSnapshot) int {
		return cmp.Or(cmp.Compare(a.ProductName, b.ProductName), cmp.Compare(a.ProductID, b.ProductID))
	})
	return list, nil
}

// ForProduct totales de un producto bajo un único RLock; (nil, nil) si no existe.
func (r *StockRepo) ForProduct(ctx context.Context, productID int64) (*entity.StockSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[productID]
	if !ok {
		return nil, nil
	}
	return &entity.StockSnapshot{
		ProductID:   p.ID,
		ProductName: p.Name,
		TotalIn:     sumFor(r.s.movements[entity.LedgerIN], p.ID),
		TotalOut:    sumFor(r.s.movements[entity.LedgerOUT], p.ID),
	}, nil
}

// ── Tx ────────────────────────────────────────────────────────────────────

// TxRunner entrega los repositorios del mismo Store. No hay aislamiento entre
// llamadas: la exclusión por producto la garantiza el motor, y el motor hace una
// sola escritura por operación, al final.
type TxRunner struct{ s *Store }

// Run ejecuta fn con los repositorios del almacén.
func (r *TxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	movRepo repository.MovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(r.s.Products(), r.s.Movements())
}

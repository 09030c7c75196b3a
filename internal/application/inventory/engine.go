package inventory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/application/notify"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// maxEntryAttempts reintentos cuando el movimiento cambia de producto entre la
// lectura inicial y la toma de bloqueos.
const maxEntryAttempts = 3

// errEntryMoved el movimiento fue reasignado a otro producto mientras se esperaba el bloqueo.
var errEntryMoved = fmt.Errorf("%w: el movimiento cambió de producto", domain.ErrConflict)

// EngineConfig límites de espera del motor.
type EngineConfig struct {
	LockTimeout  time.Duration // 0 = sin límite (solo el ctx del llamador)
	StoreTimeout time.Duration // 0 = sin límite
}

// Engine es el motor de consistencia: toda mutación de entradas/salidas pasa por aquí.
//
// Por cada mutación: valida la cantidad, toma el bloqueo de cada producto afectado
// (orden ascendente), abre una transacción que bloquea también las filas de products
// (SELECT FOR UPDATE), recalcula el stock desde el almacén, valida y escribe una sola
// fila. Solo después del commit anuncia MovementsChanged.
type Engine struct {
	txRunner TxRunner
	movRepo  repository.MovementRepository
	locks    *productLocks
	notifier *notify.Notifier
	log      *logger.Logger
	cfg      EngineConfig
}

// NewEngine construye el motor. movRepo se usa para lecturas fuera de transacción.
func NewEngine(
	txRunner TxRunner,
	movRepo repository.MovementRepository,
	notifier *notify.Notifier,
	log *logger.Logger,
	cfg EngineConfig,
) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		txRunner: txRunner,
		movRepo:  movRepo,
		locks:    newProductLocks(),
		notifier: notifier,
		log:      log.Named("ledger-engine"),
		cfg:      cfg,
	}
}

// AddReceipt registra una entrada. Siempre segura para el stock.
func (e *Engine) AddReceipt(ctx context.Context, productID int64, date time.Time, qty int64) (*entity.Movement, error) {
	return e.add(ctx, entity.LedgerIN, productID, date, qty)
}

// UpdateReceipt reemplaza producto, fecha y cantidad de una entrada. Falla si el stock
// de algún producto afectado quedaría negativo.
func (e *Engine) UpdateReceipt(ctx context.Context, entryID, productID int64, date time.Time, qty int64) (*entity.Movement, error) {
	return e.update(ctx, entity.LedgerIN, entryID, productID, date, qty)
}

// DeleteReceipt elimina una entrada si el stock restante no queda negativo.
func (e *Engine) DeleteReceipt(ctx context.Context, entryID int64) error {
	return e.remove(ctx, entity.LedgerIN, entryID)
}

// AddStockOut registra una salida si qty <= stock actual.
func (e *Engine) AddStockOut(ctx context.Context, productID int64, date time.Time, qty int64) (*entity.Movement, error) {
	return e.add(ctx, entity.LedgerOUT, productID, date, qty)
}

// UpdateStockOut reemplaza una salida. Si el producto no cambia, la cantidad previa
// de la propia fila se devuelve al disponible antes de comparar.
func (e *Engine) UpdateStockOut(ctx context.Context, entryID, productID int64, date time.Time, qty int64) (*entity.Movement, error) {
	return e.update(ctx, entity.LedgerOUT, entryID, productID, date, qty)
}

// DeleteStockOut elimina una salida. Siempre segura para el stock.
func (e *Engine) DeleteStockOut(ctx context.Context, entryID int64) error {
	return e.remove(ctx, entity.LedgerOUT, entryID)
}

// FilterReceipts entradas con fecha en [start, end+1día), más recientes primero.
func (e *Engine) FilterReceipts(ctx context.Context, start, end time.Time) ([]*entity.Movement, error) {
	return e.filter(ctx, entity.LedgerIN, start, end)
}

// FilterStockOuts salidas con fecha en [start, end+1día), más recientes primero.
func (e *Engine) FilterStockOuts(ctx context.Context, start, end time.Time) ([]*entity.Movement, error) {
	return e.filter(ctx, entity.LedgerOUT, start, end)
}

// GetReceipt obtiene una entrada por ID.
func (e *Engine) GetReceipt(ctx context.Context, id int64) (*entity.Movement, error) {
	return e.get(ctx, entity.LedgerIN, id)
}

// GetStockOut obtiene una salida por ID.
func (e *Engine) GetStockOut(ctx context.Context, id int64) (*entity.Movement, error) {
	return e.get(ctx, entity.LedgerOUT, id)
}

// Add despacha por libro (handlers genéricos).
func (e *Engine) Add(ctx context.Context, ledger entity.Ledger, productID int64, date time.Time, qty int64) (*entity.Movement, error) {
	if !ledger.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return e.add(ctx, ledger, productID, date, qty)
}

// Update despacha por libro.
func (e *Engine) Update(ctx context.Context, ledger entity.Ledger, entryID, productID int64, date time.Time, qty int64) (*entity.Movement, error) {
	if !ledger.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return e.update(ctx, ledger, entryID, productID, date, qty)
}

// Delete despacha por libro.
func (e *Engine) Delete(ctx context.Context, ledger entity.Ledger, entryID int64) error {
	if !ledger.Valid() {
		return domain.ErrInvalidInput
	}
	return e.remove(ctx, ledger, entryID)
}

// Filter despacha por libro.
func (e *Engine) Filter(ctx context.Context, ledger entity.Ledger, start, end time.Time) ([]*entity.Movement, error) {
	if !ledger.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return e.filter(ctx, ledger, start, end)
}

// Get despacha por libro.
func (e *Engine) Get(ctx context.Context, ledger entity.Ledger, id int64) (*entity.Movement, error) {
	if !ledger.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return e.get(ctx, ledger, id)
}

func (e *Engine) add(ctx context.Context, ledger entity.Ledger, productID int64, date time.Time, qty int64) (*entity.Movement, error) {
	if qty <= 0 {
		return nil, domain.NewNonPositiveQuantity(qty)
	}
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	next := &entity.Movement{
		Ledger:    ledger,
		ProductID: productID,
		Date:      entity.CalendarDate(date),
		Quantity:  qty,
	}
	op := mutation{name: "add", ledger: ledger, products: []int64{productID}}
	err := e.mutate(ctx, op, func(ctx context.Context, productRepo repository.ProductRepository, movRepo repository.MovementRepository) error {
		locked, err := lockProducts(ctx, productRepo, op.products)
		if err != nil {
			return err
		}
		if err := checkEffects(ctx, movRepo, ledger, nil, next); err != nil {
			return err
		}
		if err := movRepo.Create(ctx, ledger, next); err != nil {
			return err
		}
		next.ProductName = locked[productID].Name
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (e *Engine) update(ctx context.Context, ledger entity.Ledger, entryID, productID int64, date time.Time, qty int64) (*entity.Movement, error) {
	if qty <= 0 {
		return nil, domain.NewNonPositiveQuantity(qty)
	}
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	next := &entity.Movement{
		ID:        entryID,
		Ledger:    ledger,
		ProductID: productID,
		Date:      entity.CalendarDate(date),
		Quantity:  qty,
	}
	err := e.withEntry(ctx, "update", ledger, entryID, productID, func(ctx context.Context, movRepo repository.MovementRepository, old *entity.Movement, locked map[int64]*entity.Product) error {
		if err := checkEffects(ctx, movRepo, ledger, old, next); err != nil {
			return err
		}
		if err := movRepo.Update(ctx, ledger, next); err != nil {
			return err
		}
		next.ProductName = locked[productID].Name
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (e *Engine) remove(ctx context.Context, ledger entity.Ledger, entryID int64) error {
	return e.withEntry(ctx, "delete", ledger, entryID, 0, func(ctx context.Context, movRepo repository.MovementRepository, old *entity.Movement, _ map[int64]*entity.Product) error {
		if err := checkEffects(ctx, movRepo, ledger, old, nil); err != nil {
			return err
		}
		return movRepo.Delete(ctx, ledger, entryID)
	})
}

// entryFunc recibe la fila vigente ya bajo bloqueo.
type entryFunc func(ctx context.Context, movRepo repository.MovementRepository, old *entity.Movement, locked map[int64]*entity.Product) error

// withEntry bloquea el producto actual del movimiento (y newProductID si != 0) y
// relee la fila dentro de la transacción. Si la fila cambió de producto en el
// intervalo, libera y reintenta.
func (e *Engine) withEntry(ctx context.Context, name string, ledger entity.Ledger, entryID, newProductID int64, fn entryFunc) error {
	for attempt := 0; attempt < maxEntryAttempts; attempt++ {
		seen, err := e.movRepo.GetByID(ctx, ledger, entryID)
		if err != nil {
			return domain.WrapStore("get "+ledgerName(ledger), err)
		}
		if seen == nil {
			return entryNotFound(ledger, entryID)
		}
		products := []int64{seen.ProductID}
		if newProductID != 0 {
			products = append(products, newProductID)
		}
		op := mutation{name: name, ledger: ledger, entryID: entryID, products: products}
		err = e.mutate(ctx, op, func(ctx context.Context, productRepo repository.ProductRepository, movRepo repository.MovementRepository) error {
			locked, err := lockProducts(ctx, productRepo, products)
			if err != nil {
				return err
			}
			old, err := movRepo.GetByID(ctx, ledger, entryID)
			if err != nil {
				return err
			}
			if old == nil {
				return entryNotFound(ledger, entryID)
			}
			if old.ProductID != seen.ProductID {
				return errEntryMoved
			}
			return fn(ctx, movRepo, old, locked)
		})
		if errors.Is(err, errEntryMoved) {
			e.log.Debug().Int64("entry_id", entryID).Int("attempt", attempt+1).Msg("movimiento reasignado, reintentando")
			continue
		}
		return err
	}
	return errEntryMoved
}

// mutation describe la operación para bloqueos y logs.
type mutation struct {
	name     string
	ledger   entity.Ledger
	entryID  int64
	products []int64
}

type txFunc func(ctx context.Context, productRepo repository.ProductRepository, movRepo repository.MovementRepository) error

// mutate es la sección crítica por producto. Una vez adquiridos los bloqueos, la
// escritura se separa de la cancelación del llamador: se completa o falla, nunca
// queda a medias.
func (e *Engine) mutate(ctx context.Context, op mutation, fn txFunc) error {
	opID := uuid.NewString()

	lockCtx := ctx
	if e.cfg.LockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, e.cfg.LockTimeout)
		defer cancel()
	}
	unlock, err := e.locks.Lock(lockCtx, op.products...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.log.Warn().Str("op_id", opID).Str("op", op.name).Ints64("products", op.products).
			Dur("waited", e.cfg.LockTimeout).Msg("tiempo de espera del bloqueo agotado")
		return fmt.Errorf("%w: producto ocupado, intente de nuevo", domain.ErrConflict)
	}
	defer unlock()

	// abandonada por el llamador mientras esperaba: no se lee ni se escribe nada
	if err := ctx.Err(); err != nil {
		return err
	}

	storeCtx := context.WithoutCancel(ctx)
	if e.cfg.StoreTimeout > 0 {
		var cancel context.CancelFunc
		storeCtx, cancel = context.WithTimeout(storeCtx, e.cfg.StoreTimeout)
		defer cancel()
	}

	err = e.txRunner.Run(storeCtx, func(productRepo repository.ProductRepository, movRepo repository.MovementRepository) error {
		return fn(storeCtx, productRepo, movRepo)
	})
	if err != nil {
		err = domain.WrapStore(op.name+" "+ledgerName(op.ledger), err)
		e.logFailure(opID, op, err)
		return err
	}

	e.log.Info().Str("op_id", opID).Str("op", op.name).Str("ledger", string(op.ledger)).
		Int64("entry_id", op.entryID).Ints64("products", op.products).Msg("movimiento confirmado")
	e.notifier.Publish(context.WithoutCancel(ctx), notify.MovementsChanged)
	return nil
}

func (e *Engine) logFailure(opID string, op mutation, err error) {
	var se *domain.StockError
	switch {
	case errors.As(err, &se):
		e.log.Info().Str("op_id", opID).Str("op", op.name).Str("ledger", string(op.ledger)).
			Str("code", se.Code).Int64("product_id", se.ProductID).
			Int64("current_stock", se.CurrentStock).Int64("requested", se.Requested).
			Msg("movimiento rechazado")
	case domain.IsValidation(err):
		e.log.Info().Str("op_id", opID).Str("op", op.name).Err(err).Msg("movimiento rechazado")
	default:
		e.log.Error().Str("op_id", opID).Str("op", op.name).Str("ledger", string(op.ledger)).
			Int64("entry_id", op.entryID).Ints64("products", op.products).Err(err).
			Msg("falla del almacén al aplicar movimiento")
	}
}

func (e *Engine) filter(ctx context.Context, ledger entity.Ledger, start, end time.Time) ([]*entity.Movement, error) {
	r := entity.InclusiveRange(start, end)
	if !r.To.After(r.From) {
		return []*entity.Movement{}, nil
	}
	list, err := e.movRepo.ListByDateRange(ctx, ledger, r)
	if err != nil {
		err = domain.WrapStore("filter "+ledgerName(ledger), err)
		e.log.Error().Err(err).Time("from", r.From).Time("to", r.To).Msg("filtrar movimientos")
		return nil, err
	}
	if list == nil {
		list = []*entity.Movement{}
	}
	return list, nil
}

func (e *Engine) get(ctx context.Context, ledger entity.Ledger, id int64) (*entity.Movement, error) {
	m, err := e.movRepo.GetByID(ctx, ledger, id)
	if err != nil {
		return nil, domain.WrapStore("get "+ledgerName(ledger), err)
	}
	if m == nil {
		return nil, entryNotFound(ledger, id)
	}
	return m, nil
}

// effect variación neta del stock de un producto.
type effect struct {
	productID int64
	delta     int64
}

// effects traduce (fila anterior → fila nueva) en variaciones por producto.
// old == nil es un alta; next == nil una baja.
func effects(ledger entity.Ledger, old, next *entity.Movement) []effect {
	deltas := make(map[int64]int64, 2)
	sign := ledger.Sign()
	if old != nil {
		deltas[old.ProductID] -= sign * old.Quantity
	}
	if next != nil {
		deltas[next.ProductID] += sign * next.Quantity
	}
	out := make([]effect, 0, len(deltas))
	for id, d := range deltas {
		out = append(out, effect{productID: id, delta: d})
	}
	slices.SortFunc(out, func(a, b effect) int { return cmp.Compare(a.productID, b.productID) })
	return out
}

// checkEffects recalcula el stock de cada producto que pierde unidades y rechaza si
// quedaría negativo. Solo se llama con los bloqueos tomados.
func checkEffects(ctx context.Context, movRepo repository.MovementRepository, ledger entity.Ledger, old, next *entity.Movement) error {
	for _, ef := range effects(ledger, old, next) {
		if ef.delta >= 0 {
			continue
		}
		current, err := computeStock(ctx, movRepo, ef.productID)
		if err != nil {
			return err
		}
		if current+ef.delta >= 0 {
			continue
		}
		if ledger == entity.LedgerOUT && next != nil && next.ProductID == ef.productID {
			// disponible = stock actual + lo que la propia fila devuelve al editarse
			available := current + ef.delta + next.Quantity
			return domain.NewInsufficientStock(ef.productID, current, available, next.Quantity)
		}
		return domain.NewNegativeStock(ef.productID, current, current+ef.delta)
	}
	return nil
}

// lockProducts bloquea las filas de products (orden ascendente) y verifica que existan.
func lockProducts(ctx context.Context, productRepo repository.ProductRepository, ids []int64) (map[int64]*entity.Product, error) {
	out := make(map[int64]*entity.Product, len(ids))
	for _, id := range sortedUnique(ids) {
		p, err := productRepo.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto %d", domain.ErrNotFound, id)
		}
		out[id] = p
	}
	return out, nil
}

func entryNotFound(ledger entity.Ledger, id int64) error {
	return fmt.Errorf("%w: %s %d", domain.ErrNotFound, ledgerName(ledger), id)
}

func ledgerName(l entity.Ledger) string {
	if l == entity.LedgerOUT {
		return "stock-out"
	}
	return "receipt"
}

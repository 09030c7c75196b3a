package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Aggregator calcula el stock derivado (entradas − salidas). Solo lectura; no toma
// los bloqueos de mutación y nunca cachea. Cada lectura es una sola consulta al
// almacén, así que refleja el estado previo o posterior a un commit concurrente,
// nunca una mezcla.
type Aggregator struct {
	stockRepo repository.StockRepository
}

// NewAggregator construye el agregador sobre el repositorio de stock del pool.
func NewAggregator(stockRepo repository.StockRepository) *Aggregator {
	return &Aggregator{stockRepo: stockRepo}
}

// ComputeStock stock actual del producto con lo persistido; 0 si no tiene movimientos.
func (a *Aggregator) ComputeStock(ctx context.Context, productID int64) (int64, error) {
	s, err := a.stockRepo.ForProduct(ctx, productID)
	if err != nil {
		return 0, domain.WrapStore("stock producto", err)
	}
	if s == nil {
		return 0, nil
	}
	return s.CurrentStock(), nil
}

// ProductSnapshot totales de un producto ya verificado.
func (a *Aggregator) ProductSnapshot(ctx context.Context, p *entity.Product) (entity.StockSnapshot, error) {
	s, err := a.stockRepo.ForProduct(ctx, p.ID)
	if err != nil {
		return entity.StockSnapshot{}, domain.WrapStore("stock producto", err)
	}
	if s == nil {
		return entity.StockSnapshot{}, fmt.Errorf("%w: producto %d", domain.ErrNotFound, p.ID)
	}
	return *s, nil
}

// SnapshotAll una fila por producto ordenada por nombre, tenga o no movimientos.
func (a *Aggregator) SnapshotAll(ctx context.Context) ([]entity.StockSnapshot, error) {
	list, err := a.stockRepo.Snapshot(ctx)
	if err != nil {
		return nil, domain.WrapStore("snapshot stock", err)
	}
	if list == nil {
		list = []entity.StockSnapshot{}
	}
	return list, nil
}

// computeStock lee ambas sumas con el repositorio de la transacción. Solo se usa con
// los bloqueos del producto tomados, por eso dos lecturas separadas no se mezclan
// con otra escritura.
func computeStock(ctx context.Context, movRepo repository.MovementRepository, productID int64) (int64, error) {
	in, err := movRepo.SumQuantity(ctx, entity.LedgerIN, productID)
	if err != nil {
		return 0, domain.WrapStore("sum receipts", err)
	}
	out, err := movRepo.SumQuantity(ctx, entity.LedgerOUT, productID)
	if err != nil {
		return 0, domain.WrapStore("sum stock-outs", err)
	}
	return in - out, nil
}

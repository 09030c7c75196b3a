package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProductRepo_CreateYDuplicado(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Products()

	p := &entity.Product{Name: "Harina"}
	require.NoError(t, repo.Create(ctx, p))
	assert.EqualValues(t, 1, p.ID)

	err := repo.Create(ctx, &entity.Product{Name: "Harina"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	n, err := repo.CountByName(ctx, "Harina")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	missing, err := repo.GetByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductRepo_ListOrdenadoPorNombre(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Products()
	for _, name := range []string{"Sal", "Azúcar", "Harina"} {
		require.NoError(t, repo.Create(ctx, &entity.Product{Name: name}))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Azúcar", list[0].Name)
	assert.Equal(t, "Harina", list[1].Name)
	assert.Equal(t, "Sal", list[2].Name)
}

func TestMovementRepo_CreateProductoInexistente(t *testing.T) {
	ctx := context.Background()
	movs := memory.NewStore().Movements()

	err := movs.Create(ctx, entity.LedgerIN, &entity.Movement{ProductID: 7, Date: day(2024, 1, 1), Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMovementRepo_ListByDateRange(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	p := &entity.Product{Name: "Harina"}
	require.NoError(t, store.Products().Create(ctx, p))
	movs := store.Movements()

	for _, d := range []time.Time{day(2024, 3, 1), day(2024, 3, 5), day(2024, 3, 5), day(2024, 3, 6)} {
		require.NoError(t, movs.Create(ctx, entity.LedgerIN, &entity.Movement{ProductID: p.ID, Date: d, Quantity: 1}))
	}

	list, err := movs.ListByDateRange(ctx, entity.LedgerIN, entity.InclusiveRange(day(2024, 3, 1), day(2024, 3, 5)))
	require.NoError(t, err)
	require.Len(t, list, 3)
	// fecha desc, luego id desc
	assert.EqualValues(t, 3, list[0].ID)
	assert.EqualValues(t, 2, list[1].ID)
	assert.EqualValues(t, 1, list[2].ID)
	assert.Equal(t, "Harina", list[0].ProductName)

	out, err := movs.ListByDateRange(ctx, entity.LedgerOUT, entity.InclusiveRange(day(2024, 3, 1), day(2024, 3, 31)))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMovementRepo_UpdateDeleteSum(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	a := &entity.Product{Name: "A"}
	b := &entity.Product{Name: "B"}
	require.NoError(t, store.Products().Create(ctx, a))
	require.NoError(t, store.Products().Create(ctx, b))
	movs := store.Movements()

	m := &entity.Movement{ProductID: a.ID, Date: day(2024, 1, 1), Quantity: 4}
	require.NoError(t, movs.Create(ctx, entity.LedgerOUT, m))

	m.ProductID = b.ID
	m.Quantity = 9
	require.NoError(t, movs.Update(ctx, entity.LedgerOUT, m))

	sumA, err := movs.SumQuantity(ctx, entity.LedgerOUT, a.ID)
	require.NoError(t, err)
	sumB, err := movs.SumQuantity(ctx, entity.LedgerOUT, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, sumA)
	assert.EqualValues(t, 9, sumB)

	require.NoError(t, movs.Delete(ctx, entity.LedgerOUT, m.ID))
	assert.ErrorIs(t, movs.Delete(ctx, entity.LedgerOUT, m.ID), domain.ErrNotFound)
	assert.ErrorIs(t, movs.Update(ctx, entity.LedgerOUT, m), domain.ErrNotFound)
}

func TestStockRepo_Snapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sal := &entity.Product{Name: "Sal"}
	azucar := &entity.Product{Name: "Azúcar"}
	require.NoError(t, store.Products().Create(ctx, sal))
	require.NoError(t, store.Products().Create(ctx, azucar))
	require.NoError(t, store.Movements().Create(ctx, entity.LedgerIN, &entity.Movement{ProductID: sal.ID, Date: day(2024, 1, 1), Quantity: 10}))
	require.NoError(t, store.Movements().Create(ctx, entity.LedgerOUT, &entity.Movement{ProductID: sal.ID, Date: day(2024, 1, 2), Quantity: 4}))

	snap, err := store.Stock().Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 2)

	assert.Equal(t, "Azúcar", snap[0].ProductName)
	assert.EqualValues(t, 0, snap[0].CurrentStock())
	assert.Equal(t, "Sal", snap[1].ProductName)
	assert.EqualValues(t, 10, snap[1].TotalIn)
	assert.EqualValues(t, 4, snap[1].TotalOut)
	assert.EqualValues(t, 6, snap[1].CurrentStock())
}

func TestStockRepo_ForProduct(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sal := &entity.Product{Name: "Sal"}
	require.NoError(t, store.Products().Create(ctx, sal))
	require.NoError(t, store.Movements().Create(ctx, entity.LedgerIN, &entity.Movement{ProductID: sal.ID, Date: day(2024, 1, 1), Quantity: 10}))
	require.NoError(t, store.Movements().Create(ctx, entity.LedgerIN, &entity.Movement{ProductID: sal.ID, Date: day(2024, 1, 3), Quantity: 2}))
	require.NoError(t, store.Movements().Create(ctx, entity.LedgerOUT, &entity.Movement{ProductID: sal.ID, Date: day(2024, 1, 2), Quantity: 7}))

	s, err := store.Stock().ForProduct(ctx, sal.ID)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "Sal", s.ProductName)
	assert.EqualValues(t, 12, s.TotalIn)
	assert.EqualValues(t, 7, s.TotalOut)
	assert.EqualValues(t, 5, s.CurrentStock())

	missing, err := store.Stock().ForProduct(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := memory.NewStore()

	err := store.Products().Create(ctx, &entity.Product{Name: "X"})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Stock().Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Stock().ForProduct(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

package usecase_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/notify"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

func newProductUseCase(t *testing.T) (*usecase.ProductUseCase, *atomic.Int32) {
	t.Helper()
	n := notify.New(nil)
	var changes atomic.Int32
	n.Subscribe(notify.ProductsChanged, func(context.Context, notify.Topic) error {
		changes.Add(1)
		return nil
	})
	return usecase.NewProductUseCase(memory.NewStore().Products(), n, nil), &changes
}

func TestProductUseCase_Create(t *testing.T) {
	uc, changes := newProductUseCase(t)
	ctx := context.Background()

	p, err := uc.Create(ctx, "  Harina  ")
	require.NoError(t, err)
	assert.Equal(t, "Harina", p.Name)
	assert.NotZero(t, p.ID)
	assert.EqualValues(t, 1, changes.Load())

	got, err := uc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestProductUseCase_NombreVacio(t *testing.T) {
	uc, changes := newProductUseCase(t)

	_, err := uc.Create(context.Background(), "   ")
	var se *domain.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.CodeEmptyName, se.Code)
	assert.EqualValues(t, 0, changes.Load())
}

func TestProductUseCase_Duplicado(t *testing.T) {
	uc, changes := newProductUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, "Café")
	require.NoError(t, err)

	// "Cafe" + acento combinante: mismo nombre tras NFC
	_, err = uc.Create(ctx, "Cafe\u0301 ")
	var se *domain.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.CodeDuplicateName, se.Code)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.EqualValues(t, 1, changes.Load())

	list, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProductUseCase_NoEncontrado(t *testing.T) {
	uc, _ := newProductUseCase(t)
	_, err := uc.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Café", usecase.NormalizeName("\tCafe\u0301\n"))
	assert.Equal(t, "", usecase.NormalizeName("  "))
}

package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

func TestStockError_UnwrapASentinela(t *testing.T) {
	err := fmt.Errorf("add stock-out: %w", domain.NewInsufficientStock(3, 5, 5, 6))

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.NotErrorIs(t, err, domain.ErrNegativeStock)

	var se *domain.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.CodeInsufficientStock, se.Code)
	assert.EqualValues(t, 5, se.Available)
	assert.EqualValues(t, 6, se.Requested)
	assert.EqualValues(t, -1, se.WouldBe)
}

func TestStockError_Constructores(t *testing.T) {
	assert.ErrorIs(t, domain.NewNonPositiveQuantity(0), domain.ErrInvalidInput)
	assert.ErrorIs(t, domain.NewEmptyName(), domain.ErrInvalidInput)
	assert.ErrorIs(t, domain.NewDuplicateName("Harina"), domain.ErrDuplicate)

	neg := domain.NewNegativeStock(1, 0, -10)
	assert.ErrorIs(t, neg, domain.ErrNegativeStock)
	assert.Contains(t, neg.Error(), "-10")
}

func TestStoreError_IsErrStore(t *testing.T) {
	err := &domain.StoreError{Op: "sum quantity", Err: context.DeadlineExceeded}

	assert.ErrorIs(t, err, domain.ErrStore)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, domain.IsValidation(err))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, domain.IsValidation(domain.NewNonPositiveQuantity(-1)))
	assert.True(t, domain.IsValidation(fmt.Errorf("x: %w", domain.ErrNotFound)))
	assert.False(t, domain.IsValidation(errors.New("conexión rechazada")))
}

func TestWrapStore(t *testing.T) {
	assert.NoError(t, domain.WrapStore("op", nil))

	v := domain.NewNonPositiveQuantity(0)
	assert.Same(t, v, domain.WrapStore("op", v))

	err := domain.WrapStore("insert receipt", errors.New("conexión rechazada"))
	var se *domain.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "insert receipt", se.Op)

	again := domain.WrapStore("otra", err)
	assert.Same(t, err, again, "no se envuelve dos veces")
}

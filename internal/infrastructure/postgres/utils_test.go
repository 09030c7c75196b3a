package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestConstraintViolations(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	fk := &pgconn.PgError{Code: "23503"}

	assert.True(t, isUniqueViolation(unique))
	assert.False(t, isForeignKeyViolation(unique))
	assert.True(t, isForeignKeyViolation(fk))
	assert.False(t, isUniqueViolation(errors.New("23505 en texto plano")))
}

func TestTableFor(t *testing.T) {
	in, err := tableFor(entity.LedgerIN)
	require.NoError(t, err)
	assert.Equal(t, "stock_receipts", in.table)
	assert.Equal(t, "receipt_date", in.dateCol)

	out, err := tableFor(entity.LedgerOUT)
	require.NoError(t, err)
	assert.Equal(t, "out_id", out.idCol)

	_, err = tableFor(entity.Ledger("TRANSFER"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

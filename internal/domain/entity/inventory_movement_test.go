package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalendarDate_DescartaHora(t *testing.T) {
	in := time.Date(2024, 3, 9, 23, 59, 59, 999, time.FixedZone("COT", -5*3600))
	assert.Equal(t, day(2024, 3, 9), entity.CalendarDate(in))
}

func TestInclusiveRange_Semiabierto(t *testing.T) {
	r := entity.InclusiveRange(day(2024, 1, 1), day(2024, 1, 31))

	assert.True(t, r.Contains(day(2024, 1, 1)), "startDate incluido")
	assert.True(t, r.Contains(time.Date(2024, 1, 31, 18, 0, 0, 0, time.UTC)), "endDate incluido completo")
	assert.False(t, r.Contains(day(2024, 2, 1)), "endDate+1 excluido")
	assert.False(t, r.Contains(day(2023, 12, 31)))
	assert.Equal(t, day(2024, 2, 1), r.To)
}

func TestLedger_Sign(t *testing.T) {
	assert.EqualValues(t, 1, entity.LedgerIN.Sign())
	assert.EqualValues(t, -1, entity.LedgerOUT.Sign())
	assert.False(t, entity.Ledger("ADJUST").Valid())
}

func TestStockSnapshot_CurrentStock(t *testing.T) {
	s := entity.StockSnapshot{TotalIn: 12, TotalOut: 7}
	assert.EqualValues(t, 5, s.CurrentStock())
}

package http

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// parseDate fecha calendario YYYY-MM-DD; vacío devuelve def.
func parseDate(raw string, def time.Time) (time.Time, error) {
	if raw == "" {
		return def, nil
	}
	t, err := time.Parse(dto.DateLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return entity.CalendarDate(t), nil
}

// defaultWindow ventana de filtro por defecto: del mismo día del mes anterior a hoy.
func defaultWindow(now time.Time) (from, to time.Time) {
	to = entity.CalendarDate(now)
	return to.AddDate(0, -1, 0), to
}

package entity

import "time"

// Ledger identifica uno de los dos libros de movimientos.
type Ledger string

// Libros de movimientos de inventario.
const (
	LedgerIN  Ledger = "IN"  // entradas (stock_receipts)
	LedgerOUT Ledger = "OUT" // salidas (stock_out)
)

// Valid indica si el libro es IN u OUT.
func (l Ledger) Valid() bool {
	return l == LedgerIN || l == LedgerOUT
}

// Sign efecto de una unidad del libro sobre el stock: +1 entradas, -1 salidas.
func (l Ledger) Sign() int64 {
	if l == LedgerOUT {
		return -1
	}
	return 1
}

// Movement es una fila de un libro (una entrada o una salida).
// ProductName solo se completa en lecturas con join a products.
type Movement struct {
	ID          int64
	Ledger      Ledger
	ProductID   int64
	ProductName string
	Date        time.Time // fecha calendario, medianoche UTC
	Quantity    int64     // siempre > 0; el signo lo da el libro
}

// CalendarDate descarta la hora: medianoche UTC del mismo día calendario de t.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange intervalo semiabierto [From, To) a nivel de día.
type DateRange struct {
	From time.Time
	To   time.Time
}

// InclusiveRange construye [start, end+1día): end se incluye completo.
func InclusiveRange(start, end time.Time) DateRange {
	return DateRange{
		From: CalendarDate(start),
		To:   CalendarDate(end).AddDate(0, 0, 1),
	}
}

// Contains indica si la fecha calendario de t cae en el intervalo.
func (r DateRange) Contains(t time.Time) bool {
	d := CalendarDate(t)
	return !d.Before(r.From) && d.Before(r.To)
}

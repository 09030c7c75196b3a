package entity

// StockSnapshot stock derivado de un producto (no se persiste).
type StockSnapshot struct {
	ProductID   int64
	ProductName string
	TotalIn     int64
	TotalOut    int64
}

// CurrentStock total de entradas menos total de salidas.
func (s StockSnapshot) CurrentStock() int64 {
	return s.TotalIn - s.TotalOut
}

package dto

import (
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// DateLayout formato de fechas calendario en la API.
const DateLayout = "2006-01-02"

// MovementRequest body para POST/PUT de entradas y salidas.
type MovementRequest struct {
	ProductID int64  `json:"product_id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Quantity  int64  `json:"quantity"`
}

// MovementResponse una entrada o salida.
type MovementResponse struct {
	ID          int64  `json:"id"`
	Ledger      string `json:"ledger"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Date        string `json:"date"`
	Quantity    int64  `json:"quantity"`
}

// MovementListResponse resultado de un filtro por fechas (ambos extremos incluidos).
type MovementListResponse struct {
	From  string             `json:"from"`
	To    string             `json:"to"`
	Items []MovementResponse `json:"items"`
	Total int                `json:"total"`
}

// StockResponse stock derivado de un producto.
type StockResponse struct {
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	TotalIn      int64  `json:"total_in"`
	TotalOut     int64  `json:"total_out"`
	CurrentStock int64  `json:"current_stock"`
}

// MovementFromEntity convierte la entidad en respuesta.
func MovementFromEntity(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:          m.ID,
		Ledger:      string(m.Ledger),
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		Date:        m.Date.Format(DateLayout),
		Quantity:    m.Quantity,
	}
}

// MovementsFromEntities convierte un listado.
func MovementsFromEntities(list []*entity.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, MovementFromEntity(m))
	}
	return out
}

// StockFromSnapshot convierte un snapshot en respuesta.
func StockFromSnapshot(s entity.StockSnapshot) StockResponse {
	return StockResponse{
		ProductID:    s.ProductID,
		ProductName:  s.ProductName,
		TotalIn:      s.TotalIn,
		TotalOut:     s.TotalOut,
		CurrentStock: s.CurrentStock(),
	}
}

package dto

import "github.com/jhoicas/stock-ledger/internal/domain/entity"

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductListResponse listado completo de productos (ordenado por nombre).
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Total int               `json:"total"`
}

// ProductFromEntity convierte la entidad en respuesta.
func ProductFromEntity(p *entity.Product) ProductResponse {
	return ProductResponse{ID: p.ID, Name: p.Name}
}

// ProductListFromEntities convierte un listado.
func ProductListFromEntities(list []*entity.Product) ProductListResponse {
	items := make([]ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, ProductFromEntity(p))
	}
	return ProductListResponse{Items: items, Total: len(items)}
}

package entity

// Product representa un producto del catálogo. El nombre es único y no vacío;
// no se renombra ni se elimina (los movimientos lo referencian).
type Product struct {
	ID   int64
	Name string
}

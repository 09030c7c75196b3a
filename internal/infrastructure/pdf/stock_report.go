// Package pdf genera el reporte imprimible de existencias.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título                    │  Fecha de generación     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Entradas | Salidas | Stock actual         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: productos / unidades en stock                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 190, Green: 30, Blue: 45}
)

// StockReportGenerator genera el PDF del snapshot de stock con Maroto v2.
type StockReportGenerator struct {
	title string
}

// NewStockReportGenerator construye el generador. title vacío usa el título por defecto.
func NewStockReportGenerator(title string) *StockReportGenerator {
	if title == "" {
		title = "Existencias de inventario"
	}
	return &StockReportGenerator{title: title}
}

// Generate devuelve los bytes del PDF con una fila por producto.
func (g *StockReportGenerator) Generate(_ context.Context, snapshot []entity.StockSnapshot, generatedAt time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(g.title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.title, generatedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(snapshot)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(snapshot))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(title string, at time.Time) core.Row {
	return row.New(14).Add(
		col.New(8).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 2,
			}),
		),
		col.New(4).Add(
			text.New("Generado: "+at.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 4, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2,
		}))
	}
	return row.New(8).Add(
		h("Producto", 6, align.Left),
		h("Entradas", 2, align.Right),
		h("Salidas", 2, align.Right),
		h("Stock", 2, align.Right),
	)
}

func tableRows(snapshot []entity.StockSnapshot) []core.Row {
	rows := make([]core.Row, 0, len(snapshot))
	for _, s := range snapshot {
		stockProps := props.Text{Size: 8, Align: align.Right, Top: 1, Style: fontstyle.Bold}
		if s.CurrentStock() == 0 {
			stockProps.Color = colorAlert
		}
		rows = append(rows, row.New(6).Add(
			col.New(6).Add(text.New(s.ProductName, props.Text{Size: 8, Top: 1})),
			col.New(2).Add(text.New(strconv.FormatInt(s.TotalIn, 10), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New(strconv.FormatInt(s.TotalOut, 10), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New(strconv.FormatInt(s.CurrentStock(), 10), stockProps)),
		))
	}
	return rows
}

func totalsRow(snapshot []entity.StockSnapshot) core.Row {
	var units int64
	for _, s := range snapshot {
		units += s.CurrentStock()
	}
	return row.New(10).Add(
		col.New(6).Add(text.New(fmt.Sprintf("Productos: %d", len(snapshot)), props.Text{
			Size: 9, Top: 3, Color: colorGray,
		})),
		col.New(6).Add(text.New(fmt.Sprintf("Unidades en stock: %d", units), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 3,
		})),
	)
}

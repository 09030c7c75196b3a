package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// StockReportGenerator genera el reporte imprimible del snapshot.
type StockReportGenerator interface {
	Generate(ctx context.Context, snapshot []entity.StockSnapshot, generatedAt time.Time) ([]byte, error)
}

// StockHandler lecturas del stock derivado.
type StockHandler struct {
	agg      *inventory.Aggregator
	products *usecase.ProductUseCase
	report   StockReportGenerator
	log      *logger.Logger
}

// NewStockHandler construye el handler. report puede ser nil (sin /report.pdf).
func NewStockHandler(agg *inventory.Aggregator, products *usecase.ProductUseCase, report StockReportGenerator, log *logger.Logger) *StockHandler {
	return &StockHandler{agg: agg, products: products, report: report, log: log}
}

// List godoc
// @Summary      Stock de todos los productos
// @Tags         stock
// @Produce      json
// @Success      200  {array}  dto.StockResponse
// @Router       /api/stock [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	snap, err := h.agg.SnapshotAll(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.StockResponse, 0, len(snap))
	for _, s := range snap {
		out = append(out, dto.StockFromSnapshot(s))
	}
	return c.JSON(out)
}

// GetByProduct godoc
// @Summary      Stock de un producto
// @Tags         stock
// @Produce      json
// @Param        productId  path  int  true  "ID del producto"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{productId} [get]
func (h *StockHandler) GetByProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("productId")
	if err != nil || id <= 0 {
		return badRequest(c, "INVALID_ID", "productId inválido")
	}
	ctx := c.UserContext()
	p, err := h.products.GetByID(ctx, int64(id))
	if err != nil {
		return writeError(c, h.log, err)
	}
	s, err := h.agg.ProductSnapshot(ctx, p)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.StockFromSnapshot(s))
}

// Report godoc
// @Summary      Reporte PDF de existencias
// @Tags         stock
// @Produce      application/pdf
// @Success      200  {file}  file
// @Router       /api/stock/report.pdf [get]
func (h *StockHandler) Report(c *fiber.Ctx) error {
	if h.report == nil {
		return fiber.ErrNotFound
	}
	ctx := c.UserContext()
	snap, err := h.agg.SnapshotAll(ctx)
	if err != nil {
		return writeError(c, h.log, err)
	}
	pdf, err := h.report.Generate(ctx, snap, time.Now())
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="stock.pdf"`)
	return c.Send(pdf)
}

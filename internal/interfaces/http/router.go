package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/notify"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC  *usecase.ProductUseCase
	Engine     *inventory.Engine
	Aggregator *inventory.Aggregator
	Notifier   *notify.Notifier
	Report     StockReportGenerator // opcional
	Log        *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("http")

	api := app.Group("/api")

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, log)
	products.Get("/", productHandler.List)
	products.Post("/", productHandler.Create)
	products.Get("/:id", productHandler.GetByID)

	// Stock derivado (report.pdf antes que :productId)
	stock := api.Group("/stock")
	stockHandler := NewStockHandler(deps.Aggregator, deps.ProductUC, deps.Report, log)
	stock.Get("/", stockHandler.List)
	stock.Get("/report.pdf", stockHandler.Report)
	stock.Get("/:productId", stockHandler.GetByProduct)

	// Libros de entradas y salidas
	registerLedger(api.Group("/receipts"), NewMovementHandler(deps.Engine, entity.LedgerIN, log))
	registerLedger(api.Group("/stock-outs"), NewMovementHandler(deps.Engine, entity.LedgerOUT, log))

	// Server-Sent Events
	api.Get("/events", NewEventsHandler(deps.Notifier, log).Stream)
}

func registerLedger(g fiber.Router, h *MovementHandler) {
	g.Get("/", h.List)
	g.Post("/", h.Create)
	g.Get("/:id", h.GetByID)
	g.Put("/:id", h.Update)
	g.Delete("/:id", h.Delete)
}

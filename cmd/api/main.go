package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/notify"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	infrakafka "github.com/jhoicas/stock-ledger/internal/infrastructure/kafka"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// stores repositorios y runner del driver elegido.
type stores struct {
	products  repository.ProductRepository
	movements repository.MovementRepository
	stock     repository.StockRepository
	txRunner  inventory.TxRunner
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("inicializar almacén")
	}
	defer st.close()

	notifier := notify.New(log)
	engine := inventory.NewEngine(st.txRunner, st.movements, notifier, log, inventory.EngineConfig{
		LockTimeout:  cfg.Ledger.LockTimeout,
		StoreTimeout: cfg.Ledger.StoreTimeout,
	})
	aggregator := inventory.NewAggregator(st.stock)
	productUC := usecase.NewProductUseCase(st.products, notifier, log)

	// Puente Kafka: exporta cambios y recibe los de otras instancias.
	bridgeDone := make(chan struct{})
	if cfg.Kafka.Enabled() {
		bridge := infrakafka.NewBridge(cfg.Kafka, notifier, log)
		go func() {
			defer close(bridgeDone)
			if err := bridge.Run(ctx); err != nil {
				log.Error().Err(err).Msg("puente kafka finalizado")
			}
		}()
	} else {
		close(bridgeDone)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.Docs.SwaggerPath); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.Docs.SwaggerPath,
			Path:     "docs",
			Title:    "Stock Ledger API",
		}))
	} else {
		log.Warn().Str("path", cfg.Docs.SwaggerPath).Msg("swagger.json no encontrado, /docs deshabilitado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:  productUC,
		Engine:     engine,
		Aggregator: aggregator,
		Notifier:   notifier,
		Report:     infrapdf.NewStockReportGenerator(""),
		Log:        log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	<-bridgeDone

	log.Info().Msg("aplicación detenida")
}

// openStores abre el almacén según STORE_DRIVER.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &stores{
			products:  s.Products(),
			movements: s.Movements(),
			stock:     s.Stock(),
			txRunner:  s.TxRunner(),
			close:     func() {},
		}, nil
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			products:  postgres.NewProductRepository(pool),
			movements: postgres.NewMovementRepository(pool),
			stock:     postgres.NewStockRepository(pool),
			txRunner:  postgres.NewTxRunner(pool),
			close:     pool.Close,
		}, nil
	}
}

// errorHandler respuestas de error de fiber (404 de ruta, panics recuperados) con el mismo cuerpo que la API.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(dto.ErrorResponse{Code: "HTTP_" + strconv.Itoa(code), Message: err.Error()})
}

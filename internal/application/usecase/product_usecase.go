package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/stock-ledger/internal/application/notify"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ProductUseCase catálogo de productos. Los productos solo se crean y se leen;
// el stock se maneja vía movimientos.
type ProductUseCase struct {
	repo     repository.ProductRepository
	notifier *notify.Notifier
	log      *logger.Logger

	// createMu serializa el chequeo de duplicado + insert dentro del proceso;
	// entre procesos lo cubre el UNIQUE de products.product_name.
	createMu sync.Mutex
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, notifier *notify.Notifier, log *logger.Logger) *ProductUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductUseCase{repo: repo, notifier: notifier, log: log.Named("products")}
}

// NormalizeName recorta espacios y normaliza a NFC para que "Café" compuesto y
// descompuesto sean el mismo nombre.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Create crea un producto tras verificar que el nombre no esté vacío ni duplicado.
func (uc *ProductUseCase) Create(ctx context.Context, name string) (*entity.Product, error) {
	name = NormalizeName(name)
	if name == "" {
		return nil, domain.NewEmptyName()
	}

	uc.createMu.Lock()
	defer uc.createMu.Unlock()

	n, err := uc.repo.CountByName(ctx, name)
	if err != nil {
		err = domain.WrapStore("count product name", err)
		uc.log.Error().Err(err).Str("name", name).Msg("verificar duplicado")
		return nil, err
	}
	if n > 0 {
		return nil, domain.NewDuplicateName(name)
	}

	product := &entity.Product{Name: name}
	if err := uc.repo.Create(ctx, product); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// carrera con otra instancia: el UNIQUE de la tabla lo detectó
			return nil, domain.NewDuplicateName(name)
		}
		err = domain.WrapStore("insert product", err)
		uc.log.Error().Err(err).Str("name", name).Msg("crear producto")
		return nil, err
	}

	uc.log.Info().Int64("product_id", product.ID).Str("name", name).Msg("producto creado")
	uc.notifier.Publish(context.WithoutCancel(ctx), notify.ProductsChanged)
	return product, nil
}

// GetByID obtiene un producto por ID; domain.ErrNotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.WrapStore("get product", err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %d", domain.ErrNotFound, id)
	}
	return product, nil
}

// List lista todos los productos ordenados por nombre.
func (uc *ProductUseCase) List(ctx context.Context) ([]*entity.Product, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, domain.WrapStore("list products", err)
	}
	if list == nil {
		list = []*entity.Product{}
	}
	return list, nil
}

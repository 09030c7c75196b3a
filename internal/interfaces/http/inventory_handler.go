package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// MovementHandler CRUD + filtro de un libro (entradas o salidas). Las rutas de
// /api/receipts y /api/stock-outs usan el mismo handler con distinto libro.
type MovementHandler struct {
	engine *inventory.Engine
	ledger entity.Ledger
	log    *logger.Logger
	now    func() time.Time
}

// NewMovementHandler construye el handler del libro indicado.
func NewMovementHandler(engine *inventory.Engine, ledger entity.Ledger, log *logger.Logger) *MovementHandler {
	return &MovementHandler{engine: engine, ledger: ledger, log: log, now: time.Now}
}

// Create godoc
// @Summary      Registrar entrada o salida
// @Description  Las salidas se rechazan con 409 INSUFFICIENT_STOCK si superan el stock actual.
// @Tags         movements
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "product_id, date (YYYY-MM-DD), quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/receipts [post]
// @Router       /api/stock-outs [post]
func (h *MovementHandler) Create(c *fiber.Ctx) error {
	in, date, bad := parseMovement(c)
	if bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	m, err := h.engine.Add(c.UserContext(), h.ledger, in.ProductID, date, in.Quantity)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementFromEntity(m))
}

// Update godoc
// @Summary      Modificar entrada o salida
// @Description  Reemplaza producto, fecha y cantidad. 409 NEGATIVE_STOCK / INSUFFICIENT_STOCK si el stock quedaría negativo.
// @Tags         movements
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID del movimiento"
// @Param        body  body  dto.MovementRequest  true  "product_id, date, quantity"
// @Success      200   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [put]
// @Router       /api/stock-outs/{id} [put]
func (h *MovementHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	in, date, bad := parseMovement(c)
	if bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	m, err := h.engine.Update(c.UserContext(), h.ledger, int64(id), in.ProductID, date, in.Quantity)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MovementFromEntity(m))
}

// Delete godoc
// @Summary      Eliminar entrada o salida
// @Tags         movements
// @Param        id   path  int  true  "ID del movimiento"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [delete]
// @Router       /api/stock-outs/{id} [delete]
func (h *MovementHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	if err := h.engine.Delete(c.UserContext(), h.ledger, int64(id)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetByID godoc
// @Summary      Obtener entrada o salida
// @Tags         movements
// @Produce      json
// @Param        id   path  int  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [get]
// @Router       /api/stock-outs/{id} [get]
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	m, err := h.engine.Get(c.UserContext(), h.ledger, int64(id))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MovementFromEntity(m))
}

// List godoc
// @Summary      Filtrar por fechas
// @Description  Ambos extremos incluidos. Por defecto, del mismo día del mes anterior a hoy.
// @Tags         movements
// @Produce      json
// @Param        from  query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to    query  string  false  "Hasta (YYYY-MM-DD)"
// @Success      200   {object}  dto.MovementListResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/receipts [get]
// @Router       /api/stock-outs [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	defFrom, defTo := defaultWindow(h.now())
	from, err := parseDate(c.Query("from"), defFrom)
	if err != nil {
		return badRequest(c, "INVALID_DATE", "from debe tener formato YYYY-MM-DD")
	}
	to, err := parseDate(c.Query("to"), defTo)
	if err != nil {
		return badRequest(c, "INVALID_DATE", "to debe tener formato YYYY-MM-DD")
	}
	list, err := h.engine.Filter(c.UserContext(), h.ledger, from, to)
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := dto.MovementsFromEntities(list)
	return c.JSON(dto.MovementListResponse{
		From:  from.Format(dto.DateLayout),
		To:    to.Format(dto.DateLayout),
		Items: items,
		Total: len(items),
	})
}

// parseMovement lee y valida el formato del body; bad != nil si es inválido.
func parseMovement(c *fiber.Ctx) (in dto.MovementRequest, date time.Time, bad *dto.ErrorResponse) {
	if err := c.BodyParser(&in); err != nil {
		return in, date, &dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"}
	}
	if in.Date == "" {
		return in, date, &dto.ErrorResponse{Code: "VALIDATION", Message: "date es requerido"}
	}
	date, err := parseDate(in.Date, time.Time{})
	if err != nil {
		return in, date, &dto.ErrorResponse{Code: "INVALID_DATE", Message: "date debe tener formato YYYY-MM-DD"}
	}
	return in, date, nil
}

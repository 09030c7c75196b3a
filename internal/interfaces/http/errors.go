package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// writeError traduce un error de dominio a status + ErrorResponse.
// Las fallas del almacén se registran; los rechazos de negocio no.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var se *domain.StockError
	if errors.As(err, &se) {
		resp := dto.ErrorResponse{Code: se.Code, Message: se.Message}
		status := fiber.StatusBadRequest
		switch se.Code {
		case domain.CodeInsufficientStock, domain.CodeNegativeStock:
			status = fiber.StatusConflict
			resp.Details = &dto.ErrorDetails{
				ProductID:    se.ProductID,
				CurrentStock: se.CurrentStock,
				Requested:    se.Requested,
				Available:    se.Available,
				WouldBe:      se.WouldBe,
			}
		case domain.CodeNonPositiveQuantity:
			resp.Details = &dto.ErrorDetails{Requested: se.Requested}
		case domain.CodeDuplicateName:
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(resp)
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "CANCELLED", Message: "operación cancelada"})
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	code := "INTERNAL"
	if errors.Is(err, domain.ErrStore) {
		code = "STORE_ERROR"
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

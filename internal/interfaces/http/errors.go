package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/domain"
)

// validate instancia compartida (cachea la metadata de los structs).
var validate = validator.New()

// errorStatus tabla sentinel → (status, código).
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrEmptyCart, fiber.StatusBadRequest, "EMPTY_CART"},
	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY"},
	{domain.ErrInvalidReference, fiber.StatusBadRequest, "INVALID_REFERENCE"},
	{domain.ErrSameBranchTransfer, fiber.StatusBadRequest, "SAME_BRANCH_TRANSFER"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrOriginalSaleNotFound, fiber.StatusNotFound, "ORIGINAL_SALE_NOT_FOUND"},
	{domain.ErrSourceStockNotFound, fiber.StatusNotFound, "SOURCE_STOCK_NOT_FOUND"},
	{domain.ErrStockNotFound, fiber.StatusNotFound, "STOCK_NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrReturnExceedsOriginal, fiber.StatusConflict, "RETURN_EXCEEDS_ORIGINAL"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
}

// writeError traduce errores de dominio a respuestas HTTP; el resto es 500.
func writeError(c *fiber.Ctx, err error) error {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return c.Status(e.status).JSON(dto.ErrorResponse{Code: e.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// bindBody decodifica el JSON y aplica las reglas validate del DTO. nil = válido.
func bindBody(c *fiber.Ctx, out any) *dto.ErrorResponse {
	if err := c.BodyParser(out); err != nil {
		return &dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"}
	}
	if err := validate.Struct(out); err != nil {
		return &dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	}
	return nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func forbiddenBranch(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "sin acceso a la sucursal"})
}

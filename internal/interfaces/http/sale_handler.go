package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/sales"
)

// SaleHandler maneja ventas, devoluciones y cambios (protegido).
type SaleHandler struct {
	sales *sales.SaleUseCase
	query *sales.QueryUseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *sales.SaleUseCase, query *sales.QueryUseCase) *SaleHandler {
	return &SaleHandler{sales: uc, query: query}
}

// Create godoc
// @Summary      Registrar venta
// @Description  Descuenta stock por producto (permite sobreventa) y devuelve la venta con su número.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "branch_id, payment_method, items"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateSaleRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	if !canUseBranch(c, in.BranchID) {
		return forbiddenBranch(c)
	}
	out, err := h.sales.CreateSale(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreateReturn godoc
// @Summary      Devolución y/o cambio sobre una venta
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la venta original"
// @Param        body  body  dto.ReturnExchangeRequest  true  "returned_items y/o exchanged_items"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/returns [post]
func (h *SaleHandler) CreateReturn(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.ReturnExchangeRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	in.OriginalSaleID = c.Params("id")
	if !canUseBranch(c, in.BranchID) {
		return forbiddenBranch(c)
	}
	out, err := h.sales.CreateExchangeOrReturnSale(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Ventas de la sucursal
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.SaleResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	out, err := h.query.GetSales(c.UserContext(), h.branch(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListReturnable godoc
// @Summary      Ventas completadas (candidatas a devolución)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.SaleResponse
// @Router       /api/sales/returnable [get]
func (h *SaleHandler) ListReturnable(c *fiber.Ctx) error {
	out, err := h.query.GetSalesForReturns(c.UserContext(), h.branch(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListToday godoc
// @Summary      Ventas de hoy
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.SaleResponse
// @Router       /api/sales/today [get]
func (h *SaleHandler) ListToday(c *fiber.Ctx) error {
	out, err := h.query.GetTodaySales(c.UserContext(), h.branch(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RecentItems godoc
// @Summary      Productos de la última venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.RecentItemResponse
// @Router       /api/sales/recent-items [get]
func (h *SaleHandler) RecentItems(c *fiber.Ctx) error {
	out, err := h.query.GetRecentSaleItems(c.UserContext(), h.branch(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Venta por ID
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.query.GetSaleByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if !canUseBranch(c, out.BranchID) {
		return forbiddenBranch(c)
	}
	return c.JSON(out)
}

func (h *SaleHandler) branch(c *fiber.Ctx) string {
	return inventory.ScopeBranch(GetRole(c), c.Query("branch_id"), GetBranchID(c))
}

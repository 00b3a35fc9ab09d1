package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
)

// InventoryHandler maneja las peticiones HTTP de stock y ledger (protegido).
type InventoryHandler struct {
	stock         *inventory.StockUseCase
	query         *inventory.QueryUseCase
	replenishment *inventory.ReplenishmentUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(stock *inventory.StockUseCase, query *inventory.QueryUseCase, replenishment *inventory.ReplenishmentUseCase) *InventoryHandler {
	return &InventoryHandler{stock: stock, query: query, replenishment: replenishment}
}

// CreateStock godoc
// @Summary      Ingreso de mercancía por compra
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockRequest  true  "product_id, branch_id, quantity, unit_cost opcional"
// @Success      201   {object}  dto.StockChangeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock [post]
func (h *InventoryHandler) CreateStock(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateStockRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	if !canUseBranch(c, in.BranchID) {
		return forbiddenBranch(c)
	}
	out, err := h.stock.CreateStock(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// AdjustStock godoc
// @Summary      Ajuste de stock con signo
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "quantity_change positivo o negativo"
// @Success      200   {object}  dto.StockChangeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/adjust [post]
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.AdjustStockRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	if !canUseBranch(c, in.BranchID) {
		return forbiddenBranch(c)
	}
	out, err := h.stock.AdjustStock(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RemoveStock godoc
// @Summary      Baja de mercancía
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RemoveStockRequest  true  "quantity > 0"
// @Success      200   {object}  dto.StockChangeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/remove [post]
func (h *InventoryHandler) RemoveStock(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.RemoveStockRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	if !canUseBranch(c, in.BranchID) {
		return forbiddenBranch(c)
	}
	out, err := h.stock.RemoveStock(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// TransferStock godoc
// @Summary      Traslado entre sucursales
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferStockRequest  true  "from_branch_id, to_branch_id, quantity"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/transfer [post]
func (h *InventoryHandler) TransferStock(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.TransferStockRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	if !canUseBranch(c, in.FromBranchID) {
		return forbiddenBranch(c)
	}
	out, err := h.stock.TransferStock(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetStock godoc
// @Summary      Stock por sucursal
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Sucursal (solo administradores)"
// @Param        search     query  string  false  "Nombre o SKU"
// @Param        page       query  int     false  "Página (desde 1)"
// @Param        limit      query  int     false  "Filas por página (máx 100)"
// @Success      200  {object}  dto.StockListResponse
// @Router       /api/stock [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	out, err := h.query.GetStockByBranch(c.UserContext(), inventory.StockQuery{
		BranchID:     c.Query("branch_id"),
		UserBranchID: GetBranchID(c),
		Role:         GetRole(c),
		Search:       c.Query("search"),
		PageRequest:  dto.PageRequest{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", 20)},
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetMovements godoc
// @Summary      Ledger de movimientos (cursor)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        branch_id   query  string  false  "Sucursal (solo administradores)"
// @Param        product_id  query  string  false  "Producto"
// @Param        cursor      query  string  false  "Cursor devuelto en next_cursor"
// @Param        limit       query  int     false  "Filas (máx 100)"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/movements [get]
func (h *InventoryHandler) GetMovements(c *fiber.Ctx) error {
	out, err := h.query.GetStockMovements(c.UserContext(), inventory.MovementQuery{
		BranchID:     c.Query("branch_id"),
		UserBranchID: GetBranchID(c),
		Role:         GetRole(c),
		ProductID:    c.Query("product_id"),
		Cursor:       c.Query("cursor"),
		Limit:        c.QueryInt("limit", 0),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetTodayMovements godoc
// @Summary      Movimientos de hoy
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/stock/movements/today [get]
func (h *InventoryHandler) GetTodayMovements(c *fiber.Ctx) error {
	branchID := inventory.ScopeBranch(GetRole(c), c.Query("branch_id"), GetBranchID(c))
	out, err := h.query.GetTodayStockMovements(c.UserContext(), branchID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Productos en o bajo su mínimo con la cantidad sugerida para volver al máximo,
//
//	ordenados por unidades vendidas en 90 días.
//
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Sucursal (solo administradores). Vacío = todas."
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/stock/replenishment [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	branchID := inventory.ScopeBranch(GetRole(c), c.Query("branch_id"), GetBranchID(c))
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext(), branchID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

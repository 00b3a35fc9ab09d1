package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/usecase"
)

// NotificationHandler panel de notificaciones (protegido).
type NotificationHandler struct {
	uc *usecase.NotificationUseCase
}

// NewNotificationHandler construye el handler.
func NewNotificationHandler(uc *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

// List godoc
// @Summary      Notificaciones de la sucursal
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Param        unread  query  bool  false  "Solo no leídas"
// @Param        page    query  int   false  "Página"
// @Param        limit   query  int   false  "Filas por página"
// @Success      200  {array}  dto.NotificationResponse
// @Router       /api/notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	branchID := inventory.ScopeBranch(GetRole(c), c.Query("branch_id"), GetBranchID(c))
	page := dto.PageRequest{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", 20)}
	out, err := h.uc.List(c.UserContext(), branchID, c.QueryBool("unread", false), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

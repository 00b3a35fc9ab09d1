package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/sales"
	"github.com/jhoicas/pos-ledger/internal/application/usecase"
	"github.com/jhoicas/pos-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockUC         *inventory.StockUseCase
	StockQueryUC    *inventory.QueryUseCase
	ReplenishmentUC *inventory.ReplenishmentUseCase
	SaleUC          *sales.SaleUseCase
	SaleQueryUC     *sales.QueryUseCase
	NotificationUC  *usecase.NotificationUseCase
	BranchChecker   branchChecker
	HealthCheck     func() error // nil = siempre sano
	JWTSecret       string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", healthHandler(deps.HealthCheck))

	// Rutas protegidas (requieren Bearer Token y sucursal activa)
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret), RequireBranch(deps.BranchChecker))
	managers := RequireRole(jwt.RoleSuperAdmin, jwt.RoleAdmin, jwt.RoleManager)

	// Stock y ledger
	inventoryHandler := NewInventoryHandler(deps.StockUC, deps.StockQueryUC, deps.ReplenishmentUC)
	stock := protected.Group("/stock")
	stock.Get("/", inventoryHandler.GetStock)
	stock.Post("/", managers, inventoryHandler.CreateStock)
	stock.Post("/adjust", managers, inventoryHandler.AdjustStock)
	stock.Post("/remove", managers, inventoryHandler.RemoveStock)
	stock.Post("/transfer", managers, inventoryHandler.TransferStock)
	stock.Get("/movements", inventoryHandler.GetMovements)
	stock.Get("/movements/today", inventoryHandler.GetTodayMovements)
	stock.Get("/replenishment", managers, inventoryHandler.GetReplenishmentList)

	// Ventas, devoluciones y cambios
	saleHandler := NewSaleHandler(deps.SaleUC, deps.SaleQueryUC)
	salesGroup := protected.Group("/sales")
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Get("/returnable", saleHandler.ListReturnable)
	salesGroup.Get("/today", saleHandler.ListToday)
	salesGroup.Get("/recent-items", saleHandler.RecentItems)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Post("/:id/returns", saleHandler.CreateReturn)

	// Notificaciones
	notificationHandler := NewNotificationHandler(deps.NotificationUC)
	protected.Get("/notifications", notificationHandler.List)
}

// healthHandler 200 si la base responde, 503 si no.
func healthHandler(check func() error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if check != nil {
			if err := check(); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

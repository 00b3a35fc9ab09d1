package sales

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// SalesTxRunner ejecuta una función dentro de una transacción que incluye repos de stock, ledger y ventas.
type SalesTxRunner interface {
	RunSales(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// InventoryRecorder interfaz para integrar ventas con el ledger de stock.
// RecordInTx usa los repositorios del caller (misma transacción); si retorna error el caller hace rollback.
type InventoryRecorder interface {
	RecordInTx(
		ctx context.Context,
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		spec inventory.MovementSpec,
	) (*entity.MovementRecord, error)
}

// LowStockChecker revisión de stock bajo después del commit.
type LowStockChecker interface {
	CheckLowStock(ctx context.Context, branchID string, productIDs []string) int
}

package inventory

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/jhoicas/pos-ledger/pkg/metrics"
)

// StockAlerter revisa existencias después del commit y emite avisos de stock bajo.
// Nunca devuelve error: los fallos se registran y se descartan.
type StockAlerter struct {
	stockRepo   repository.StockRepository
	productRepo repository.ProductRepository
	sink        ports.NotificationSink
	policy      inventory.LowStockPolicy
	log         *logger.Logger
	metrics     *metrics.LedgerMetrics
}

// NewStockAlerter construye el alerter. stockRepo y productRepo deben ser del pool, no de una tx.
func NewStockAlerter(
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	sink ports.NotificationSink,
	policy inventory.LowStockPolicy,
	log *logger.Logger,
	m *metrics.LedgerMetrics,
) *StockAlerter {
	if log == nil {
		log = logger.Nop()
	}
	return &StockAlerter{
		stockRepo:   stockRepo,
		productRepo: productRepo,
		sink:        sink,
		policy:      policy,
		log:         log.Component("stock_alerter"),
		metrics:     m,
	}
}

// CheckLowStock relee el stock de cada producto en la sucursal y avisa los que están bajos.
// Devuelve cuántos avisos se entregaron al sink.
func (a *StockAlerter) CheckLowStock(ctx context.Context, branchID string, productIDs []string) int {
	if a == nil || a.sink == nil {
		return 0
	}
	sent := 0
	for _, productID := range productIDs {
		stock, err := a.stockRepo.Get(ctx, productID, branchID)
		if err != nil {
			a.fail(err, "leer stock", productID, branchID)
			continue
		}
		if stock == nil || !a.policy.IsLow(stock.CurrentQuantity, stock.MinimumQuantity) {
			continue
		}
		product, err := a.productRepo.GetByID(ctx, productID)
		if err != nil || product == nil {
			a.fail(err, "leer producto", productID, branchID)
			continue
		}
		alert := entity.LowStockAlert{
			ProductID:    productID,
			ProductName:  product.Name,
			CurrentStock: stock.CurrentQuantity,
			MinStock:     stock.MinimumQuantity,
			BranchID:     branchID,
		}
		if err := a.sink.NotifyLowStock(ctx, alert); err != nil {
			a.fail(err, "notificar stock bajo", productID, branchID)
			continue
		}
		sent++
	}
	return sent
}

func (a *StockAlerter) fail(err error, step, productID, branchID string) {
	a.metrics.IncNotificationFailure("low_stock")
	a.log.Warn().Err(err).
		Str("step", step).
		Str("product_id", productID).
		Str("branch_id", branchID).
		Msg("aviso de stock bajo descartado")
}

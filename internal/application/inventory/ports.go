package inventory

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción (Commit si nil, Rollback si error).
// Los repositorios recibidos están atados a esa transacción.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}

package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// StockFilter filtros del listado de stock. BranchID vacío = todas las sucursales.
type StockFilter struct {
	BranchID string
	Search   string // nombre o SKU, sin distinguir mayúsculas
	Limit    int
	Offset   int
}

// StockRepository es el Quantity Store: única fuente de verdad de la existencia por (producto, sucursal).
// Se usa con pool o dentro de una transacción.
type StockRepository interface {
	// ApplyDelta suma delta a la cantidad actual en una sola sentencia atómica y devuelve
	// los valores antes/después observados por esa misma escritura. Crea la fila si no existe.
	// Con allowNegative=false devuelve domain.ErrInsufficientStock si el resultado queda < 0.
	ApplyDelta(ctx context.Context, productID, branchID string, delta decimal.Decimal, allowNegative bool) (entity.StockDelta, error)
	// Get devuelve nil, nil si la fila no existe.
	Get(ctx context.Context, productID, branchID string) (*entity.StockRecord, error)
	// GetForUpdate bloquea la fila; domain.ErrStockNotFound si no existe.
	GetForUpdate(ctx context.Context, productID, branchID string) (*entity.StockRecord, error)
	ListByBranch(ctx context.Context, f StockFilter) ([]*entity.StockView, int, error)
	// ListAtOrBelowMinimum filas con current <= minimum (reposición).
	ListAtOrBelowMinimum(ctx context.Context, branchID string) ([]*entity.StockView, error)
}

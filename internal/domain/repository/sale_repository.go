package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// SaleFilter filtros de listado de ventas.
type SaleFilter struct {
	BranchID string
	Status   entity.SaleStatus
	From, To *time.Time
	Limit    int
}

// SaleRepository persistencia de ventas y sus líneas.
type SaleRepository interface {
	// NextSaleNumber toma el siguiente valor de la secuencia y lo formatea.
	NextSaleNumber(ctx context.Context) (string, error)
	// Create inserta la venta con todos sus ítems en orden.
	Create(ctx context.Context, sale *entity.Sale) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	List(ctx context.Context, f SaleFilter) ([]*entity.Sale, error)
	// ReturnedQuantities unidades ya devueltas por producto en ventas derivadas de originalSaleID.
	ReturnedQuantities(ctx context.Context, originalSaleID string) (map[string]decimal.Decimal, error)
	// LatestItems líneas de la venta más reciente de la sucursal.
	LatestItems(ctx context.Context, branchID string, limit int) ([]entity.SaleItem, error)
}

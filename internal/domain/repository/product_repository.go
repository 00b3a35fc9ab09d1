package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetByIDs devuelve sólo los encontrados; el llamador detecta los faltantes.
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Product, error)
	UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error
}

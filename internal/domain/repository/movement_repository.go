package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// MovementFilter filtros del ledger. Los campos vacíos no filtran.
// BeforeCreatedAt/BeforeID implementan la paginación por cursor (created_at desc, id desc).
type MovementFilter struct {
	BranchID        string
	ProductID       string
	From, To        *time.Time
	BeforeCreatedAt *time.Time
	BeforeID        string
	Limit           int
}

// MovementRepository es el Movement Ledger: sólo inserta, nunca actualiza ni borra.
type MovementRepository interface {
	Append(ctx context.Context, m *entity.MovementRecord) error
	List(ctx context.Context, f MovementFilter) ([]*entity.MovementView, error)
	// SoldSince suma las unidades vendidas (SALE) por producto desde since.
	SoldSince(ctx context.Context, branchID string, since time.Time) (map[string]decimal.Decimal, error)
}

package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/metrics"
)

// MovementSpec describe un cambio de stock y el movimiento que lo acompaña.
type MovementSpec struct {
	ProductID     string
	BranchID      string
	Delta         decimal.Decimal
	AllowNegative bool
	Type          entity.MovementType
	Ref           entity.Reference
	Notes         string
	CreatedBy     string
}

// Recorder aplica un delta con la escritura atómica del Quantity Store y agrega al ledger
// el movimiento con los valores previo/nuevo devueltos por esa misma escritura.
// Es el único camino de mutación de stock; siempre corre con los repos de una transacción.
type Recorder struct {
	metrics *metrics.LedgerMetrics
}

// NewRecorder construye el recorder. m puede ser nil.
func NewRecorder(m *metrics.LedgerMetrics) *Recorder {
	return &Recorder{metrics: m}
}

// RecordInTx ejecuta ApplyDelta + Append usando los repos del caller (misma transacción).
// Si retorna error el caller debe propagarlo para que se haga rollback.
func (r *Recorder) RecordInTx(
	ctx context.Context,
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
	spec MovementSpec,
) (*entity.MovementRecord, error) {
	if spec.Delta.IsZero() {
		return nil, fmt.Errorf("%w: delta cero", domain.ErrInvalidQuantity)
	}
	if err := entity.ValidReference(spec.Type, spec.Ref.Type); err != nil {
		return nil, err
	}

	d, err := stockRepo.ApplyDelta(ctx, spec.ProductID, spec.BranchID, spec.Delta, spec.AllowNegative)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return nil, fmt.Errorf("%w: producto %s en sucursal %s", err, spec.ProductID, spec.BranchID)
		}
		return nil, fmt.Errorf("apply delta: %w", err)
	}

	mov := entity.NewMovement(spec.ProductID, spec.BranchID, spec.Type, d, spec.Ref, spec.Notes, spec.CreatedBy)
	if err := mov.Validate(); err != nil {
		return nil, err
	}
	if err := movRepo.Append(ctx, mov); err != nil {
		return nil, fmt.Errorf("append movement: %w", err)
	}
	if d.NewQty.IsNegative() && spec.Delta.IsNegative() {
		r.metrics.IncOversell(string(spec.Type))
	}
	return mov, nil
}

package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/metrics"
)

// StockUseCase operaciones directas sobre el stock de una sucursal: compra, ajuste, baja y traslado.
// Ajuste y baja nunca dejan la existencia en negativo; la compra siempre suma.
type StockUseCase struct {
	txRunner    TxRunner
	recorder    *Recorder
	alerter     *StockAlerter
	productRepo repository.ProductRepository
	branchRepo  repository.BranchRepository
	metrics     *metrics.LedgerMetrics
}

// NewStockUseCase construye el caso de uso. alerter y m pueden ser nil.
func NewStockUseCase(
	txRunner TxRunner,
	recorder *Recorder,
	alerter *StockAlerter,
	productRepo repository.ProductRepository,
	branchRepo repository.BranchRepository,
	m *metrics.LedgerMetrics,
) *StockUseCase {
	return &StockUseCase{
		txRunner:    txRunner,
		recorder:    recorder,
		alerter:     alerter,
		productRepo: productRepo,
		branchRepo:  branchRepo,
		metrics:     m,
	}
}

// CreateStock registra un ingreso por compra (PURCHASE). Crea la fila de stock si no existe.
// Con UnitCost recalcula el costo promedio ponderado del producto en la misma transacción.
func (uc *StockUseCase) CreateStock(ctx context.Context, userID string, in dto.CreateStockRequest) (out *dto.StockChangeResponse, err error) {
	defer func(start time.Time) { uc.metrics.ObserveOperation("purchase", start, err) }(time.Now())

	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: la cantidad debe ser mayor que 0", domain.ErrInvalidQuantity)
	}
	if err := entity.CheckQuantityScale(in.Quantity); err != nil {
		return nil, err
	}
	if in.UnitCost != nil {
		if in.UnitCost.IsNegative() {
			return nil, fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
		}
		if err := entity.CheckCostScale(*in.UnitCost); err != nil {
			return nil, err
		}
	}
	if err := uc.requireProductAndBranch(ctx, in.ProductID, in.BranchID); err != nil {
		return nil, err
	}

	err = uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		productRepo repository.ProductRepository,
	) error {
		mov, err := uc.recorder.RecordInTx(ctx, stockRepo, movRepo, MovementSpec{
			ProductID:     in.ProductID,
			BranchID:      in.BranchID,
			Delta:         in.Quantity,
			AllowNegative: true,
			Type:          entity.MovementPurchase,
			Ref:           entity.Reference{Type: entity.RefPurchase, ID: in.ReferenceID},
			Notes:         in.Notes,
			CreatedBy:     userID,
		})
		if err != nil {
			return err
		}
		if in.UnitCost != nil {
			product, err := productRepo.GetByID(ctx, in.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return fmt.Errorf("%w: producto %s", domain.ErrNotFound, in.ProductID)
			}
			cost := inventory.WeightedAverageCost(mov.PreviousQty, product.Cost, in.Quantity, *in.UnitCost)
			if err := productRepo.UpdateCost(ctx, in.ProductID, cost); err != nil {
				return err
			}
		}
		out = toStockChange(mov)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AdjustStock aplica una corrección con signo. Positiva = ADJUSTMENT, negativa = DAMAGE.
// Rechaza con ErrInsufficientStock si el resultado quedaría bajo cero.
func (uc *StockUseCase) AdjustStock(ctx context.Context, userID string, in dto.AdjustStockRequest) (out *dto.StockChangeResponse, err error) {
	defer func(start time.Time) { uc.metrics.ObserveOperation("adjust", start, err) }(time.Now())

	if in.QuantityChange.IsZero() {
		return nil, fmt.Errorf("%w: el ajuste no puede ser cero", domain.ErrInvalidQuantity)
	}
	if err := entity.CheckQuantityScale(in.QuantityChange); err != nil {
		return nil, err
	}
	typ := entity.MovementAdjustment
	if in.QuantityChange.IsNegative() {
		typ = entity.MovementDamage
	}
	return uc.applyGuarded(ctx, in.ProductID, in.BranchID, MovementSpec{
		ProductID: in.ProductID,
		BranchID:  in.BranchID,
		Delta:     in.QuantityChange,
		Type:      typ,
		Ref:       entity.Reference{Type: entity.RefAdjustment},
		Notes:     in.Reason,
		CreatedBy: userID,
	})
}

// RemoveStock da de baja mercancía (pérdida, daño). Siempre resta y nunca deja stock negativo.
func (uc *StockUseCase) RemoveStock(ctx context.Context, userID string, in dto.RemoveStockRequest) (out *dto.StockChangeResponse, err error) {
	defer func(start time.Time) { uc.metrics.ObserveOperation("remove", start, err) }(time.Now())

	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: la cantidad debe ser mayor que 0", domain.ErrInvalidQuantity)
	}
	if err := entity.CheckQuantityScale(in.Quantity); err != nil {
		return nil, err
	}
	notes := in.Reason
	if notes == "" {
		notes = "Stock removed"
	}
	return uc.applyGuarded(ctx, in.ProductID, in.BranchID, MovementSpec{
		ProductID: in.ProductID,
		BranchID:  in.BranchID,
		Delta:     in.Quantity.Neg(),
		Type:      entity.MovementDamage,
		Ref:       entity.Reference{Type: entity.RefRemoval},
		Notes:     notes,
		CreatedBy: userID,
	})
}

// applyGuarded una escritura con allowNegative=false y revisión de stock bajo después del commit.
func (uc *StockUseCase) applyGuarded(ctx context.Context, productID, branchID string, spec MovementSpec) (*dto.StockChangeResponse, error) {
	if err := uc.requireProductAndBranch(ctx, productID, branchID); err != nil {
		return nil, err
	}
	spec.AllowNegative = false

	var out *dto.StockChangeResponse
	err := uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		_ repository.ProductRepository,
	) error {
		mov, err := uc.recorder.RecordInTx(ctx, stockRepo, movRepo, spec)
		if err != nil {
			return err
		}
		out = toStockChange(mov)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.alerter.CheckLowStock(ctx, branchID, []string{productID})
	return out, nil
}

// requireProductAndBranch validación de solo lectura, fuera de la transacción.
func (uc *StockUseCase) requireProductAndBranch(ctx context.Context, productID, branchID string) error {
	if productID == "" || branchID == "" {
		return fmt.Errorf("%w: producto y sucursal son obligatorios", domain.ErrInvalidInput)
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	branch, err := uc.branchRepo.GetByID(ctx, branchID)
	if err != nil {
		return err
	}
	if branch == nil {
		return fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, branchID)
	}
	return nil
}

func toStockChange(m *entity.MovementRecord) *dto.StockChangeResponse {
	return &dto.StockChangeResponse{
		ProductID:   m.ProductID,
		BranchID:    m.BranchID,
		MovementID:  m.ID,
		PreviousQty: m.PreviousQty,
		NewQty:      m.NewQty,
	}
}

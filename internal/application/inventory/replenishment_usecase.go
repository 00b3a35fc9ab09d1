package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// ReplenishmentUseCase genera la lista de reposición para una sucursal.
// Combina stock en o bajo el mínimo con las ventas de los últimos 90 días para priorizar.
type ReplenishmentUseCase struct {
	stockRepo    repository.StockRepository
	movementRepo repository.MovementRepository
	now          func() time.Time
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(
	stockRepo repository.StockRepository,
	movementRepo repository.MovementRepository,
) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		now:          time.Now,
	}
}

// GenerateReplenishmentList devuelve los productos con current <= minimum, la cantidad
// sugerida para volver al máximo y un ranking de prioridad por volumen de ventas.
// branchID vacío considera todas las sucursales.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(
	ctx context.Context,
	branchID string,
) ([]dto.ReplenishmentSuggestionDTO, error) {

	// 1. Filas en o bajo el mínimo
	rows, err := uc.stockRepo.ListAtOrBelowMinimum(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	// 2. Unidades vendidas por producto (últimos 90 días). Sin historial se ordena sólo por déficit.
	since := uc.now().AddDate(0, 0, -90)
	sold, err := uc.movementRepo.SoldSince(ctx, branchID, since)
	if err != nil {
		return nil, err
	}

	// 3. Construir los DTOs
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(rows))
	for _, row := range rows {
		suggestedQty := row.MaximumQuantity.Sub(row.CurrentQuantity)
		if suggestedQty.IsNegative() {
			suggestedQty = decimal.Zero
		}
		unitsSold, ok := sold[row.ProductID]
		if !ok {
			unitsSold = decimal.Zero
		}
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:           row.ProductID,
			SKU:                 row.ProductSKU,
			ProductName:         row.ProductName,
			CurrentStock:        row.CurrentQuantity,
			MinimumQuantity:     row.MinimumQuantity,
			MaximumQuantity:     row.MaximumQuantity,
			SuggestedOrderQty:   suggestedQty,
			UnitCost:            row.ProductCost,
			EstimatedOrderCost:  suggestedQty.Mul(row.ProductCost),
			UnitsSoldLast90Days: unitsSold,
		})
	}

	// 4. Ordenar: mayor volumen de ventas, luego mayor déficit bajo el mínimo
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if !a.UnitsSoldLast90Days.Equal(b.UnitsSoldLast90Days) {
			return a.UnitsSoldLast90Days.GreaterThan(b.UnitsSoldLast90Days)
		}
		defA := a.MinimumQuantity.Sub(a.CurrentStock)
		defB := b.MinimumQuantity.Sub(b.CurrentStock)
		return defA.GreaterThan(defB)
	})

	// 5. Asignar prioridad (1 = más urgente)
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}

	return suggestions, nil
}

package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// recentItemsLimit líneas devueltas por GetRecentSaleItems.
const recentItemsLimit = 5

// QueryUseCase consultas de ventas.
type QueryUseCase struct {
	saleRepo repository.SaleRepository
	now      func() time.Time
}

// NewQueryUseCase construye el caso de uso de consultas de ventas.
func NewQueryUseCase(saleRepo repository.SaleRepository) *QueryUseCase {
	return &QueryUseCase{saleRepo: saleRepo, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *QueryUseCase) WithClock(now func() time.Time) *QueryUseCase {
	uc.now = now
	return uc
}

// GetSales ventas de la sucursal, más recientes primero.
func (uc *QueryUseCase) GetSales(ctx context.Context, branchID string) ([]*dto.SaleResponse, error) {
	return uc.list(ctx, repository.SaleFilter{BranchID: branchID})
}

// GetSalesForReturns ventas COMPLETED candidatas a devolución.
func (uc *QueryUseCase) GetSalesForReturns(ctx context.Context, branchID string) ([]*dto.SaleResponse, error) {
	return uc.list(ctx, repository.SaleFilter{BranchID: branchID, Status: entity.SaleCompleted})
}

// GetTodaySales ventas de [medianoche local, +24h).
func (uc *QueryUseCase) GetTodaySales(ctx context.Context, branchID string) ([]*dto.SaleResponse, error) {
	now := uc.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.Add(24 * time.Hour)
	return uc.list(ctx, repository.SaleFilter{BranchID: branchID, From: &from, To: &to})
}

// GetSaleByID venta con sus líneas; ErrNotFound si no existe.
func (uc *QueryUseCase) GetSaleByID(ctx context.Context, id string) (*dto.SaleResponse, error) {
	sale, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, fmt.Errorf("%w: venta %s", domain.ErrNotFound, id)
	}
	return ToSaleResponse(sale), nil
}

// GetRecentSaleItems primeras líneas de la venta más reciente (accesos rápidos del POS).
func (uc *QueryUseCase) GetRecentSaleItems(ctx context.Context, branchID string) ([]dto.RecentItemResponse, error) {
	items, err := uc.saleRepo.LatestItems(ctx, branchID, recentItemsLimit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RecentItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.RecentItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
		})
	}
	return out, nil
}

func (uc *QueryUseCase) list(ctx context.Context, f repository.SaleFilter) ([]*dto.SaleResponse, error) {
	rows, err := uc.saleRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.SaleResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, ToSaleResponse(s))
	}
	return out, nil
}

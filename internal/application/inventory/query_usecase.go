package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/jwt"
	"github.com/jhoicas/pos-ledger/pkg/pagination"
)

// StockQuery parámetros de GetStockByBranch.
type StockQuery struct {
	BranchID     string // sucursal pedida (sólo administradores)
	UserBranchID string // sucursal del token
	Role         string
	Search       string
	dto.PageRequest
}

// MovementQuery parámetros de GetStockMovements.
type MovementQuery struct {
	BranchID     string
	UserBranchID string
	Role         string
	ProductID    string
	Cursor       string
	Limit        int
}

// QueryUseCase consultas de solo lectura sobre stock y ledger.
type QueryUseCase struct {
	stockRepo    repository.StockRepository
	movementRepo repository.MovementRepository
	now          func() time.Time
}

// NewQueryUseCase construye el caso de uso de consultas.
func NewQueryUseCase(stockRepo repository.StockRepository, movementRepo repository.MovementRepository) *QueryUseCase {
	return &QueryUseCase{stockRepo: stockRepo, movementRepo: movementRepo, now: time.Now}
}

// WithClock reemplaza el reloj usado para "hoy" (tests).
func (uc *QueryUseCase) WithClock(now func() time.Time) *QueryUseCase {
	uc.now = now
	return uc
}

// ScopeBranch sucursal efectiva de una consulta. ADMIN y SUPER_ADMIN consultan la pedida
// (vacía = todas); el resto queda limitado a la del token.
func ScopeBranch(role, requested, own string) string {
	if jwt.IsAdminRole(role) {
		return requested
	}
	return own
}

// GetStockByBranch página de stock ordenada por last_updated desc.
func (uc *QueryUseCase) GetStockByBranch(ctx context.Context, q StockQuery) (*dto.StockListResponse, error) {
	q.DefaultPage()
	rows, total, err := uc.stockRepo.ListByBranch(ctx, repository.StockFilter{
		BranchID: ScopeBranch(q.Role, q.BranchID, q.UserBranchID),
		Search:   strings.TrimSpace(q.Search),
		Limit:    q.Limit,
		Offset:   q.Offset(),
	})
	if err != nil {
		return nil, err
	}
	out := &dto.StockListResponse{
		Data: make([]dto.StockResponse, 0, len(rows)),
		Meta: dto.PageMeta{
			Total:      total,
			Page:       q.Page,
			Limit:      q.Limit,
			TotalPages: pagination.TotalPages(total, q.Limit),
		},
	}
	for _, r := range rows {
		out.Data = append(out.Data, toStockResponse(r))
	}
	return out, nil
}

// GetStockMovements movimientos por created_at desc con paginación por cursor.
func (uc *QueryUseCase) GetStockMovements(ctx context.Context, q MovementQuery) (*dto.MovementListResponse, error) {
	cursor, err := pagination.ParseCursor(q.Cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	limit := pagination.NormalizeLimit(q.Limit)
	f := repository.MovementFilter{
		BranchID:  ScopeBranch(q.Role, q.BranchID, q.UserBranchID),
		ProductID: q.ProductID,
		Limit:     pagination.LimitWithBuffer(limit),
	}
	if cursor != nil {
		f.BeforeCreatedAt = &cursor.CreatedAt
		f.BeforeID = cursor.ID.String()
	}
	rows, err := uc.movementRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	out := &dto.MovementListResponse{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		if id, err := uuid.Parse(last.ID); err == nil {
			out.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: id})
		}
	}
	out.Data = toMovementResponses(rows)
	return out, nil
}

// GetTodayStockMovements movimientos de [medianoche local, +24h). branchID ya viene acotada con ScopeBranch.
func (uc *QueryUseCase) GetTodayStockMovements(ctx context.Context, branchID string) ([]dto.MovementResponse, error) {
	now := uc.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.Add(24 * time.Hour)
	rows, err := uc.movementRepo.List(ctx, repository.MovementFilter{
		BranchID: branchID,
		From:     &from,
		To:       &to,
	})
	if err != nil {
		return nil, err
	}
	return toMovementResponses(rows), nil
}

func toStockResponse(r *entity.StockView) dto.StockResponse {
	return dto.StockResponse{
		ProductID:        r.ProductID,
		ProductName:      r.ProductName,
		SKU:              r.ProductSKU,
		BranchID:         r.BranchID,
		BranchName:       r.BranchName,
		CurrentQuantity:  r.CurrentQuantity,
		MinimumQuantity:  r.MinimumQuantity,
		MaximumQuantity:  r.MaximumQuantity,
		ReservedQuantity: r.ReservedQuantity,
		LastUpdated:      r.LastUpdated,
	}
}

func toMovementResponses(rows []*entity.MovementView) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, dto.MovementResponse{
			ID:             m.ID,
			ProductID:      m.ProductID,
			ProductName:    m.ProductName,
			BranchID:       m.BranchID,
			BranchName:     m.BranchName,
			MovementType:   string(m.Type),
			QuantityChange: m.QuantityChange,
			PreviousQty:    m.PreviousQty,
			NewQty:         m.NewQty,
			ReferenceID:    m.ReferenceID,
			ReferenceType:  string(m.ReferenceType),
			Notes:          m.Notes,
			CreatedBy:      m.CreatedBy,
			CreatedAt:      m.CreatedAt,
		})
	}
	return out
}

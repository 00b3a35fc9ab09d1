package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepository)(nil)

// StockRepository Quantity Store en memoria.
type StockRepository struct{ base }

// NewStockRepository repo fuera de transacción.
func NewStockRepository(s *Store) *StockRepository {
	return &StockRepository{base{s: s}}
}

// ApplyDelta suma delta bajo el mutex del store; los valores devueltos son los de esta escritura.
// Sin allowNegative rechaza cualquier resultado negativo, también con delta positivo.
func (r *StockRepository) ApplyDelta(ctx context.Context, productID, branchID string, delta decimal.Decimal, allowNegative bool) (entity.StockDelta, error) {
	var (
		out entity.StockDelta
		err error
	)
	r.with(func(st *state) {
		key := stockKey{productID, branchID}
		rec, ok := st.stock[key]
		if !ok {
			rec = entity.StockRecord{
				ProductID:        productID,
				BranchID:         branchID,
				CurrentQuantity:  decimal.Zero,
				MinimumQuantity:  entity.DefaultMinimumQuantity,
				MaximumQuantity:  entity.DefaultMaximumQuantity,
				ReservedQuantity: entity.DefaultReservedQuantity,
			}
		}
		next := rec.CurrentQuantity.Add(delta)
		if !allowNegative && (next.IsNegative() || (!ok && delta.IsNegative())) {
			err = domain.ErrInsufficientStock
			return
		}
		out = entity.StockDelta{PreviousQty: rec.CurrentQuantity, NewQty: next}
		rec.CurrentQuantity = next
		rec.LastUpdated = r.s.clock()
		st.stock[key] = rec
	})
	return out, err
}

// Get devuelve nil, nil si no existe.
func (r *StockRepository) Get(ctx context.Context, productID, branchID string) (*entity.StockRecord, error) {
	var out *entity.StockRecord
	r.with(func(st *state) {
		if rec, ok := st.stock[stockKey{productID, branchID}]; ok {
			out = &rec
		}
	})
	return out, nil
}

// GetForUpdate igual que Get; la exclusión la da el mutex de la tx.
func (r *StockRepository) GetForUpdate(ctx context.Context, productID, branchID string) (*entity.StockRecord, error) {
	rec, _ := r.Get(ctx, productID, branchID)
	if rec == nil {
		return nil, domain.ErrStockNotFound
	}
	return rec, nil
}

// ListByBranch filtra, ordena por last_updated desc y pagina.
func (r *StockRepository) ListByBranch(ctx context.Context, f repository.StockFilter) ([]*entity.StockView, int, error) {
	var rows []*entity.StockView
	search := strings.ToLower(strings.TrimSpace(f.Search))
	r.with(func(st *state) {
		for _, rec := range st.stock {
			if f.BranchID != "" && rec.BranchID != f.BranchID {
				continue
			}
			v := view(st, rec)
			if search != "" &&
				!strings.Contains(strings.ToLower(v.ProductName), search) &&
				!strings.Contains(strings.ToLower(v.ProductSKU), search) {
				continue
			}
			rows = append(rows, v)
		}
	})
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].LastUpdated.Equal(rows[j].LastUpdated) {
			return rows[i].LastUpdated.After(rows[j].LastUpdated)
		}
		return rows[i].ProductID < rows[j].ProductID
	})
	total := len(rows)
	if f.Offset >= total {
		return []*entity.StockView{}, total, nil
	}
	rows = rows[f.Offset:]
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	return rows, total, nil
}

// ListAtOrBelowMinimum filas con current <= minimum.
func (r *StockRepository) ListAtOrBelowMinimum(ctx context.Context, branchID string) ([]*entity.StockView, error) {
	var rows []*entity.StockView
	r.with(func(st *state) {
		for _, rec := range st.stock {
			if branchID != "" && rec.BranchID != branchID {
				continue
			}
			if rec.CurrentQuantity.LessThanOrEqual(rec.MinimumQuantity) {
				rows = append(rows, view(st, rec))
			}
		}
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].ProductID < rows[j].ProductID })
	return rows, nil
}

func view(st *state, rec entity.StockRecord) *entity.StockView {
	p := st.products[rec.ProductID]
	return &entity.StockView{
		StockRecord: rec,
		ProductName: p.Name,
		ProductSKU:  p.SKU,
		ProductCost: p.Cost,
		BranchName:  st.branches[rec.BranchID].Name,
	}
}

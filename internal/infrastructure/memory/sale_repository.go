package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepository)(nil)

// SaleRepository ventas en memoria.
type SaleRepository struct{ base }

// NewSaleRepository repo fuera de transacción.
func NewSaleRepository(s *Store) *SaleRepository {
	return &SaleRepository{base{s: s}}
}

// NextSaleNumber equivalente a nextval de sale_number_seq.
func (r *SaleRepository) NextSaleNumber(ctx context.Context) (string, error) {
	var seq int64
	r.with(func(st *state) {
		st.saleSeq++
		seq = st.saleSeq
	})
	return entity.FormatSaleNumber(seq), nil
}

// Create guarda la venta; ErrDuplicate si el id o el número ya existen.
func (r *SaleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	var err error
	r.with(func(st *state) {
		if _, ok := st.sales[sale.ID]; ok {
			err = fmt.Errorf("%w: venta %s", domain.ErrDuplicate, sale.ID)
			return
		}
		for _, s := range st.sales {
			if s.SaleNumber == sale.SaleNumber {
				err = fmt.Errorf("%w: número %s", domain.ErrDuplicate, sale.SaleNumber)
				return
			}
		}
		c := *sale
		c.Items = append([]entity.SaleItem(nil), sale.Items...)
		st.sales[c.ID] = c
		st.saleOrder = append(st.saleOrder, c.ID)
	})
	return err
}

// GetByID devuelve nil, nil si no existe.
func (r *SaleRepository) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	r.with(func(st *state) {
		if s, ok := st.sales[id]; ok {
			out = withNames(st, s)
		}
	})
	return out, nil
}

// List ventas por sale_date desc.
func (r *SaleRepository) List(ctx context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	var rows []*entity.Sale
	r.with(func(st *state) {
		for i := len(st.saleOrder) - 1; i >= 0; i-- {
			s := st.sales[st.saleOrder[i]]
			if f.BranchID != "" && s.BranchID != f.BranchID {
				continue
			}
			if f.Status != "" && s.Status != f.Status {
				continue
			}
			if f.From != nil && s.SaleDate.Before(*f.From) {
				continue
			}
			if f.To != nil && !s.SaleDate.Before(*f.To) {
				continue
			}
			rows = append(rows, withNames(st, s))
		}
	})
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].SaleDate.After(rows[j].SaleDate) })
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	return rows, nil
}

// ReturnedQuantities suma de líneas RETURN de las ventas derivadas de originalSaleID.
func (r *SaleRepository) ReturnedQuantities(ctx context.Context, originalSaleID string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	r.with(func(st *state) {
		for _, s := range st.sales {
			if s.OriginalSaleID != originalSaleID {
				continue
			}
			for _, it := range s.Items {
				if it.ItemType == entity.ItemReturn {
					out[it.ProductID] = out[it.ProductID].Add(it.Quantity.Abs())
				}
			}
		}
	})
	return out, nil
}

// LatestItems primeras limit líneas de la venta más reciente de la sucursal.
func (r *SaleRepository) LatestItems(ctx context.Context, branchID string, limit int) ([]entity.SaleItem, error) {
	var items []entity.SaleItem
	r.with(func(st *state) {
		for i := len(st.saleOrder) - 1; i >= 0; i-- {
			s := st.sales[st.saleOrder[i]]
			if branchID != "" && s.BranchID != branchID {
				continue
			}
			items = withNames(st, s).Items
			break
		}
	})
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func withNames(st *state, s entity.Sale) *entity.Sale {
	s.Items = append([]entity.SaleItem(nil), s.Items...)
	for i := range s.Items {
		s.Items[i].ProductName = st.products[s.Items[i].ProductID].Name
	}
	return &s
}

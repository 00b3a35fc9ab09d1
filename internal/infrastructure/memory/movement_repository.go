package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepository)(nil)

// MovementRepository ledger en memoria (solo inserción).
type MovementRepository struct{ base }

// NewMovementRepository repo fuera de transacción.
func NewMovementRepository(s *Store) *MovementRepository {
	return &MovementRepository{base{s: s}}
}

// Append asigna id y created_at y agrega el movimiento.
func (r *MovementRepository) Append(ctx context.Context, m *entity.MovementRecord) error {
	r.with(func(st *state) {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		m.CreatedAt = r.s.clock()
		st.movements = append(st.movements, *m)
	})
	return nil
}

// List movimientos por created_at desc, id desc.
func (r *MovementRepository) List(ctx context.Context, f repository.MovementFilter) ([]*entity.MovementView, error) {
	var rows []*entity.MovementView
	r.with(func(st *state) {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if f.BranchID != "" && m.BranchID != f.BranchID {
				continue
			}
			if f.ProductID != "" && m.ProductID != f.ProductID {
				continue
			}
			if f.From != nil && m.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && !m.CreatedAt.Before(*f.To) {
				continue
			}
			if f.BeforeCreatedAt != nil && !before(m, *f.BeforeCreatedAt, f.BeforeID) {
				continue
			}
			p := st.products[m.ProductID]
			rows = append(rows, &entity.MovementView{
				MovementRecord: m,
				ProductName:    p.Name,
				ProductSKU:     p.SKU,
				BranchName:     st.branches[m.BranchID].Name,
			})
		}
	})
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID > rows[j].ID
	})
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	return rows, nil
}

// before (created_at, id) < (t, id) en orden descendente del cursor.
func before(m entity.MovementRecord, t time.Time, id string) bool {
	if m.CreatedAt.Before(t) {
		return true
	}
	return m.CreatedAt.Equal(t) && m.ID < id
}

// SoldSince unidades SALE por producto desde since.
func (r *MovementRepository) SoldSince(ctx context.Context, branchID string, since time.Time) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	r.with(func(st *state) {
		for _, m := range st.movements {
			if m.Type != entity.MovementSale || m.CreatedAt.Before(since) {
				continue
			}
			if branchID != "" && m.BranchID != branchID {
				continue
			}
			out[m.ProductID] = out[m.ProductID].Add(m.QuantityChange.Neg())
		}
	})
	return out, nil
}

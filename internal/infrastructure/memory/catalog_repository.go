package memory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var (
	_ repository.ProductRepository  = (*ProductRepository)(nil)
	_ repository.BranchRepository   = (*BranchRepository)(nil)
	_ repository.CustomerRepository = (*CustomerRepository)(nil)
)

// ProductRepository productos en memoria.
type ProductRepository struct{ base }

// NewProductRepository repo fuera de transacción.
func NewProductRepository(s *Store) *ProductRepository {
	return &ProductRepository{base{s: s}}
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	r.with(func(st *state) {
		if p, ok := st.products[id]; ok {
			out = &p
		}
	})
	return out, nil
}

func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.Product, error) {
	var out []*entity.Product
	seen := make(map[string]bool, len(ids))
	r.with(func(st *state) {
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if p, ok := st.products[id]; ok {
				out = append(out, &p)
			}
		}
	})
	return out, nil
}

func (r *ProductRepository) UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	var err error
	r.with(func(st *state) {
		p, ok := st.products[productID]
		if !ok {
			err = fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
			return
		}
		p.Cost = cost
		p.UpdatedAt = r.s.clock()
		st.products[productID] = p
	})
	return err
}

// BranchRepository sucursales en memoria.
type BranchRepository struct{ base }

// NewBranchRepository repo fuera de transacción.
func NewBranchRepository(s *Store) *BranchRepository {
	return &BranchRepository{base{s: s}}
}

func (r *BranchRepository) GetByID(ctx context.Context, id string) (*entity.Branch, error) {
	var out *entity.Branch
	r.with(func(st *state) {
		if b, ok := st.branches[id]; ok {
			out = &b
		}
	})
	return out, nil
}

// CustomerRepository clientes en memoria.
type CustomerRepository struct{ base }

// NewCustomerRepository repo fuera de transacción.
func NewCustomerRepository(s *Store) *CustomerRepository {
	return &CustomerRepository{base{s: s}}
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	var out *entity.Customer
	r.with(func(st *state) {
		if c, ok := st.customers[id]; ok {
			out = &c
		}
	})
	return out, nil
}

package memory

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/sales"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)
var _ sales.SalesTxRunner = (*TxRunner)(nil)

// TxRunner transacciones serializables sobre el Store.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn con repos atados a la tx; si fn falla el estado vuelve al de antes.
func (r *TxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.run(ctx, func(b base) error {
		return fn(&StockRepository{b}, &MovementRepository{b}, &ProductRepository{b})
	})
}

// RunSales igual que Run con el repo de ventas.
func (r *TxRunner) RunSales(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
	saleRepo repository.SaleRepository,
) error) error {
	return r.run(ctx, func(b base) error {
		return fn(&StockRepository{b}, &MovementRepository{b}, &SaleRepository{b})
	})
}

func (r *TxRunner) run(ctx context.Context, fn func(b base) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snapshot := r.store.st.clone()
	if err := fn(base{s: r.store, tx: true}); err != nil {
		r.store.st = snapshot
		return err
	}
	return nil
}

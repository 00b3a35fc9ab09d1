package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestApplyDelta(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewStockRepository(store)
	ctx := context.Background()

	_, err := repo.ApplyDelta(ctx, "p", "b", d("-1"), false)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "fila inexistente con delta negativo")

	got, err := repo.ApplyDelta(ctx, "p", "b", d("3"), false)
	require.NoError(t, err)
	assert.True(t, got.PreviousQty.IsZero())
	assert.True(t, d("3").Equal(got.NewQty))

	rec, err := repo.Get(ctx, "p", "b")
	require.NoError(t, err)
	assert.True(t, entity.DefaultMaximumQuantity.Equal(rec.MaximumQuantity), "valores por defecto al crear")

	_, err = repo.ApplyDelta(ctx, "p", "b", d("-4"), false)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err = repo.ApplyDelta(ctx, "p", "b", d("-4"), true)
	require.NoError(t, err)
	assert.True(t, d("-1").Equal(got.NewQty))

	got, err = repo.ApplyDelta(ctx, "p", "b", d("2"), false)
	require.NoError(t, err, "sumar a una existencia negativa siempre se permite")
	assert.True(t, d("1").Equal(got.NewQty))
}

func TestApplyDelta_PositivoNoSacaDeNegativo(t *testing.T) {
	store := memory.NewStore()
	store.SetStock(entity.StockRecord{ProductID: "p", BranchID: "b", CurrentQuantity: d("-5")})
	repo := memory.NewStockRepository(store)
	ctx := context.Background()

	_, err := repo.ApplyDelta(ctx, "p", "b", d("2"), false)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	q, _ := store.Quantity("p", "b")
	assert.True(t, d("-5").Equal(q))

	got, err := repo.ApplyDelta(ctx, "p", "b", d("2"), true)
	require.NoError(t, err)
	assert.True(t, d("-3").Equal(got.NewQty))

	got, err = repo.ApplyDelta(ctx, "p", "b", d("3"), false)
	require.NoError(t, err)
	assert.True(t, got.NewQty.IsZero())
}

func TestGetForUpdate_Inexistente(t *testing.T) {
	repo := memory.NewStockRepository(memory.NewStore())
	_, err := repo.GetForUpdate(context.Background(), "p", "b")
	assert.ErrorIs(t, err, domain.ErrStockNotFound)

	rec, err := repo.Get(context.Background(), "p", "b")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestTxRunner_RollbackRestauraTodo(t *testing.T) {
	store := memory.NewStore()
	store.SetStock(entity.StockRecord{ProductID: "p", BranchID: "b", CurrentQuantity: d("5")})
	runner := memory.NewTxRunner(store)
	boom := errors.New("boom")

	err := runner.RunSales(context.Background(), func(stockRepo repository.StockRepository, movRepo repository.MovementRepository, saleRepo repository.SaleRepository) error {
		if _, err := saleRepo.NextSaleNumber(context.Background()); err != nil {
			return err
		}
		if err := saleRepo.Create(context.Background(), &entity.Sale{ID: "s", SaleNumber: "SALE-000001"}); err != nil {
			return err
		}
		if _, err := stockRepo.ApplyDelta(context.Background(), "p", "b", d("-2"), true); err != nil {
			return err
		}
		if err := movRepo.Append(context.Background(), &entity.MovementRecord{ProductID: "p", BranchID: "b"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	q, _ := store.Quantity("p", "b")
	assert.True(t, d("5").Equal(q))
	assert.Empty(t, store.Movements())
	assert.Equal(t, 0, store.SaleCount())

	n, err := memory.NewSaleRepository(store).NextSaleNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SALE-000001", n, "la secuencia también vuelve atrás")
}

func TestTxRunner_ContextoCancelado(t *testing.T) {
	runner := memory.NewTxRunner(memory.NewStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := runner.Run(ctx, func(repository.StockRepository, repository.MovementRepository, repository.ProductRepository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestSaleRepository(t *testing.T) {
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: "p", Name: "Café"})
	repo := memory.NewSaleRepository(store)
	ctx := context.Background()

	orig := &entity.Sale{ID: "s1", SaleNumber: "SALE-000001", BranchID: "b", Status: entity.SaleCompleted, Items: []entity.SaleItem{
		{ID: "i1", Position: 1, ProductID: "p", Quantity: d("3"), ItemType: entity.ItemSale},
	}}
	require.NoError(t, repo.Create(ctx, orig))
	assert.ErrorIs(t, repo.Create(ctx, &entity.Sale{ID: "s1", SaleNumber: "SALE-000009"}), domain.ErrDuplicate)
	assert.ErrorIs(t, repo.Create(ctx, &entity.Sale{ID: "s9", SaleNumber: "SALE-000001"}), domain.ErrDuplicate)

	require.NoError(t, repo.Create(ctx, &entity.Sale{ID: "s2", SaleNumber: "SALE-000002", BranchID: "b", Status: entity.SaleRefunded, OriginalSaleID: "s1",
		Items: []entity.SaleItem{{ID: "i2", Position: 1, ProductID: "p", Quantity: d("-2"), ItemType: entity.ItemReturn}}}))

	returned, err := repo.ReturnedQuantities(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, d("2").Equal(returned["p"]))

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Café", got.Items[0].ProductName)

	completed, err := repo.List(ctx, repository.SaleFilter{BranchID: "b", Status: entity.SaleCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "s1", completed[0].ID)

	items, err := repo.LatestItems(ctx, "b", 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "i2", items[0].ID)
}

func TestProductRepository_UpdateCost(t *testing.T) {
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: "p", Cost: d("1")})
	repo := memory.NewProductRepository(store)

	require.NoError(t, repo.UpdateCost(context.Background(), "p", d("2.5")))
	p, err := repo.GetByID(context.Background(), "p")
	require.NoError(t, err)
	assert.True(t, d("2.5").Equal(p.Cost))

	assert.ErrorIs(t, repo.UpdateCost(context.Background(), "x", d("1")), domain.ErrNotFound)

	list, err := repo.GetByIDs(context.Background(), []string{"p", "x"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMovementRepository_CursorDescendente(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	store := memory.NewStore().WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	repo := memory.NewMovementRepository(store)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Append(ctx, &entity.MovementRecord{ProductID: "p", BranchID: "b", Type: entity.MovementSale}))
	}

	page, err := repo.List(ctx, repository.MovementFilter{BranchID: "b", Limit: 3})
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt))

	last := page[len(page)-1]
	rest, err := repo.List(ctx, repository.MovementFilter{BranchID: "b", BeforeCreatedAt: &last.CreatedAt, BeforeID: last.ID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.True(t, rest[0].CreatedAt.Before(last.CreatedAt))
}

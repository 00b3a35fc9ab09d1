package postgres_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-ledger/migrations"
	"github.com/jhoicas/pos-ledger/pkg/config"
	"github.com/jhoicas/pos-ledger/pkg/migrate"
)

// newTestPool levanta PostgreSQL en un contenedor y aplica las migraciones.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con PostgreSQL omitida en modo -short")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminar contenedor: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrate.Up(ctx, postgres.OpenDB(pool), migrations.FS))
	return pool
}

type seed struct {
	branchID  string
	productID string
}

func seedCatalog(t *testing.T, pool *pgxpool.Pool) seed {
	t.Helper()
	s := seed{branchID: uuid.NewString(), productID: uuid.NewString()}
	ctx := context.Background()
	_, err := pool.Exec(ctx, `INSERT INTO branches (id, name) VALUES ($1, 'Centro')`, s.branchID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO products (id, sku, name, price, cost) VALUES ($1, $2, 'Café', 12, 4)`,
		s.productID, "SKU-"+s.productID[:8])
	require.NoError(t, err)
	return s
}

func TestStockRepo_ApplyDelta(t *testing.T) {
	pool := newTestPool(t)
	s := seedCatalog(t, pool)
	repo := postgres.NewStockRepository(pool)
	ctx := context.Background()

	_, err := repo.ApplyDelta(ctx, s.productID, s.branchID, decimal.NewFromInt(-1), false)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := repo.ApplyDelta(ctx, s.productID, s.branchID, decimal.NewFromInt(5), false)
	require.NoError(t, err)
	assert.True(t, got.PreviousQty.IsZero())
	assert.True(t, decimal.NewFromInt(5).Equal(got.NewQty))

	rec, err := repo.Get(ctx, s.productID, s.branchID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, entity.DefaultMaximumQuantity.Equal(rec.MaximumQuantity))

	_, err = repo.ApplyDelta(ctx, s.productID, s.branchID, decimal.NewFromInt(-6), false)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err = repo.ApplyDelta(ctx, s.productID, s.branchID, decimal.NewFromInt(-6), true)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-1).Equal(got.NewQty))
}

func TestStockRepo_ApplyDelta_PositivoQueSigueNegativo(t *testing.T) {
	pool := newTestPool(t)
	s := seedCatalog(t, pool)
	repo := postgres.NewStockRepository(pool)
	ctx := context.Background()

	_, err := repo.ApplyDelta(ctx, s.productID, s.branchID, decimal.NewFromInt(-5), true)
	require.NoError(t, err)

	_, err = repo.ApplyDelta(ctx, s.productID, s.branchID, decimal.NewFromInt(2), false)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	rec, err := repo.Get(ctx, s.productID, s.branchID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-5).Equal(rec.CurrentQuantity))

	got, err := repo.ApplyDelta(ctx, s.productID, s.branchID, decimal.NewFromInt(5), false)
	require.NoError(t, err)
	assert.True(t, got.NewQty.IsZero())
}

func TestStockRepo_ApplyDelta_EscalaDeLaColumna(t *testing.T) {
	pool := newTestPool(t)
	s := seedCatalog(t, pool)
	ctx := context.Background()
	runner := postgres.NewTxRunner(pool)

	_, err := postgres.NewStockRepository(pool).ApplyDelta(ctx, s.productID, s.branchID, decimal.NewFromInt(1), true)
	require.NoError(t, err)

	var got entity.StockDelta
	err = runner.Run(ctx, func(stockRepo repository.StockRepository, movRepo repository.MovementRepository, _ repository.ProductRepository) error {
		delta, err := stockRepo.ApplyDelta(ctx, s.productID, s.branchID, decimal.RequireFromString("0.0005"), true)
		if err != nil {
			return err
		}
		got = delta
		return movRepo.Append(ctx, entity.NewMovement(s.productID, s.branchID, entity.MovementPurchase, delta,
			entity.Reference{Type: entity.RefPurchase}, "", "tester"))
	})
	require.NoError(t, err, "el movimiento respeta chk_movement_arithmetic")
	assert.True(t, decimal.RequireFromString("1").Equal(got.PreviousQty))
	assert.True(t, decimal.RequireFromString("1.001").Equal(got.NewQty))
}

func TestTxRunner_CadenaConcurrente(t *testing.T) {
	pool := newTestPool(t)
	s := seedCatalog(t, pool)
	runner := postgres.NewTxRunner(pool)
	ctx := context.Background()

	_, err := postgres.NewStockRepository(pool).ApplyDelta(ctx, s.productID, s.branchID, decimal.NewFromInt(30), true)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- runner.Run(ctx, func(stockRepo repository.StockRepository, movRepo repository.MovementRepository, _ repository.ProductRepository) error {
				d, err := stockRepo.ApplyDelta(ctx, s.productID, s.branchID, decimal.NewFromInt(-1), false)
				if err != nil {
					return err
				}
				m := entity.NewMovement(s.productID, s.branchID, entity.MovementDamage, d,
					entity.Reference{Type: entity.RefAdjustment}, "", "tester")
				return movRepo.Append(ctx, m)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rec, err := postgres.NewStockRepository(pool).Get(ctx, s.productID, s.branchID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(rec.CurrentQuantity))

	movs, err := postgres.NewMovementRepository(pool).List(ctx, repository.MovementFilter{BranchID: s.branchID, Limit: 100})
	require.NoError(t, err)
	require.Len(t, movs, n)
	sort.Slice(movs, func(i, j int) bool { return movs[i].PreviousQty.GreaterThan(movs[j].PreviousQty) })
	for i := 1; i < len(movs); i++ {
		assert.True(t, movs[i-1].NewQty.Equal(movs[i].PreviousQty), "cadena rota en %d", i)
	}
}

func TestTxRunner_RollbackDescartaEscrituras(t *testing.T) {
	pool := newTestPool(t)
	s := seedCatalog(t, pool)
	runner := postgres.NewTxRunner(pool)
	ctx := context.Background()

	err := runner.Run(ctx, func(stockRepo repository.StockRepository, movRepo repository.MovementRepository, _ repository.ProductRepository) error {
		d, err := stockRepo.ApplyDelta(ctx, s.productID, s.branchID, decimal.NewFromInt(3), true)
		if err != nil {
			return err
		}
		if err := movRepo.Append(ctx, entity.NewMovement(s.productID, s.branchID, entity.MovementPurchase, d,
			entity.Reference{Type: entity.RefPurchase}, "", "tester")); err != nil {
			return err
		}
		_, err = stockRepo.ApplyDelta(ctx, s.productID, s.branchID, decimal.NewFromInt(-10), false)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	rec, err := postgres.NewStockRepository(pool).Get(ctx, s.productID, s.branchID)
	require.NoError(t, err)
	assert.Nil(t, rec)
	movs, err := postgres.NewMovementRepository(pool).List(ctx, repository.MovementFilter{BranchID: s.branchID})
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestSaleRepo_SecuenciaYDevoluciones(t *testing.T) {
	pool := newTestPool(t)
	s := seedCatalog(t, pool)
	repo := postgres.NewSaleRepository(pool)
	ctx := context.Background()

	first, err := repo.NextSaleNumber(ctx)
	require.NoError(t, err)
	second, err := repo.NextSaleNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SALE-000001", first)
	assert.Equal(t, "SALE-000002", second)

	orig := &entity.Sale{
		ID: uuid.NewString(), SaleNumber: first, BranchID: s.branchID,
		Subtotal: decimal.NewFromInt(36), TotalAmount: decimal.NewFromInt(36),
		PaymentMethod: entity.PaymentCash, PaymentStatus: "PAID", Status: entity.SaleCompleted,
		CreatedBy: "tester", SaleDate: time.Now(),
		Items: []entity.SaleItem{{
			ID: uuid.NewString(), Position: 1, ProductID: s.productID, Quantity: decimal.NewFromInt(3),
			UnitPrice: decimal.NewFromInt(12), LineTotal: decimal.NewFromInt(36), ItemType: entity.ItemSale,
		}},
	}
	require.NoError(t, repo.Create(ctx, orig))

	dup := *orig
	dup.ID = uuid.NewString()
	dup.Items = nil
	assert.ErrorIs(t, repo.Create(ctx, &dup), domain.ErrDuplicate)

	ret := &entity.Sale{
		ID: uuid.NewString(), SaleNumber: second, BranchID: s.branchID,
		Subtotal: decimal.NewFromInt(-24), TotalAmount: decimal.NewFromInt(-24),
		PaymentMethod: entity.PaymentCash, PaymentStatus: "PAID", Status: entity.SaleRefunded,
		OriginalSaleID: orig.ID, CreatedBy: "tester", SaleDate: time.Now(),
		Items: []entity.SaleItem{{
			ID: uuid.NewString(), Position: 1, ProductID: s.productID, Quantity: decimal.NewFromInt(-2),
			UnitPrice: decimal.NewFromInt(12), LineTotal: decimal.NewFromInt(-24), ItemType: entity.ItemReturn,
			RefSaleItemID: orig.Items[0].ID,
		}},
	}
	require.NoError(t, repo.Create(ctx, ret))

	returned, err := repo.ReturnedQuantities(ctx, orig.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2).Equal(returned[s.productID]))

	got, err := repo.GetByID(ctx, orig.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Café", got.Items[0].ProductName)
	assert.Empty(t, got.CustomerID)
}

package sales_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/sales"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
)

const (
	branchA  = "b-centro"
	prodCafe = "p-cafe"
	prodTe   = "p-te"
	cliente  = "c-ana"
	user     = "u-1"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

// fakeSink registra avisos de devolución/cambio; failWith hace fallar cada envío.
type fakeSink struct {
	mu       sync.Mutex
	returns  []entity.ReturnProcessed
	exchange []entity.ExchangeProcessed
	failWith error
}

func (f *fakeSink) NotifyLowStock(context.Context, entity.LowStockAlert) error { return f.failWith }

func (f *fakeSink) NotifyReturnProcessed(_ context.Context, ev entity.ReturnProcessed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.returns = append(f.returns, ev)
	return f.failWith
}

func (f *fakeSink) NotifyExchangeProcessed(_ context.Context, ev entity.ExchangeProcessed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchange = append(f.exchange, ev)
	return f.failWith
}

// countingChecker cuenta las revisiones de stock bajo posteriores al commit.
type countingChecker struct {
	calls    int
	products []string
}

func (c *countingChecker) CheckLowStock(_ context.Context, _ string, productIDs []string) int {
	c.calls++
	c.products = append(c.products, productIDs...)
	return 0
}

type fixture struct {
	store   *memory.Store
	sink    *fakeSink
	checker *countingChecker
	uc      *sales.SaleUseCase
	query   *sales.QueryUseCase
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddBranch(entity.Branch{ID: branchA, Name: "Centro", IsActive: true})
	store.AddCustomer(entity.Customer{ID: cliente, Name: "Ana"})
	store.AddProduct(entity.Product{ID: prodCafe, SKU: "CAF-01", Name: "Café", Price: d("12")})
	store.AddProduct(entity.Product{ID: prodTe, SKU: "TE-01", Name: "Té", Price: d("8")})
	store.SetStock(entity.StockRecord{ProductID: prodCafe, BranchID: branchA, CurrentQuantity: d("10"), MaximumQuantity: d("100")})
	store.SetStock(entity.StockRecord{ProductID: prodTe, BranchID: branchA, CurrentQuantity: d("10"), MaximumQuantity: d("100")})

	sink := &fakeSink{}
	checker := &countingChecker{}
	saleRepo := memory.NewSaleRepository(store)
	uc := sales.NewSaleUseCase(memory.NewTxRunner(store), inventory.NewRecorder(nil), checker, sink,
		saleRepo, memory.NewProductRepository(store), memory.NewBranchRepository(store),
		memory.NewCustomerRepository(store), nil, nil)
	return fixture{store: store, sink: sink, checker: checker, uc: uc, query: sales.NewQueryUseCase(saleRepo)}
}

func (f fixture) qty(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	q, ok := f.store.Quantity(productID, branchA)
	require.True(t, ok)
	return q
}

func (f fixture) sell(t *testing.T, items ...dto.SaleItemRequest) *dto.SaleResponse {
	t.Helper()
	out, err := f.uc.CreateSale(context.Background(), user, dto.CreateSaleRequest{
		BranchID: branchA, CustomerID: cliente, PaymentMethod: "CASH", Items: items,
	})
	require.NoError(t, err)
	return out
}

func item(productID, qty, price string) dto.SaleItemRequest {
	return dto.SaleItemRequest{ProductID: productID, Quantity: d(qty), Price: d(price)}
}

// ─── Venta ──────────────────────────────────────────────────────────────────

func TestCreateSale_AgrupaPorProducto(t *testing.T) {
	f := newFixture(t)
	out := f.sell(t, item(prodCafe, "2", "12"), item(prodCafe, "3", "11"))

	assert.Equal(t, "SALE-000001", out.SaleNumber)
	assert.Equal(t, string(entity.SaleCompleted), out.Status)
	assert.Equal(t, entity.PaymentStatusPaid, out.PaymentStatus)
	require.Len(t, out.Items, 2, "las líneas se guardan como llegaron")
	assert.True(t, d("57").Equal(out.TotalAmount))

	movs := f.store.Movements()
	require.Len(t, movs, 1, "un movimiento por producto")
	assert.True(t, d("-5").Equal(movs[0].QuantityChange))
	assert.Equal(t, entity.RefSale, movs[0].ReferenceType)
	assert.Equal(t, out.ID, movs[0].ReferenceID)
	assert.True(t, d("5").Equal(f.qty(t, prodCafe)))

	assert.Equal(t, 1, f.checker.calls)
	assert.Equal(t, []string{prodCafe}, f.checker.products)
}

func TestCreateSale_PermiteSobreventa(t *testing.T) {
	f := newFixture(t)
	f.sell(t, item(prodTe, "12", "8"))
	assert.True(t, d("-2").Equal(f.qty(t, prodTe)))
}

func TestCreateSale_NumerosConsecutivos(t *testing.T) {
	f := newFixture(t)
	a := f.sell(t, item(prodCafe, "1", "12"))
	b := f.sell(t, item(prodTe, "1", "8"))
	assert.Equal(t, "SALE-000001", a.SaleNumber)
	assert.Equal(t, "SALE-000002", b.SaleNumber)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreateSale_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := dto.CreateSaleRequest{BranchID: branchA, PaymentMethod: "CASH"}

	tests := []struct {
		name string
		mod  func(r *dto.CreateSaleRequest)
		want error
	}{
		{"carrito vacío", func(r *dto.CreateSaleRequest) {}, domain.ErrEmptyCart},
		{"cantidad cero", func(r *dto.CreateSaleRequest) { r.Items = []dto.SaleItemRequest{item(prodCafe, "0", "1")} }, domain.ErrInvalidQuantity},
		{"precio negativo", func(r *dto.CreateSaleRequest) { r.Items = []dto.SaleItemRequest{item(prodCafe, "1", "-1")} }, domain.ErrInvalidInput},
		{"medio de pago", func(r *dto.CreateSaleRequest) {
			r.Items = []dto.SaleItemRequest{item(prodCafe, "1", "1")}
			r.PaymentMethod = "BITCOIN"
		}, domain.ErrInvalidInput},
		{"sucursal inexistente", func(r *dto.CreateSaleRequest) {
			r.Items = []dto.SaleItemRequest{item(prodCafe, "1", "1")}
			r.BranchID = "b-x"
		}, domain.ErrInvalidReference},
		{"cliente inexistente", func(r *dto.CreateSaleRequest) {
			r.Items = []dto.SaleItemRequest{item(prodCafe, "1", "1")}
			r.CustomerID = "c-x"
		}, domain.ErrInvalidReference},
		{"producto inexistente", func(r *dto.CreateSaleRequest) { r.Items = []dto.SaleItemRequest{item("p-x", "1", "1")} }, domain.ErrInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mod(&req)
			_, err := f.uc.CreateSale(ctx, user, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, f.store.SaleCount())
	assert.Empty(t, f.store.Movements())
	assert.Equal(t, 0, f.checker.calls)
}

// ─── Devolución y cambio ────────────────────────────────────────────────────

func TestReturn_ExcedeOriginalNoEscribeNada(t *testing.T) {
	f := newFixture(t)
	original := f.sell(t, item(prodCafe, "2", "12"))
	before := len(f.store.Movements())

	_, err := f.uc.CreateExchangeOrReturnSale(context.Background(), user, dto.ReturnExchangeRequest{
		OriginalSaleID: original.ID,
		ReturnedItems:  []dto.ReturnItemRequest{{ProductID: prodCafe, Quantity: d("3")}},
	})
	assert.ErrorIs(t, err, domain.ErrReturnExceedsOriginal)
	assert.Len(t, f.store.Movements(), before)
	assert.Equal(t, 1, f.store.SaleCount())
	assert.True(t, d("8").Equal(f.qty(t, prodCafe)))
	assert.Empty(t, f.sink.returns)
}

func TestReturn_DescuentaDevolucionesPrevias(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.sell(t, item(prodCafe, "3", "12"))

	_, err := f.uc.CreateExchangeOrReturnSale(ctx, user, dto.ReturnExchangeRequest{
		OriginalSaleID: original.ID,
		ReturnedItems:  []dto.ReturnItemRequest{{ProductID: prodCafe, Quantity: d("2")}},
	})
	require.NoError(t, err)

	_, err = f.uc.CreateExchangeOrReturnSale(ctx, user, dto.ReturnExchangeRequest{
		OriginalSaleID: original.ID,
		ReturnedItems:  []dto.ReturnItemRequest{{ProductID: prodCafe, Quantity: d("2")}},
	})
	assert.ErrorIs(t, err, domain.ErrReturnExceedsOriginal)

	_, err = f.uc.CreateExchangeOrReturnSale(ctx, user, dto.ReturnExchangeRequest{
		OriginalSaleID: original.ID,
		ReturnedItems:  []dto.ReturnItemRequest{{ProductID: prodCafe, Quantity: d("1")}},
	})
	require.NoError(t, err)
	assert.True(t, d("10").Equal(f.qty(t, prodCafe)))
}

func TestReturnYCambio_TotalesYMovimientos(t *testing.T) {
	f := newFixture(t)
	original := f.sell(t, item(prodCafe, "2", "12"))

	out, err := f.uc.CreateExchangeOrReturnSale(context.Background(), user, dto.ReturnExchangeRequest{
		OriginalSaleID: original.ID,
		ReturnedItems:  []dto.ReturnItemRequest{{ProductID: prodCafe, Quantity: d("1")}},
		ExchangedItems: []dto.ExchangeItemRequest{{ProductID: prodTe, Quantity: d("2"), Price: d("8")}},
	})
	require.NoError(t, err)

	// -12 devuelto + 16 entregado
	assert.True(t, d("4").Equal(out.TotalAmount), "total %s", out.TotalAmount)
	assert.Equal(t, string(entity.SaleExchanged), out.Status)
	assert.Equal(t, original.ID, out.OriginalSaleID)
	assert.Equal(t, branchA, out.BranchID, "sucursal por defecto de la venta original")
	assert.Equal(t, cliente, out.CustomerID)
	require.Len(t, out.Items, 2)
	assert.Equal(t, string(entity.ItemReturn), out.Items[0].ItemType)
	assert.True(t, d("-1").Equal(out.Items[0].Quantity))
	assert.Equal(t, original.Items[0].ID, out.Items[0].RefSaleItemID)
	assert.Equal(t, string(entity.ItemExchange), out.Items[1].ItemType)

	assert.True(t, d("9").Equal(f.qty(t, prodCafe)))
	assert.True(t, d("8").Equal(f.qty(t, prodTe)))

	movs := f.store.Movements()
	require.Len(t, movs, 3)
	assert.Equal(t, entity.MovementReturn, movs[1].Type)
	assert.Equal(t, entity.RefReturn, movs[1].ReferenceType)
	assert.Equal(t, original.ID, movs[1].ReferenceID)
	assert.Equal(t, entity.MovementSale, movs[2].Type)
	assert.Equal(t, entity.RefExchange, movs[2].ReferenceType)
	assert.Equal(t, out.ID, movs[2].ReferenceID)

	require.Len(t, f.sink.returns, 1)
	assert.True(t, d("12").Equal(f.sink.returns[0].ReturnAmount))
	assert.Equal(t, original.SaleNumber, f.sink.returns[0].SaleNumber)
	require.Len(t, f.sink.exchange, 1)
	assert.Equal(t, out.ID, f.sink.exchange[0].ExchangeID)
}

func TestReturn_SoloDevolucionQuedaRefunded(t *testing.T) {
	f := newFixture(t)
	original := f.sell(t, item(prodCafe, "1", "12"))
	out, err := f.uc.CreateExchangeOrReturnSale(context.Background(), user, dto.ReturnExchangeRequest{
		OriginalSaleID: original.ID,
		ReturnedItems:  []dto.ReturnItemRequest{{ProductID: prodCafe, Quantity: d("1")}},
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.SaleRefunded), out.Status)
	assert.True(t, d("-12").Equal(out.TotalAmount))
	assert.Empty(t, f.sink.exchange)
}

func TestReturn_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.sell(t, item(prodCafe, "1", "12"))

	_, err := f.uc.CreateExchangeOrReturnSale(ctx, user, dto.ReturnExchangeRequest{OriginalSaleID: "s-x",
		ReturnedItems: []dto.ReturnItemRequest{{ProductID: prodCafe, Quantity: d("1")}}})
	assert.ErrorIs(t, err, domain.ErrOriginalSaleNotFound)

	_, err = f.uc.CreateExchangeOrReturnSale(ctx, user, dto.ReturnExchangeRequest{OriginalSaleID: original.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.CreateExchangeOrReturnSale(ctx, user, dto.ReturnExchangeRequest{OriginalSaleID: original.ID,
		ReturnedItems: []dto.ReturnItemRequest{{ProductID: prodTe, Quantity: d("1")}}})
	assert.ErrorIs(t, err, domain.ErrInvalidReference)

	_, err = f.uc.CreateExchangeOrReturnSale(ctx, user, dto.ReturnExchangeRequest{OriginalSaleID: original.ID,
		ReturnedItems: []dto.ReturnItemRequest{{ProductID: prodCafe, Quantity: d("0")}}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.uc.CreateExchangeOrReturnSale(ctx, user, dto.ReturnExchangeRequest{OriginalSaleID: original.ID,
		ExchangedItems: []dto.ExchangeItemRequest{{ProductID: "p-x", Quantity: d("1"), Price: d("1")}}})
	assert.ErrorIs(t, err, domain.ErrInvalidReference)

	assert.Equal(t, 1, f.store.SaleCount())
}

func TestReturn_ImputaLineasOriginalesEnOrden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.sell(t, item(prodCafe, "2", "12"), item(prodCafe, "3", "11"))

	first, err := f.uc.CreateExchangeOrReturnSale(ctx, user, dto.ReturnExchangeRequest{
		OriginalSaleID: original.ID,
		ReturnedItems:  []dto.ReturnItemRequest{{ProductID: prodCafe, Quantity: d("3")}},
	})
	require.NoError(t, err)
	require.Len(t, first.Items, 2, "una línea RETURN por línea original imputada")
	assert.True(t, d("-2").Equal(first.Items[0].Quantity))
	assert.True(t, d("12").Equal(first.Items[0].UnitPrice))
	assert.Equal(t, original.Items[0].ID, first.Items[0].RefSaleItemID)
	assert.True(t, d("-1").Equal(first.Items[1].Quantity))
	assert.True(t, d("11").Equal(first.Items[1].UnitPrice))
	assert.Equal(t, original.Items[1].ID, first.Items[1].RefSaleItemID)
	assert.True(t, d("-35").Equal(first.TotalAmount), "total %s", first.TotalAmount)
	require.Len(t, f.sink.returns, 1)
	assert.True(t, d("35").Equal(f.sink.returns[0].ReturnAmount))

	second, err := f.uc.CreateExchangeOrReturnSale(ctx, user, dto.ReturnExchangeRequest{
		OriginalSaleID: original.ID,
		ReturnedItems:  []dto.ReturnItemRequest{{ProductID: prodCafe, Quantity: d("2")}},
	})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, original.Items[1].ID, second.Items[0].RefSaleItemID, "lo ya devuelto consume la primera línea")
	assert.True(t, d("-22").Equal(second.TotalAmount))

	movs := f.store.Movements()
	require.Len(t, movs, 3, "un movimiento RETURN por producto y devolución")
	assert.True(t, d("3").Equal(movs[1].QuantityChange))
	assert.True(t, d("10").Equal(f.qty(t, prodCafe)))
}

func TestCreateSale_EscalaDeCantidadesEImportes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := func(items ...dto.SaleItemRequest) dto.CreateSaleRequest {
		return dto.CreateSaleRequest{BranchID: branchA, PaymentMethod: "CASH", Items: items}
	}

	_, err := f.uc.CreateSale(ctx, user, req(item(prodCafe, "0.0005", "12")))
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.uc.CreateSale(ctx, user, req(item(prodCafe, "1", "0.005"), item(prodTe, "1", "0.005")))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, f.store.SaleCount())
	assert.Empty(t, f.store.Movements())

	out, err := f.uc.CreateSale(ctx, user, req(item(prodCafe, "0.333", "0.99"), item(prodTe, "0.333", "0.99")))
	require.NoError(t, err)
	sum := decimal.Zero
	for _, it := range out.Items {
		assert.True(t, it.LineTotal.Equal(it.LineTotal.Round(2)), "línea %s", it.LineTotal)
		sum = sum.Add(it.LineTotal)
	}
	assert.True(t, d("0.66").Equal(out.Subtotal), "subtotal %s", out.Subtotal)
	assert.True(t, sum.Equal(out.Subtotal))

	_, err = f.uc.CreateExchangeOrReturnSale(ctx, user, dto.ReturnExchangeRequest{
		OriginalSaleID: out.ID,
		ReturnedItems:  []dto.ReturnItemRequest{{ProductID: prodCafe, Quantity: d("0.0001")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.uc.CreateExchangeOrReturnSale(ctx, user, dto.ReturnExchangeRequest{
		OriginalSaleID: out.ID,
		ExchangedItems: []dto.ExchangeItemRequest{{ProductID: prodTe, Quantity: d("1"), Price: d("1.001")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1, f.store.SaleCount())
}

func TestReturn_FalloDelAvisoNoRevierte(t *testing.T) {
	f := newFixture(t)
	original := f.sell(t, item(prodCafe, "1", "12"))
	f.sink.failWith = errors.New("cola caída")

	_, err := f.uc.CreateExchangeOrReturnSale(context.Background(), user, dto.ReturnExchangeRequest{
		OriginalSaleID: original.ID,
		ReturnedItems:  []dto.ReturnItemRequest{{ProductID: prodCafe, Quantity: d("1")}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.SaleCount())
	assert.True(t, d("10").Equal(f.qty(t, prodCafe)))
	assert.Len(t, f.sink.returns, 1, "un solo intento por evento")
}

// ─── Concurrencia ───────────────────────────────────────────────────────────

func TestCreateSale_ConcurrenteLedgerConsistente(t *testing.T) {
	f := newFixture(t)
	const n = 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.CreateSale(context.Background(), user, dto.CreateSaleRequest{
				BranchID: branchA, PaymentMethod: "CARD", Items: []dto.SaleItemRequest{item(prodCafe, "1", "12")},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, d("-10").Equal(f.qty(t, prodCafe)))
	assert.Equal(t, n, f.store.SaleCount())
	prev := d("10")
	for _, m := range f.store.Movements() {
		require.NoError(t, m.Validate())
		assert.True(t, prev.Equal(m.PreviousQty))
		prev = m.NewQty
	}
}

// ─── Consultas ──────────────────────────────────────────────────────────────

func TestQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.sell(t, item(prodCafe, "1", "12"))
	f.sell(t, item(prodTe, "2", "8"), item(prodCafe, "1", "12"))
	_, err := f.uc.CreateExchangeOrReturnSale(ctx, user, dto.ReturnExchangeRequest{
		OriginalSaleID: first.ID,
		ReturnedItems:  []dto.ReturnItemRequest{{ProductID: prodCafe, Quantity: d("1")}},
	})
	require.NoError(t, err)

	all, err := f.query.GetSales(ctx, branchA)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	returnable, err := f.query.GetSalesForReturns(ctx, branchA)
	require.NoError(t, err)
	assert.Len(t, returnable, 2)
	for _, s := range returnable {
		assert.Equal(t, string(entity.SaleCompleted), s.Status)
	}

	got, err := f.query.GetSaleByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.SaleNumber, got.SaleNumber)

	_, err = f.query.GetSaleByID(ctx, "s-x")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	today, err := f.query.GetTodaySales(ctx, branchA)
	require.NoError(t, err)
	assert.Len(t, today, 3)

	yesterday := sales.NewQueryUseCase(memory.NewSaleRepository(f.store)).
		WithClock(func() time.Time { return time.Now().AddDate(0, 0, -1) })
	none, err := yesterday.GetTodaySales(ctx, branchA)
	require.NoError(t, err)
	assert.Empty(t, none)

	recent, err := f.query.GetRecentSaleItems(ctx, branchA)
	require.NoError(t, err)
	assert.NotEmpty(t, recent)
	assert.LessOrEqual(t, len(recent), 5)
}

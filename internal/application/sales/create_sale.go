package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/jhoicas/pos-ledger/pkg/metrics"
)

// SaleUseCase crea ventas y devoluciones/cambios descontando o reponiendo stock en la misma transacción.
type SaleUseCase struct {
	txRunner     SalesTxRunner
	recorder     InventoryRecorder
	alerter      LowStockChecker
	sink         ports.NotificationSink
	saleRepo     repository.SaleRepository
	productRepo  repository.ProductRepository
	branchRepo   repository.BranchRepository
	customerRepo repository.CustomerRepository
	log          *logger.Logger
	metrics      *metrics.LedgerMetrics
	now          func() time.Time
}

// NewSaleUseCase construye el caso de uso. alerter, sink, log y m pueden ser nil.
func NewSaleUseCase(
	txRunner SalesTxRunner,
	recorder InventoryRecorder,
	alerter LowStockChecker,
	sink ports.NotificationSink,
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	branchRepo repository.BranchRepository,
	customerRepo repository.CustomerRepository,
	log *logger.Logger,
	m *metrics.LedgerMetrics,
) *SaleUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &SaleUseCase{
		txRunner:     txRunner,
		recorder:     recorder,
		alerter:      alerter,
		sink:         sink,
		saleRepo:     saleRepo,
		productRepo:  productRepo,
		branchRepo:   branchRepo,
		customerRepo: customerRepo,
		log:          log.Component("sales"),
		metrics:      m,
		now:          time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *SaleUseCase) WithClock(now func() time.Time) *SaleUseCase {
	uc.now = now
	return uc
}

// group cantidad total de un producto en el carrito.
type group struct {
	productID string
	quantity  decimal.Decimal
}

// groupByProduct suma cantidades por producto conservando el orden de primera aparición.
func groupByProduct(items []dto.SaleItemRequest) []group {
	idx := make(map[string]int, len(items))
	out := make([]group, 0, len(items))
	for _, it := range items {
		if i, ok := idx[it.ProductID]; ok {
			out[i].quantity = out[i].quantity.Add(it.Quantity)
			continue
		}
		idx[it.ProductID] = len(out)
		out = append(out, group{productID: it.ProductID, quantity: it.Quantity})
	}
	return out
}

// CreateSale registra la venta y un movimiento SALE por producto. Permite sobreventa.
func (uc *SaleUseCase) CreateSale(ctx context.Context, userID string, in dto.CreateSaleRequest) (out *dto.SaleResponse, err error) {
	defer func(start time.Time) { uc.metrics.ObserveOperation("sale", start, err) }(time.Now())

	// 1) Validar fuera de la tx (solo lectura)
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	for i, it := range in.Items {
		if !it.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: ítem %d", domain.ErrInvalidQuantity, i+1)
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("%w: precio negativo en ítem %d", domain.ErrInvalidInput, i+1)
		}
		if err := entity.CheckQuantityScale(it.Quantity); err != nil {
			return nil, fmt.Errorf("ítem %d: %w", i+1, err)
		}
		if err := entity.CheckMoneyScale(it.Price); err != nil {
			return nil, fmt.Errorf("ítem %d: %w", i+1, err)
		}
	}
	method := entity.PaymentMethod(in.PaymentMethod)
	if !method.Valid() {
		return nil, fmt.Errorf("%w: medio de pago %q", domain.ErrInvalidInput, in.PaymentMethod)
	}
	if err := uc.requireBranchAndCustomer(ctx, in.BranchID, in.CustomerID); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		ids = append(ids, it.ProductID)
	}
	if _, err := uc.requireProducts(ctx, ids); err != nil {
		return nil, err
	}

	// 2) Agrupar por producto
	groups := groupByProduct(in.Items)

	sale := &entity.Sale{
		ID:            uuid.New().String(),
		BranchID:      in.BranchID,
		CustomerID:    in.CustomerID,
		PaymentMethod: method,
		PaymentStatus: entity.PaymentStatusPaid,
		Status:        entity.SaleCompleted,
		CreatedBy:     userID,
		SaleDate:      uc.now(),
	}
	for i, it := range in.Items {
		sale.Items = append(sale.Items, entity.SaleItem{
			ID:           uuid.New().String(),
			SaleID:       sale.ID,
			Position:     i + 1,
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			UnitPrice:    it.Price,
			LineTotal:    entity.LineTotal(it.Price, it.Quantity),
			ItemType:     entity.ItemSale,
			TaxRate:      decimal.Zero,
			DiscountRate: decimal.Zero,
		})
	}
	sale.Subtotal = entity.SumLines(sale.Items)
	sale.TotalAmount = sale.Subtotal

	// 3) Una transacción: número, cabecera + ítems, un movimiento por producto
	err = uc.txRunner.RunSales(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		saleRepo repository.SaleRepository,
	) error {
		number, err := saleRepo.NextSaleNumber(ctx)
		if err != nil {
			return fmt.Errorf("sale number: %w", err)
		}
		sale.SaleNumber = number
		if err := saleRepo.Create(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		for _, g := range groups {
			if _, err := uc.recorder.RecordInTx(ctx, stockRepo, movRepo, inventory.MovementSpec{
				ProductID:     g.productID,
				BranchID:      in.BranchID,
				Delta:         g.quantity.Neg(),
				AllowNegative: true,
				Type:          entity.MovementSale,
				Ref:           entity.Reference{Type: entity.RefSale, ID: sale.ID},
				CreatedBy:     userID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 4) Después del commit
	uc.checkLowStock(ctx, in.BranchID, groupIDs(groups))
	return ToSaleResponse(sale), nil
}

func (uc *SaleUseCase) checkLowStock(ctx context.Context, branchID string, productIDs []string) {
	if uc.alerter == nil || len(productIDs) == 0 {
		return
	}
	uc.alerter.CheckLowStock(ctx, branchID, productIDs)
}

func (uc *SaleUseCase) requireBranchAndCustomer(ctx context.Context, branchID, customerID string) error {
	branch, err := uc.branchRepo.GetByID(ctx, branchID)
	if err != nil {
		return err
	}
	if branch == nil {
		return fmt.Errorf("%w: sucursal %s", domain.ErrInvalidReference, branchID)
	}
	if customerID == "" {
		return nil
	}
	customer, err := uc.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return fmt.Errorf("%w: cliente %s", domain.ErrInvalidReference, customerID)
	}
	return nil
}

// requireProducts carga los productos y falla con ErrInvalidReference listando los faltantes.
func (uc *SaleUseCase) requireProducts(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	products, err := uc.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	var missing []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := byID[id]; !ok && !seen[id] {
			missing = append(missing, id)
		}
		seen[id] = true
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: productos %s", domain.ErrInvalidReference, strings.Join(missing, ", "))
	}
	return byID, nil
}

func groupIDs(groups []group) []string {
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.productID)
	}
	return ids
}

// ToSaleResponse convierte la entidad al DTO de salida.
func ToSaleResponse(s *entity.Sale) *dto.SaleResponse {
	out := &dto.SaleResponse{
		ID:             s.ID,
		SaleNumber:     s.SaleNumber,
		BranchID:       s.BranchID,
		CustomerID:     s.CustomerID,
		Subtotal:       s.Subtotal,
		TotalAmount:    s.TotalAmount,
		PaymentMethod:  string(s.PaymentMethod),
		PaymentStatus:  s.PaymentStatus,
		Status:         string(s.Status),
		OriginalSaleID: s.OriginalSaleID,
		CreatedBy:      s.CreatedBy,
		SaleDate:       s.SaleDate,
		Items:          make([]dto.SaleItemResponse, 0, len(s.Items)),
	}
	for _, it := range s.Items {
		out.Items = append(out.Items, dto.SaleItemResponse{
			ID:            it.ID,
			ProductID:     it.ProductID,
			ProductName:   it.ProductName,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			LineTotal:     it.LineTotal,
			ItemType:      string(it.ItemType),
			RefSaleItemID: it.RefSaleItemID,
			TaxRate:       it.TaxRate,
			DiscountRate:  it.DiscountRate,
		})
	}
	return out
}

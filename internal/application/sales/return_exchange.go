package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// originalLines líneas vendidas de un producto en la venta original, en orden de posición.
type originalLines struct {
	items    []entity.SaleItem
	quantity decimal.Decimal
}

// returnPortion parte de una devolución imputada a una línea de la venta original.
type returnPortion struct {
	line     entity.SaleItem
	quantity decimal.Decimal
}

// allocateReturn reparte quantity sobre las líneas en orden. Las unidades ya devueltas
// consumen primero las líneas iniciales, igual que se imputaron en su momento.
func allocateReturn(lines []entity.SaleItem, alreadyReturned, quantity decimal.Decimal) []returnPortion {
	skip := alreadyReturned
	var out []returnPortion
	for _, line := range lines {
		if !quantity.IsPositive() {
			break
		}
		avail := line.Quantity
		if skip.IsPositive() {
			used := decimal.Min(skip, avail)
			skip = skip.Sub(used)
			avail = avail.Sub(used)
		}
		if !avail.IsPositive() {
			continue
		}
		take := decimal.Min(quantity, avail)
		out = append(out, returnPortion{line: line, quantity: take})
		quantity = quantity.Sub(take)
	}
	return out
}

// CreateExchangeOrReturnSale registra una venta derivada de originalSaleID con devoluciones
// (reponen stock) y/o productos entregados en cambio (descuentan stock).
func (uc *SaleUseCase) CreateExchangeOrReturnSale(ctx context.Context, userID string, in dto.ReturnExchangeRequest) (out *dto.SaleResponse, err error) {
	defer func(start time.Time) { uc.metrics.ObserveOperation("return_exchange", start, err) }(time.Now())

	// 1) Venta original y entradas
	original, err := uc.saleRepo.GetByID(ctx, in.OriginalSaleID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrOriginalSaleNotFound, in.OriginalSaleID)
	}
	if len(in.ReturnedItems) == 0 && len(in.ExchangedItems) == 0 {
		return nil, fmt.Errorf("%w: sin productos devueltos ni cambiados", domain.ErrInvalidInput)
	}
	branchID := in.BranchID
	if branchID == "" {
		branchID = original.BranchID
	}
	customerID := in.CustomerID
	if customerID == "" {
		customerID = original.CustomerID
	}
	if err := uc.requireBranchAndCustomer(ctx, branchID, customerID); err != nil {
		return nil, err
	}

	lines := make(map[string]*originalLines)
	for _, it := range original.Items {
		if !it.Quantity.IsPositive() {
			continue
		}
		l, ok := lines[it.ProductID]
		if !ok {
			l = &originalLines{}
			lines[it.ProductID] = l
		}
		l.items = append(l.items, it)
		l.quantity = l.quantity.Add(it.Quantity)
	}

	// 2) Devoluciones agrupadas por producto contra la venta original
	returned := make([]group, 0, len(in.ReturnedItems))
	returnIdx := make(map[string]int)
	for i, it := range in.ReturnedItems {
		if !it.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: devolución %d", domain.ErrInvalidQuantity, i+1)
		}
		if err := entity.CheckQuantityScale(it.Quantity); err != nil {
			return nil, fmt.Errorf("devolución %d: %w", i+1, err)
		}
		if _, ok := lines[it.ProductID]; !ok {
			return nil, fmt.Errorf("%w: producto %s no está en la venta original", domain.ErrInvalidReference, it.ProductID)
		}
		if j, ok := returnIdx[it.ProductID]; ok {
			returned[j].quantity = returned[j].quantity.Add(it.Quantity)
			continue
		}
		returnIdx[it.ProductID] = len(returned)
		returned = append(returned, group{productID: it.ProductID, quantity: it.Quantity})
	}

	exchanged := make([]dto.SaleItemRequest, 0, len(in.ExchangedItems))
	for i, it := range in.ExchangedItems {
		if !it.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: cambio %d", domain.ErrInvalidQuantity, i+1)
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("%w: precio negativo en cambio %d", domain.ErrInvalidInput, i+1)
		}
		if err := entity.CheckQuantityScale(it.Quantity); err != nil {
			return nil, fmt.Errorf("cambio %d: %w", i+1, err)
		}
		if err := entity.CheckMoneyScale(it.Price); err != nil {
			return nil, fmt.Errorf("cambio %d: %w", i+1, err)
		}
		exchanged = append(exchanged, dto.SaleItemRequest{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	if len(exchanged) > 0 {
		ids := make([]string, 0, len(exchanged))
		for _, it := range exchanged {
			ids = append(ids, it.ProductID)
		}
		if _, err := uc.requireProducts(ctx, ids); err != nil {
			return nil, err
		}
	}

	sale := &entity.Sale{
		ID:             uuid.New().String(),
		BranchID:       branchID,
		CustomerID:     customerID,
		PaymentMethod:  entity.PaymentCash,
		PaymentStatus:  entity.PaymentStatusPaid,
		Status:         entity.FollowUpStatus(len(returned) > 0, len(exchanged) > 0),
		OriginalSaleID: original.ID,
		CreatedBy:      userID,
		SaleDate:       uc.now(),
	}
	exchangeItems := make([]entity.SaleItem, 0, len(exchanged))
	for _, e := range exchanged {
		exchangeItems = append(exchangeItems, entity.SaleItem{
			ID:           uuid.New().String(),
			SaleID:       sale.ID,
			ProductID:    e.ProductID,
			Quantity:     e.Quantity,
			UnitPrice:    e.Price,
			LineTotal:    entity.LineTotal(e.Price, e.Quantity),
			ItemType:     entity.ItemExchange,
			TaxRate:      decimal.Zero,
			DiscountRate: decimal.Zero,
		})
	}

	// 3) Una transacción: saldo devolvible, cabecera + ítems, movimientos RETURN y SALE
	var returnAmount decimal.Decimal
	err = uc.txRunner.RunSales(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		saleRepo repository.SaleRepository,
	) error {
		already, err := saleRepo.ReturnedQuantities(ctx, original.ID)
		if err != nil {
			return fmt.Errorf("returned quantities: %w", err)
		}
		for _, r := range returned {
			allowance := lines[r.productID].quantity.Sub(already[r.productID])
			if r.quantity.GreaterThan(allowance) {
				return fmt.Errorf("%w: producto %s, devolviendo %s, disponible %s",
					domain.ErrReturnExceedsOriginal, r.productID, r.quantity, allowance)
			}
		}

		// Líneas RETURN al precio de cada línea original imputada
		returnAmount = decimal.Zero
		sale.Items = sale.Items[:0]
		for _, r := range returned {
			for _, p := range allocateReturn(lines[r.productID].items, already[r.productID], r.quantity) {
				amount := entity.LineTotal(p.line.UnitPrice, p.quantity)
				returnAmount = returnAmount.Add(amount)
				sale.Items = append(sale.Items, entity.SaleItem{
					ID:            uuid.New().String(),
					SaleID:        sale.ID,
					Position:      len(sale.Items) + 1,
					ProductID:     r.productID,
					Quantity:      p.quantity.Neg(),
					UnitPrice:     p.line.UnitPrice,
					LineTotal:     amount.Neg(),
					ItemType:      entity.ItemReturn,
					RefSaleItemID: p.line.ID,
					TaxRate:       p.line.TaxRate,
					DiscountRate:  p.line.DiscountRate,
				})
			}
		}
		for _, it := range exchangeItems {
			it.Position = len(sale.Items) + 1
			sale.Items = append(sale.Items, it)
		}
		sale.Subtotal = entity.SumLines(sale.Items)
		sale.TotalAmount = sale.Subtotal

		number, err := saleRepo.NextSaleNumber(ctx)
		if err != nil {
			return fmt.Errorf("sale number: %w", err)
		}
		sale.SaleNumber = number
		if err := saleRepo.Create(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		for _, r := range returned {
			if _, err := uc.recorder.RecordInTx(ctx, stockRepo, movRepo, inventory.MovementSpec{
				ProductID:     r.productID,
				BranchID:      branchID,
				Delta:         r.quantity,
				AllowNegative: true,
				Type:          entity.MovementReturn,
				Ref:           entity.Reference{Type: entity.RefReturn, ID: original.ID},
				Notes:         "Returned by customer",
				CreatedBy:     userID,
			}); err != nil {
				return err
			}
		}
		for _, e := range exchanged {
			if _, err := uc.recorder.RecordInTx(ctx, stockRepo, movRepo, inventory.MovementSpec{
				ProductID:     e.ProductID,
				BranchID:      branchID,
				Delta:         e.Quantity.Neg(),
				AllowNegative: true,
				Type:          entity.MovementSale,
				Ref:           entity.Reference{Type: entity.RefExchange, ID: sale.ID},
				Notes:         "Exchanged to customer",
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

	// 4) Después del commit: avisos y revisión de stock bajo, sin propagar errores
	uc.notifyFollowUp(ctx, sale, original, returnAmount, len(returned) > 0, len(exchanged) > 0, userID)
	touched := make([]string, 0, len(returned)+len(exchanged))
	seen := make(map[string]bool)
	for _, r := range returned {
		if !seen[r.productID] {
			seen[r.productID] = true
			touched = append(touched, r.productID)
		}
	}
	for _, e := range exchanged {
		if !seen[e.ProductID] {
			seen[e.ProductID] = true
			touched = append(touched, e.ProductID)
		}
	}
	uc.checkLowStock(ctx, branchID, touched)

	return ToSaleResponse(sale), nil
}

func (uc *SaleUseCase) notifyFollowUp(ctx context.Context, sale, original *entity.Sale, amount decimal.Decimal, hasReturn, hasExchange bool, userID string) {
	if uc.sink == nil {
		return
	}
	if hasReturn {
		err := uc.sink.NotifyReturnProcessed(ctx, entity.ReturnProcessed{
			ReturnID:     sale.ID,
			SaleNumber:   original.SaleNumber,
			ReturnAmount: amount,
			BranchID:     sale.BranchID,
			UserID:       userID,
		})
		if err != nil {
			uc.metrics.IncNotificationFailure("return")
			uc.log.Warn().Err(err).Str("sale_id", sale.ID).Msg("aviso de devolución descartado")
		}
	}
	if hasExchange {
		err := uc.sink.NotifyExchangeProcessed(ctx, entity.ExchangeProcessed{
			ExchangeID: sale.ID,
			SaleNumber: original.SaleNumber,
			BranchID:   sale.BranchID,
			UserID:     userID,
		})
		if err != nil {
			uc.metrics.IncNotificationFailure("exchange")
			uc.log.Warn().Err(err).Str("sale_id", sale.ID).Msg("aviso de cambio descartado")
		}
	}
}

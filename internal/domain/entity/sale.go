package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus estado de una venta.
type SaleStatus string

const (
	SaleCompleted SaleStatus = "COMPLETED"
	SaleRefunded  SaleStatus = "REFUNDED"
	SaleExchanged SaleStatus = "EXCHANGED"
)

// PaymentMethod medio de pago.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentCard         PaymentMethod = "CARD"
	PaymentMobileMoney  PaymentMethod = "MOBILE_MONEY"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCredit       PaymentMethod = "CREDIT"
)

// Valid indica si el medio de pago es conocido.
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentMobileMoney, PaymentBankTransfer, PaymentCredit:
		return true
	}
	return false
}

// PaymentStatusPaid único estado de pago que genera el motor.
const PaymentStatusPaid = "PAID"

// SaleItemType tipo de línea.
type SaleItemType string

const (
	ItemSale     SaleItemType = "SALE"
	ItemReturn   SaleItemType = "RETURN"
	ItemExchange SaleItemType = "EXCHANGE"
)

// Sale cabecera de venta. Las devoluciones/cambios son una venta nueva con OriginalSaleID.
type Sale struct {
	ID             string
	SaleNumber     string
	BranchID       string
	CustomerID     string // vacío = consumidor final
	Subtotal       decimal.Decimal
	TotalAmount    decimal.Decimal
	PaymentMethod  PaymentMethod
	PaymentStatus  string
	Status         SaleStatus
	OriginalSaleID string
	CreatedBy      string
	SaleDate       time.Time
	Items          []SaleItem
}

// SaleItem línea de venta. Quantity es negativa en las líneas RETURN.
type SaleItem struct {
	ID            string
	SaleID        string
	Position      int
	ProductID     string
	ProductName   string // solo lectura (consultas)
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	LineTotal     decimal.Decimal
	ItemType      SaleItemType
	RefSaleItemID string
	TaxRate       decimal.Decimal
	DiscountRate  decimal.Decimal
}

// SumLines suma los line_total de los ítems.
func SumLines(items []SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal)
	}
	return total
}

// FollowUpStatus estado de la venta derivada de una devolución/cambio.
// Un cambio puro queda EXCHANGED igual que uno mixto.
func FollowUpStatus(hasReturn, hasExchange bool) SaleStatus {
	if hasReturn && !hasExchange {
		return SaleRefunded
	}
	return SaleExchanged
}

// FormatSaleNumber arma el código visible a partir del valor de la secuencia.
func FormatSaleNumber(seq int64) string {
	return fmt.Sprintf("SALE-%06d", seq)
}

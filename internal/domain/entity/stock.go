package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Valores por defecto de una fila de stock creada en el primer movimiento.
var (
	DefaultMinimumQuantity  = decimal.Zero
	DefaultMaximumQuantity  = decimal.NewFromInt(1000)
	DefaultReservedQuantity = decimal.Zero
)

// StockRecord es la existencia actual de un producto en una sucursal.
// CurrentQuantity puede ser negativa cuando la operación permite sobreventa.
type StockRecord struct {
	ProductID        string
	BranchID         string
	CurrentQuantity  decimal.Decimal
	MinimumQuantity  decimal.Decimal
	MaximumQuantity  decimal.Decimal
	ReservedQuantity decimal.Decimal
	LastUpdated      time.Time
}

// StockDelta son los valores observados por la escritura atómica de ApplyDelta.
// Se usan tal cual en el MovementRecord que la acompaña.
type StockDelta struct {
	PreviousQty decimal.Decimal
	NewQty      decimal.Decimal
}

// Change devuelve NewQty - PreviousQty.
func (d StockDelta) Change() decimal.Decimal {
	return d.NewQty.Sub(d.PreviousQty)
}

// StockView es una fila de stock con los datos de producto y sucursal (consultas).
type StockView struct {
	StockRecord
	ProductName string
	ProductSKU  string
	ProductCost decimal.Decimal
	BranchName  string
}

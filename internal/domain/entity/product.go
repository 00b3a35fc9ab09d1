package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto vendible. Cost es promedio ponderado actualizado en cada compra.
type Product struct {
	ID        string
	SKU       string // código único
	Name      string
	Price     decimal.Decimal // precio de venta
	Cost      decimal.Decimal // costo promedio ponderado (inicia en 0)
	CreatedAt time.Time
	UpdatedAt time.Time
}

package entity

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain"
)

// Decimales que guardan las columnas NUMERIC del esquema.
const (
	QuantityScale = 3 // stock, movimientos, cantidades de línea
	MoneyScale    = 2 // precios, totales
	CostScale     = 4 // products.cost
)

// CheckQuantityScale rechaza cantidades con más decimales de los que se persisten.
func CheckQuantityScale(q decimal.Decimal) error {
	if !q.Equal(q.Truncate(QuantityScale)) {
		return fmt.Errorf("%w: %s admite como máximo %d decimales", domain.ErrInvalidQuantity, q, QuantityScale)
	}
	return nil
}

// CheckMoneyScale rechaza importes con más de dos decimales.
func CheckMoneyScale(m decimal.Decimal) error {
	if !m.Equal(m.Truncate(MoneyScale)) {
		return fmt.Errorf("%w: importe %s admite como máximo %d decimales", domain.ErrInvalidInput, m, MoneyScale)
	}
	return nil
}

// CheckCostScale rechaza costos unitarios con más de cuatro decimales.
func CheckCostScale(c decimal.Decimal) error {
	if !c.Equal(c.Truncate(CostScale)) {
		return fmt.Errorf("%w: costo %s admite como máximo %d decimales", domain.ErrInvalidInput, c, CostScale)
	}
	return nil
}

// LineTotal precio por cantidad redondeado a la escala de dinero, igual que lo guarda la base.
// La suma de los LineTotal es entonces exactamente el subtotal persistido.
func LineTotal(price, quantity decimal.Decimal) decimal.Decimal {
	return price.Mul(quantity).Round(MoneyScale)
}

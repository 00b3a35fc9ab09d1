package inventory

import "github.com/shopspring/decimal"

// DefaultLowStockFloor umbral mínimo de alerta cuando la fila no define uno mayor.
var DefaultLowStockFloor = decimal.NewFromInt(5)

// LowStockPolicy decide cuándo una existencia amerita aviso.
type LowStockPolicy struct {
	Floor decimal.Decimal
}

// NewLowStockPolicy con floor negativo usa el valor por defecto.
func NewLowStockPolicy(floor int) LowStockPolicy {
	if floor < 0 {
		return LowStockPolicy{Floor: DefaultLowStockFloor}
	}
	return LowStockPolicy{Floor: decimal.NewFromInt(int64(floor))}
}

// Threshold max(minimum, floor).
func (p LowStockPolicy) Threshold(minimum decimal.Decimal) decimal.Decimal {
	return decimal.Max(minimum, p.Floor)
}

// IsLow current <= 0 o current <= max(minimum, floor).
func (p LowStockPolicy) IsLow(current, minimum decimal.Decimal) bool {
	if !current.IsPositive() {
		return true
	}
	return current.LessThanOrEqual(p.Threshold(minimum))
}

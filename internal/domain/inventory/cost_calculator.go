package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost recalcula el costo promedio tras una compra.
// costo = ((existencia * costoActual) + (entrada * costoEntrada)) / (existencia + entrada)
// Con existencia <= 0 (sobreventa previa) el costo pasa a ser el de la entrada.
func WeightedAverageCost(onHand, currentCost, incoming, incomingCost decimal.Decimal) decimal.Decimal {
	if !incoming.IsPositive() {
		return currentCost
	}
	if !onHand.IsPositive() {
		return incomingCost
	}
	num := onHand.Mul(currentCost).Add(incoming.Mul(incomingCost))
	return num.Div(onHand.Add(incoming)).Round(4)
}

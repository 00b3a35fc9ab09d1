package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestMovementValidate(t *testing.T) {
	ok := entity.NewMovement("p", "b", entity.MovementSale,
		entity.StockDelta{PreviousQty: d("5"), NewQty: d("2")},
		entity.Reference{Type: entity.RefSale, ID: "s-1"}, "", "u")
	assert.NoError(t, ok.Validate())
	assert.True(t, d("-3").Equal(ok.QuantityChange))

	bad := *ok
	bad.NewQty = d("1")
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidInput)

	noBranch := *ok
	noBranch.BranchID = ""
	assert.ErrorIs(t, noBranch.Validate(), domain.ErrInvalidInput)
}

func TestValidReference(t *testing.T) {
	tests := []struct {
		typ  entity.MovementType
		ref  entity.ReferenceType
		want bool
	}{
		{entity.MovementSale, entity.RefSale, true},
		{entity.MovementSale, entity.RefExchange, true},
		{entity.MovementSale, entity.RefReturn, false},
		{entity.MovementReturn, entity.RefReturn, true},
		{entity.MovementTransferOut, entity.RefTransfer, true},
		{entity.MovementTransferIn, entity.RefAdjustment, false},
		{entity.MovementDamage, entity.RefRemoval, true},
		{entity.MovementDamage, entity.RefAdjustment, true},
		{entity.MovementPurchase, entity.RefNone, true},
		{entity.MovementAdjustment, entity.RefNone, false},
		{entity.MovementType("GIFT"), entity.RefNone, false},
	}
	for _, tt := range tests {
		err := entity.ValidReference(tt.typ, tt.ref)
		if tt.want {
			assert.NoError(t, err, "%s/%s", tt.typ, tt.ref)
		} else {
			assert.ErrorIs(t, err, domain.ErrInvalidInput, "%s/%s", tt.typ, tt.ref)
		}
	}
}

func TestFollowUpStatus(t *testing.T) {
	assert.Equal(t, entity.SaleRefunded, entity.FollowUpStatus(true, false))
	assert.Equal(t, entity.SaleExchanged, entity.FollowUpStatus(true, true))
	assert.Equal(t, entity.SaleExchanged, entity.FollowUpStatus(false, true))
}

func TestFormatSaleNumber(t *testing.T) {
	assert.Equal(t, "SALE-000001", entity.FormatSaleNumber(1))
	assert.Equal(t, "SALE-123456", entity.FormatSaleNumber(123456))
	assert.Equal(t, "SALE-1234567", entity.FormatSaleNumber(1234567))
}

func TestSumLines(t *testing.T) {
	items := []entity.SaleItem{{LineTotal: d("-12")}, {LineTotal: d("16.50")}}
	assert.True(t, d("4.5").Equal(entity.SumLines(items)))
	assert.True(t, entity.SumLines(nil).IsZero())
}

func TestPaymentMethodValid(t *testing.T) {
	assert.True(t, entity.PaymentCash.Valid())
	assert.True(t, entity.PaymentMethod("MOBILE_MONEY").Valid())
	assert.False(t, entity.PaymentMethod("cash").Valid())
	assert.False(t, entity.PaymentMethod("").Valid())
}

func TestNotificationBuilders(t *testing.T) {
	low := entity.NewLowStockNotification(entity.LowStockAlert{
		ProductID: "p", ProductName: "Café", CurrentStock: d("3"), MinStock: d("5"), BranchID: "b",
	})
	assert.Equal(t, entity.PriorityHigh, low.Priority)
	assert.Equal(t, "Café is running low (3 units remaining, minimum: 5)", low.Message)
	assert.Equal(t, "b", low.BranchID)

	out := entity.NewLowStockNotification(entity.LowStockAlert{ProductName: "Té", CurrentStock: d("-1")})
	assert.Equal(t, entity.PriorityCritical, out.Priority)
	assert.Equal(t, "Product Out of Stock", out.Title)
	assert.Equal(t, "Té is out of stock", out.Message)

	ret := entity.NewReturnNotification(entity.ReturnProcessed{ReturnID: "r", SaleNumber: "SALE-000007", ReturnAmount: d("12")})
	assert.Equal(t, entity.NotificationReturn, ret.Type)
	assert.Equal(t, "Return processed for Sale #SALE-000007, amount: 12.00", ret.Message)

	ex := entity.NewExchangeNotification(entity.ExchangeProcessed{ExchangeID: "e", SaleNumber: "SALE-000007"})
	assert.Equal(t, entity.NotificationExchange, ex.Type)
	assert.Equal(t, "Exchange processed for Sale #SALE-000007", ex.Message)
	assert.Equal(t, "e", ex.Metadata["exchangeId"])
}

func TestStockDeltaChange(t *testing.T) {
	assert.True(t, d("-4").Equal(entity.StockDelta{PreviousQty: d("1"), NewQty: d("-3")}.Change()))
}

func TestScaleChecks(t *testing.T) {
	assert.NoError(t, entity.CheckQuantityScale(d("1.125")))
	assert.NoError(t, entity.CheckQuantityScale(d("2.5000")), "ceros a la derecha no cuentan")
	assert.ErrorIs(t, entity.CheckQuantityScale(d("0.0005")), domain.ErrInvalidQuantity)

	assert.NoError(t, entity.CheckMoneyScale(d("12.50")))
	assert.ErrorIs(t, entity.CheckMoneyScale(d("0.005")), domain.ErrInvalidInput)

	assert.NoError(t, entity.CheckCostScale(d("1.2345")))
	assert.ErrorIs(t, entity.CheckCostScale(d("1.23456")), domain.ErrInvalidInput)
}

func TestLineTotal_RedondeaADosDecimales(t *testing.T) {
	assert.True(t, d("0.33").Equal(entity.LineTotal(d("0.99"), d("0.333"))))
	assert.True(t, d("0.01").Equal(entity.LineTotal(d("0.01"), d("0.5"))), "mitad se aleja de cero")
	assert.True(t, d("36").Equal(entity.LineTotal(d("12"), d("3"))))
}

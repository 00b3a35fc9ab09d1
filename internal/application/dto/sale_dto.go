package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	BranchID      string            `json:"branch_id" validate:"required,uuid"`
	CustomerID    string            `json:"customer_id,omitempty" validate:"omitempty,uuid"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=CASH CARD MOBILE_MONEY BANK_TRANSFER CREDIT"`
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// SaleItemRequest línea del carrito.
type SaleItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// ReturnExchangeRequest body para POST /api/sales/:id/returns.
type ReturnExchangeRequest struct {
	OriginalSaleID string                `json:"-"`
	BranchID       string                `json:"branch_id" validate:"required,uuid"`
	CustomerID     string                `json:"customer_id,omitempty" validate:"omitempty,uuid"`
	ReturnedItems  []ReturnItemRequest   `json:"returned_items" validate:"dive"`
	ExchangedItems []ExchangeItemRequest `json:"exchanged_items" validate:"dive"`
}

// ReturnItemRequest producto devuelto.
type ReturnItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ExchangeItemRequest producto entregado en cambio.
type ExchangeItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// SaleResponse venta con sus líneas.
type SaleResponse struct {
	ID             string             `json:"id"`
	SaleNumber     string             `json:"sale_number"`
	BranchID       string             `json:"branch_id"`
	CustomerID     string             `json:"customer_id,omitempty"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	PaymentMethod  string             `json:"payment_method"`
	PaymentStatus  string             `json:"payment_status"`
	Status         string             `json:"status"`
	OriginalSaleID string             `json:"original_sale_id,omitempty"`
	CreatedBy      string             `json:"created_by"`
	SaleDate       time.Time          `json:"sale_date"`
	Items          []SaleItemResponse `json:"items"`
}

// SaleItemResponse línea de venta.
type SaleItemResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	LineTotal     decimal.Decimal `json:"line_total"`
	ItemType      string          `json:"item_type"`
	RefSaleItemID string          `json:"ref_sale_item_id,omitempty"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	DiscountRate  decimal.Decimal `json:"discount_rate"`
}

// RecentItemResponse producto de la última venta (nombre y precio).
type RecentItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateStockRequest body para POST /api/stock (ingreso por compra).
type CreateStockRequest struct {
	ProductID   string           `json:"product_id" validate:"required,uuid"`
	BranchID    string           `json:"branch_id" validate:"required,uuid"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceID string           `json:"reference_id,omitempty" validate:"max=100"` // orden de compra, remisión
	Notes       string           `json:"notes,omitempty" validate:"max=500"`
}

// AdjustStockRequest body para POST /api/stock/adjust.
type AdjustStockRequest struct {
	ProductID      string          `json:"product_id" validate:"required,uuid"`
	BranchID       string          `json:"branch_id" validate:"required,uuid"`
	QuantityChange decimal.Decimal `json:"quantity_change"`
	Reason         string          `json:"reason,omitempty" validate:"max=500"`
}

// RemoveStockRequest body para POST /api/stock/remove.
type RemoveStockRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	BranchID  string          `json:"branch_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason,omitempty" validate:"max=500"`
}

// TransferStockRequest body para POST /api/stock/transfer.
type TransferStockRequest struct {
	ProductID    string          `json:"product_id" validate:"required,uuid"`
	FromBranchID string          `json:"from_branch_id" validate:"required,uuid"`
	ToBranchID   string          `json:"to_branch_id" validate:"required,uuid"`
	Quantity     decimal.Decimal `json:"quantity"`
	Notes        string          `json:"notes,omitempty" validate:"max=500"`
}

// StockChangeResponse resultado de compra, ajuste o baja.
type StockChangeResponse struct {
	ProductID   string          `json:"product_id"`
	BranchID    string          `json:"branch_id"`
	MovementID  string          `json:"movement_id"`
	PreviousQty decimal.Decimal `json:"previous_qty"`
	NewQty      decimal.Decimal `json:"new_qty"`
}

// BranchQty cantidad resultante en una sucursal.
type BranchQty struct {
	BranchID string          `json:"branch_id"`
	NewQty   decimal.Decimal `json:"new_qty"`
}

// TransferResponse resultado de un traslado.
type TransferResponse struct {
	TransferID string    `json:"transfer_id"`
	FromBranch BranchQty `json:"from_branch"`
	ToBranch   BranchQty `json:"to_branch"`
}

// StockResponse fila de stock en listados.
type StockResponse struct {
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name"`
	SKU              string          `json:"sku"`
	BranchID         string          `json:"branch_id"`
	BranchName       string          `json:"branch_name"`
	CurrentQuantity  decimal.Decimal `json:"current_quantity"`
	MinimumQuantity  decimal.Decimal `json:"minimum_quantity"`
	MaximumQuantity  decimal.Decimal `json:"maximum_quantity"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity"`
	LastUpdated      time.Time       `json:"last_updated"`
}

// StockListResponse página de stock con metadatos.
type StockListResponse struct {
	Data []StockResponse `json:"data"`
	Meta PageMeta        `json:"meta"`
}

// MovementResponse movimiento del ledger.
type MovementResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name,omitempty"`
	BranchID       string          `json:"branch_id"`
	BranchName     string          `json:"branch_name,omitempty"`
	MovementType   string          `json:"movement_type"`
	QuantityChange decimal.Decimal `json:"quantity_change"`
	PreviousQty    decimal.Decimal `json:"previous_qty"`
	NewQty         decimal.Decimal `json:"new_qty"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	ReferenceType  string          `json:"reference_type,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// MovementListResponse página de movimientos por cursor.
type MovementListResponse struct {
	Data       []MovementResponse `json:"data"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un producto en o bajo su mínimo.
type ReplenishmentSuggestionDTO struct {
	ProductID           string          `json:"product_id"`
	SKU                 string          `json:"sku"`
	ProductName         string          `json:"product_name"`
	CurrentStock        decimal.Decimal `json:"current_stock"`
	MinimumQuantity     decimal.Decimal `json:"minimum_quantity"`
	MaximumQuantity     decimal.Decimal `json:"maximum_quantity"`
	SuggestedOrderQty   decimal.Decimal `json:"suggested_order_qty"`  // MaximumQuantity - CurrentStock
	UnitCost            decimal.Decimal `json:"unit_cost"`            // costo promedio ponderado
	EstimatedOrderCost  decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	UnitsSoldLast90Days decimal.Decimal `json:"units_sold_last_90d"`
	Priority            int             `json:"priority"` // 1 = más urgente
}

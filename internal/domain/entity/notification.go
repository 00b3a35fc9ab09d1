package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// NotificationType categoría funcional de la notificación.
type NotificationType string

const (
	NotificationStock    NotificationType = "STOCK"
	NotificationReturn   NotificationType = "RETURN"
	NotificationExchange NotificationType = "EXCHANGE"
)

// NotificationPriority prioridad visible en el panel.
type NotificationPriority string

const (
	PriorityMedium   NotificationPriority = "MEDIUM"
	PriorityHigh     NotificationPriority = "HIGH"
	PriorityCritical NotificationPriority = "CRITICAL"
)

// Notification aviso generado después de un commit (stock bajo, devolución, cambio).
type Notification struct {
	ID        string
	Type      NotificationType
	Priority  NotificationPriority
	Title     string
	Message   string
	Category  string
	BranchID  string
	UserID    string
	Metadata  map[string]any
	IsRead    bool
	CreatedAt time.Time
}

// LowStockAlert datos del aviso de stock bajo o agotado.
type LowStockAlert struct {
	ProductID    string
	ProductName  string
	CurrentStock decimal.Decimal
	MinStock     decimal.Decimal
	BranchID     string
}

// ReturnProcessed datos del aviso de devolución.
type ReturnProcessed struct {
	ReturnID     string
	SaleNumber   string // número de la venta original
	ReturnAmount decimal.Decimal
	BranchID     string
	UserID       string
}

// ExchangeProcessed datos del aviso de cambio.
type ExchangeProcessed struct {
	ExchangeID string
	SaleNumber string
	BranchID   string
	UserID     string
}

// NewLowStockNotification construye el aviso; stock <= 0 se reporta como agotado.
func NewLowStockNotification(a LowStockAlert) Notification {
	n := Notification{
		Type:     NotificationStock,
		Priority: PriorityHigh,
		Title:    "Low Stock Alert",
		Message: fmt.Sprintf("%s is running low (%s units remaining, minimum: %s)",
			a.ProductName, a.CurrentStock.String(), a.MinStock.String()),
		Category: "inventory",
		BranchID: a.BranchID,
		Metadata: map[string]any{
			"productId":    a.ProductID,
			"productName":  a.ProductName,
			"currentStock": a.CurrentStock.String(),
			"minStock":     a.MinStock.String(),
		},
	}
	if !a.CurrentStock.IsPositive() {
		n.Priority = PriorityCritical
		n.Title = "Product Out of Stock"
		n.Message = a.ProductName + " is out of stock"
	}
	return n
}

// NewReturnNotification construye el aviso de devolución procesada.
func NewReturnNotification(r ReturnProcessed) Notification {
	return Notification{
		Type:     NotificationReturn,
		Priority: PriorityMedium,
		Title:    "Return Processed",
		Message:  fmt.Sprintf("Return processed for Sale #%s, amount: %s", r.SaleNumber, r.ReturnAmount.StringFixed(2)),
		Category: "returns",
		BranchID: r.BranchID,
		UserID:   r.UserID,
		Metadata: map[string]any{
			"returnId":     r.ReturnID,
			"saleNumber":   r.SaleNumber,
			"returnAmount": r.ReturnAmount.StringFixed(2),
		},
	}
}

// NewExchangeNotification construye el aviso de cambio procesado.
func NewExchangeNotification(e ExchangeProcessed) Notification {
	return Notification{
		Type:     NotificationExchange,
		Priority: PriorityMedium,
		Title:    "Exchange Processed",
		Message:  "Exchange processed for Sale #" + e.SaleNumber,
		Category: "exchanges",
		BranchID: e.BranchID,
		UserID:   e.UserID,
		Metadata: map[string]any{
			"exchangeId": e.ExchangeID,
			"saleNumber": e.SaleNumber,
		},
	}
}

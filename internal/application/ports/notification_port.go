package ports

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// NotificationSink define el puerto de salida para los avisos posteriores al commit.
// Cualquier adaptador (cola Redis, inserción directa, log) debe implementar esta interfaz.
// Los casos de uso sólo lo invocan después de un commit exitoso; un error aquí se registra
// y se descarta, nunca revierte la operación.
type NotificationSink interface {
	NotifyLowStock(ctx context.Context, alert entity.LowStockAlert) error
	NotifyReturnProcessed(ctx context.Context, ev entity.ReturnProcessed) error
	NotifyExchangeProcessed(ctx context.Context, ev entity.ExchangeProcessed) error
}

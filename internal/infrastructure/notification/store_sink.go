package notification

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ ports.NotificationSink = (*StoreSink)(nil)

// StoreSink persiste la notificación en el mismo request. Se usa cuando no hay Redis configurado.
type StoreSink struct {
	repo repository.NotificationRepository
}

// NewStoreSink construye el sink directo.
func NewStoreSink(repo repository.NotificationRepository) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) NotifyLowStock(ctx context.Context, alert entity.LowStockAlert) error {
	n := entity.NewLowStockNotification(alert)
	return s.repo.Create(ctx, &n)
}

func (s *StoreSink) NotifyReturnProcessed(ctx context.Context, ev entity.ReturnProcessed) error {
	n := entity.NewReturnNotification(ev)
	return s.repo.Create(ctx, &n)
}

func (s *StoreSink) NotifyExchangeProcessed(ctx context.Context, ev entity.ExchangeProcessed) error {
	n := entity.NewExchangeNotification(ev)
	return s.repo.Create(ctx, &n)
}

package repository

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// NotificationFilter filtros del panel de notificaciones.
type NotificationFilter struct {
	BranchID   string
	UnreadOnly bool
	Limit      int
	Offset     int
}

// NotificationRepository persistencia de notificaciones entregadas por el worker.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	List(ctx context.Context, f NotificationFilter) ([]*entity.Notification, error)
}

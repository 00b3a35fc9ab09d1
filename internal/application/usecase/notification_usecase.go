package usecase

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// NotificationUseCase lectura del panel de notificaciones.
type NotificationUseCase struct {
	repo repository.NotificationRepository
}

// NewNotificationUseCase construye el caso de uso.
func NewNotificationUseCase(repo repository.NotificationRepository) *NotificationUseCase {
	return &NotificationUseCase{repo: repo}
}

// List notificaciones de la sucursal (vacía = todas), más recientes primero.
func (uc *NotificationUseCase) List(ctx context.Context, branchID string, unreadOnly bool, page dto.PageRequest) ([]dto.NotificationResponse, error) {
	page.DefaultPage()
	rows, err := uc.repo.List(ctx, repository.NotificationFilter{
		BranchID:   branchID,
		UnreadOnly: unreadOnly,
		Limit:      page.Limit,
		Offset:     page.Offset(),
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.NotificationResponse, 0, len(rows))
	for _, n := range rows {
		out = append(out, toNotificationResponse(n))
	}
	return out, nil
}

func toNotificationResponse(n *entity.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Priority:  string(n.Priority),
		Title:     n.Title,
		Message:   n.Message,
		Category:  n.Category,
		BranchID:  n.BranchID,
		Metadata:  n.Metadata,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

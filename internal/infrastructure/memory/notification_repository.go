package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepository)(nil)

// NotificationRepository notificaciones en memoria.
type NotificationRepository struct{ base }

// NewNotificationRepository repo fuera de transacción.
func NewNotificationRepository(s *Store) *NotificationRepository {
	return &NotificationRepository{base{s: s}}
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	r.with(func(st *state) {
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = r.s.clock()
		}
		st.notifications = append(st.notifications, *n)
	})
	return nil
}

// List más recientes primero.
func (r *NotificationRepository) List(ctx context.Context, f repository.NotificationFilter) ([]*entity.Notification, error) {
	var rows []*entity.Notification
	r.with(func(st *state) {
		for i := len(st.notifications) - 1; i >= 0; i-- {
			n := st.notifications[i]
			if f.BranchID != "" && n.BranchID != f.BranchID {
				continue
			}
			if f.UnreadOnly && n.IsRead {
				continue
			}
			rows = append(rows, &n)
		}
	})
	if f.Offset >= len(rows) {
		return []*entity.Notification{}, nil
	}
	rows = rows[f.Offset:]
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	return rows, nil
}

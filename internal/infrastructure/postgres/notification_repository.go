package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

// NotificationRepo persistencia de notificaciones (tabla notifications).
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository construye el adaptador.
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

// Create inserta la notificación; asigna id y created_at si faltan.
func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	query := `
		INSERT INTO notifications (id, type, priority, title, message, category, branch_id, user_id, metadata, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, NULLIF($8, ''), $9, $10)
		RETURNING created_at`
	err := r.q.QueryRow(ctx, query,
		n.ID, string(n.Type), string(n.Priority), n.Title, n.Message, n.Category,
		n.BranchID, n.UserID, n.Metadata, n.IsRead,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// List notificaciones más recientes primero.
func (r *NotificationRepo) List(ctx context.Context, f repository.NotificationFilter) ([]*entity.Notification, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, type, priority, title, message, COALESCE(category, ''), COALESCE(branch_id::text, ''),
		       COALESCE(user_id, ''), metadata, is_read, created_at
		FROM notifications
		WHERE ($1 = '' OR branch_id::text = $1)
		  AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, f.BranchID, f.UnreadOnly, limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.Notification, 0)
	for rows.Next() {
		var n entity.Notification
		var typ, priority string
		if err := rows.Scan(&n.ID, &typ, &priority, &n.Title, &n.Message, &n.Category, &n.BranchID,
			&n.UserID, &n.Metadata, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = entity.NotificationType(typ)
		n.Priority = entity.NotificationPriority(priority)
		list = append(list, &n)
	}
	return list, rows.Err()
}

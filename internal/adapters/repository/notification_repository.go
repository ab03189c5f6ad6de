package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
	"github.com/taskmaster/kanban/internal/ports"
)

const notificationColumns = `id, recipient_id, actor_id, task_id, board_id, message, is_read, created_at`

// NotificationRepositoryImpl implements the NotificationRepository interface
type NotificationRepositoryImpl struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) ports.NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, n *entities.Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, actor_id, task_id, board_id, message, is_read)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		n.RecipientID, n.ActorID, n.TaskID, n.BoardID, n.Message, n.IsRead,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id = $1`, notificationColumns)

	var n entities.Notification
	if err := r.db.Conn(ctx).GetContext(ctx, &n, query, id); err != nil {
		return nil, notFound(err, entities.ErrNotificationNotFound, "get notification by id")
	}
	return &n, nil
}

// ListForRecipient returns newest first. A zero Limit means no limit.
func (r *NotificationRepositoryImpl) ListForRecipient(ctx context.Context, userID uuid.UUID, filter ports.NotificationFilter) ([]*entities.Notification, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE recipient_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC, id DESC
		OFFSET $3`, notificationColumns)
	args := []interface{}{userID, filter.UnreadOnly, filter.Offset}
	if filter.Limit > 0 {
		query += ` LIMIT $4`
		args = append(args, filter.Limit)
	}

	var out []*entities.Notification
	if err := r.db.Conn(ctx).SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (r *NotificationRepositoryImpl) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.Conn(ctx).GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, id int64) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return mustAffect(res, entities.ErrNotificationNotFound, "mark notification read")
}

func (r *NotificationRepositoryImpl) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return n, nil
}

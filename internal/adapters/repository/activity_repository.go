package repository

import (
	"context"
	"fmt"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
	"github.com/taskmaster/kanban/internal/ports"
)

// ActivityRepositoryImpl implements the ActivityRepository interface
type ActivityRepositoryImpl struct {
	db *database.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.DB) ports.ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

func (r *ActivityRepositoryImpl) Create(ctx context.Context, entry *entities.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (board_id, actor_id, action, detail)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query, entry.BoardID, entry.ActorID, entry.Action, entry.Detail).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("create activity log: %w", err)
	}
	return nil
}

func (r *ActivityRepositoryImpl) ListByBoard(ctx context.Context, boardID int64, limit int) ([]*entities.ActivityLog, error) {
	var out []*entities.ActivityLog
	err := r.db.Conn(ctx).SelectContext(ctx, &out, `
		SELECT id, board_id, actor_id, action, detail, created_at FROM activity_logs
		WHERE board_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, boardID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return out, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/domain/ordering"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
	"github.com/taskmaster/kanban/internal/ports"
)

// ListRepositoryImpl implements the ListRepository interface
type ListRepositoryImpl struct {
	db *database.DB
}

// NewListRepository creates a new list repository
func NewListRepository(db *database.DB) ports.ListRepository {
	return &ListRepositoryImpl{db: db}
}

func (r *ListRepositoryImpl) Create(ctx context.Context, list *entities.List) error {
	query := `
		INSERT INTO lists (board_id, title, position)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query, list.BoardID, list.Title, list.Position).
		Scan(&list.ID, &list.CreatedAt, &list.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create list: %w", err)
	}
	return nil
}

func (r *ListRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.List, error) {
	query := `
		SELECT id, board_id, title, position, created_at, updated_at
		FROM lists
		WHERE id = $1`

	var list entities.List
	if err := r.db.Conn(ctx).GetContext(ctx, &list, query, id); err != nil {
		return nil, notFound(err, entities.ErrListNotFound, "get list by id")
	}
	return &list, nil
}

// Update only touches the title; positions move through UpdatePositions.
func (r *ListRepositoryImpl) Update(ctx context.Context, list *entities.List) error {
	query := `
		UPDATE lists SET title = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING updated_at`

	if err := r.db.Conn(ctx).QueryRowxContext(ctx, query, list.Title, list.ID).Scan(&list.UpdatedAt); err != nil {
		return notFound(err, entities.ErrListNotFound, "update list")
	}
	return nil
}

func (r *ListRepositoryImpl) Delete(ctx context.Context, id int64) error {
	return cascadeDelete(ctx, r.db, "lists", listDeleteRules, id, entities.ErrListNotFound)
}

func (r *ListRepositoryImpl) ListByBoard(ctx context.Context, boardID int64) ([]*entities.List, error) {
	query := `
		SELECT id, board_id, title, position, created_at, updated_at
		FROM lists
		WHERE board_id = $1
		ORDER BY position, id`

	var lists []*entities.List
	if err := r.db.Conn(ctx).SelectContext(ctx, &lists, query, boardID); err != nil {
		return nil, fmt.Errorf("list lists by board: %w", err)
	}
	return lists, nil
}

func (r *ListRepositoryImpl) Slots(ctx context.Context, boardID int64) ([]ordering.Slot, error) {
	out, err := slots(ctx, r.db, `SELECT id, position FROM lists WHERE board_id = $1 ORDER BY position, id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return out, nil
}

func (r *ListRepositoryImpl) MaxPosition(ctx context.Context, boardID int64) (int, error) {
	var last int
	err := r.db.Conn(ctx).GetContext(ctx, &last,
		`SELECT COALESCE(MAX(position), 0) FROM lists WHERE board_id = $1`, boardID)
	if err != nil {
		return 0, fmt.Errorf("max list position: %w", err)
	}
	return last, nil
}

func (r *ListRepositoryImpl) UpdatePositions(ctx context.Context, changes []ordering.Change) error {
	return updatePositions(ctx, r.db, "lists", changes)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/domain/ordering"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/infrastructure/metrics"
	"github.com/taskmaster/kanban/internal/ports"
)

// ListService handles list operations and list reordering within a board.
type ListService struct {
	tx       ports.Transactor
	lists    ports.ListRepository
	activity ports.ActivityRepository
	access   access
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewListService creates a new list service
func NewListService(
	tx ports.Transactor,
	boards ports.BoardRepository,
	lists ports.ListRepository,
	tasks ports.TaskRepository,
	activity ports.ActivityRepository,
	m *metrics.Metrics,
	logger *logger.Logger,
) *ListService {
	return &ListService{
		tx:       tx,
		lists:    lists,
		activity: activity,
		access:   access{boards: boards, lists: lists, tasks: tasks},
		metrics:  m,
		logger:   logger,
	}
}

// CreateList appends a list after the last one on the board.
func (s *ListService) CreateList(ctx context.Context, actor uuid.UUID, boardID int64, req ports.CreateListRequest) (*entities.List, error) {
	title, err := requireText("title", req.Title)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.board(ctx, actor, boardID); err != nil {
		return nil, err
	}

	now := time.Now()
	list := &entities.List{
		BoardID:   boardID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		last, err := s.lists.MaxPosition(ctx, boardID)
		if err != nil {
			return fmt.Errorf("failed to get last position: %w", err)
		}
		list.Position = last + 1
		if err := s.lists.Create(ctx, list); err != nil {
			return fmt.Errorf("failed to create list: %w", err)
		}
		return logActivity(ctx, s.activity, boardID, actor, ActionListCreated, list.Title)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("List created", "list_id", list.ID, "board_id", boardID, "position", list.Position)
	return list, nil
}

// UpdateList renames a list.
func (s *ListService) UpdateList(ctx context.Context, actor uuid.UUID, listID int64, req ports.UpdateListRequest) (*entities.List, error) {
	title, err := requireText("title", req.Title)
	if err != nil {
		return nil, err
	}
	list, _, err := s.access.list(ctx, actor, listID)
	if err != nil {
		return nil, err
	}

	list.Title = title
	list.UpdatedAt = time.Now()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lists.Update(ctx, list); err != nil {
			return fmt.Errorf("failed to update list: %w", err)
		}
		return logActivity(ctx, s.activity, list.BoardID, actor, ActionListRenamed, list.Title)
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteList removes the list and its tasks, then closes the gap it left.
func (s *ListService) DeleteList(ctx context.Context, actor uuid.UUID, listID int64) error {
	list, _, err := s.access.list(ctx, actor, listID)
	if err != nil {
		return err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lists.Delete(ctx, listID); err != nil {
			return fmt.Errorf("failed to delete list: %w", err)
		}
		if err := s.compact(ctx, list.BoardID); err != nil {
			return err
		}
		return logActivity(ctx, s.activity, list.BoardID, actor, ActionListDeleted, list.Title)
	})
	if err != nil {
		return err
	}

	s.logger.Infow("List deleted", "list_id", listID, "board_id", list.BoardID)
	return nil
}

// ReorderList moves req.ListID to sit immediately before req.TargetID and
// re-ranks the board's lists from 1. Only rows whose position changed are
// written. The board's lists are returned in their new order.
func (s *ListService) ReorderList(ctx context.Context, actor uuid.UUID, boardID int64, req ports.ReorderListRequest) ([]*entities.List, error) {
	if req.ListID == 0 {
		return nil, entities.Required("list_id")
	}
	if req.TargetID == 0 {
		return nil, entities.Required("target_id")
	}
	if _, err := s.access.board(ctx, actor, boardID); err != nil {
		return nil, err
	}

	var written int
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		slots, err := s.lists.Slots(ctx, boardID)
		if err != nil {
			return fmt.Errorf("failed to get list positions: %w", err)
		}

		order, err := ordering.InsertBefore(ordering.IDs(slots), req.ListID, req.TargetID)
		if err != nil {
			if errors.Is(err, ordering.ErrUnknownSibling) {
				return fmt.Errorf("%w (%v)", entities.ErrListNotFound, err)
			}
			return err
		}

		changes, err := ordering.Plan(slots, order)
		if err != nil {
			return fmt.Errorf("%w (%v)", entities.ErrListNotFound, err)
		}
		if len(changes) == 0 {
			return nil
		}

		if err := s.lists.UpdatePositions(ctx, changes); err != nil {
			return fmt.Errorf("failed to update list positions: %w", err)
		}
		written = len(changes)
		return logActivity(ctx, s.activity, boardID, actor, ActionListReordered, fmt.Sprintf("list %d moved before list %d", req.ListID, req.TargetID))
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddPositionWrites("list", written)
	s.logger.Infow("Lists reordered", "board_id", boardID, "list_id", req.ListID, "target_id", req.TargetID, "writes", written)

	lists, err := s.lists.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lists: %w", err)
	}
	return lists, nil
}

func (s *ListService) compact(ctx context.Context, boardID int64) error {
	slots, err := s.lists.Slots(ctx, boardID)
	if err != nil {
		return fmt.Errorf("failed to get list positions: %w", err)
	}
	changes := ordering.Compact(slots)
	if len(changes) == 0 {
		return nil
	}
	if err := s.lists.UpdatePositions(ctx, changes); err != nil {
		return fmt.Errorf("failed to update list positions: %w", err)
	}
	s.metrics.AddPositionWrites("list", len(changes))
	return nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// BoardService handles board-related operations
type BoardService struct {
	tx       ports.Transactor
	boards   ports.BoardRepository
	lists    ports.ListRepository
	tasks    ports.TaskRepository
	users    ports.UserRepository
	activity ports.ActivityRepository
	access   access
	logger   *logger.Logger
}

// NewBoardService creates a new board service
func NewBoardService(
	tx ports.Transactor,
	boards ports.BoardRepository,
	lists ports.ListRepository,
	tasks ports.TaskRepository,
	users ports.UserRepository,
	activity ports.ActivityRepository,
	logger *logger.Logger,
) *BoardService {
	return &BoardService{
		tx:       tx,
		boards:   boards,
		lists:    lists,
		tasks:    tasks,
		users:    users,
		activity: activity,
		access:   access{boards: boards, lists: lists, tasks: tasks},
		logger:   logger,
	}
}

// CreateBoard creates a board owned by actor and seeds its default lists.
func (s *BoardService) CreateBoard(ctx context.Context, actor uuid.UUID, req ports.CreateBoardRequest) (*entities.Board, error) {
	name, err := requireText("name", req.Name)
	if err != nil {
		return nil, err
	}
	webhook, err := normalizeURL("webhook_url", req.WebhookURL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	board := &entities.Board{
		Name:        name,
		Description: req.Description,
		OwnerID:     actor,
		WebhookURL:  webhook,
		Members:     []uuid.UUID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.boards.Create(ctx, board); err != nil {
			return fmt.Errorf("failed to create board: %w", err)
		}
		for i, title := range entities.DefaultListTitles {
			list := &entities.List{
				BoardID:   board.ID,
				Title:     title,
				Position:  i + 1,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.lists.Create(ctx, list); err != nil {
				return fmt.Errorf("failed to create default list: %w", err)
			}
			board.Lists = append(board.Lists, *list)
		}
		return logActivity(ctx, s.activity, board.ID, actor, ActionBoardCreated, board.Name)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Board created", "board_id", board.ID, "owner_id", actor)
	return board, nil
}

// GetBoard returns the board with its lists in order, each holding its
// non-archived tasks in order.
func (s *BoardService) GetBoard(ctx context.Context, actor uuid.UUID, id int64) (*entities.Board, error) {
	board, err := s.access.board(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	lists, err := s.lists.ListByBoard(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get lists: %w", err)
	}

	board.Lists = make([]entities.List, 0, len(lists))
	for _, list := range lists {
		tasks, err := s.tasks.ListByList(ctx, list.ID, false)
		if err != nil {
			return nil, fmt.Errorf("failed to get tasks: %w", err)
		}
		list.Tasks = make([]entities.Task, 0, len(tasks))
		for _, t := range tasks {
			list.Tasks = append(list.Tasks, *t)
		}
		board.Lists = append(board.Lists, *list)
	}

	starred, err := s.boards.IsStarred(ctx, id, actor)
	if err != nil {
		return nil, fmt.Errorf("failed to get star: %w", err)
	}
	board.IsStarred = starred

	return board, nil
}

// ListBoards returns the boards the actor owns or has joined.
func (s *BoardService) ListBoards(ctx context.Context, actor uuid.UUID) ([]*entities.Board, error) {
	boards, err := s.boards.ListForUser(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return boards, nil
}

// UpdateBoard changes board settings. Owner only.
func (s *BoardService) UpdateBoard(ctx context.Context, actor uuid.UUID, id int64, req ports.UpdateBoardRequest) (*entities.Board, error) {
	board, err := s.access.ownedBoard(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name, err := requireText("name", *req.Name)
		if err != nil {
			return nil, err
		}
		board.Name = name
	}
	if req.Description != nil {
		board.Description = req.Description
	}
	if req.WebhookURL != nil {
		webhook, err := normalizeURL("webhook_url", req.WebhookURL)
		if err != nil {
			return nil, err
		}
		board.WebhookURL = webhook
	}
	board.UpdatedAt = time.Now()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.boards.Update(ctx, board); err != nil {
			return fmt.Errorf("failed to update board: %w", err)
		}
		return logActivity(ctx, s.activity, board.ID, actor, ActionBoardUpdated, board.Name)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Board updated", "board_id", board.ID)
	return board, nil
}

// DeleteBoard removes the board and everything under it. Owner only.
func (s *BoardService) DeleteBoard(ctx context.Context, actor uuid.UUID, id int64) error {
	if _, err := s.access.ownedBoard(ctx, actor, id); err != nil {
		return err
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.boards.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}

	s.logger.Infow("Board deleted", "board_id", id, "user_id", actor)
	return nil
}

func (s *BoardService) StarBoard(ctx context.Context, actor uuid.UUID, id int64, starred bool) error {
	if _, err := s.access.board(ctx, actor, id); err != nil {
		return err
	}
	if err := s.boards.SetStarred(ctx, id, actor, starred); err != nil {
		return fmt.Errorf("failed to update star: %w", err)
	}
	return nil
}

// ListMembers returns the owner first, then the members.
func (s *BoardService) ListMembers(ctx context.Context, actor uuid.UUID, id int64) ([]*entities.User, error) {
	board, err := s.access.board(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	participants := board.Participants()
	users, err := s.users.GetByIDs(ctx, participants)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	byID := make(map[uuid.UUID]*entities.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]*entities.User, 0, len(participants))
	for _, id := range participants {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// RemoveMember takes userID off the board. The owner may remove anyone but
// themselves; a member may only remove themselves.
func (s *BoardService) RemoveMember(ctx context.Context, actor uuid.UUID, boardID int64, userID uuid.UUID) error {
	board, err := s.access.board(ctx, actor, boardID)
	if err != nil {
		return err
	}
	if board.IsOwner(userID) {
		return entities.ErrOwnerNotRemovable
	}
	if !board.IsOwner(actor) && actor != userID {
		return entities.ErrNotBoardOwner
	}
	if !board.IsMember(userID) {
		return entities.ErrMemberNotFound
	}

	action := ActionMemberRemoved
	if actor == userID {
		action = ActionMemberLeft
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.boards.RemoveMember(ctx, boardID, userID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		return logActivity(ctx, s.activity, boardID, actor, action, userID.String())
	})
	if err != nil {
		return err
	}

	s.logger.Infow("Board member removed", "board_id", boardID, "member_id", userID, "user_id", actor)
	return nil
}

// ListActivity returns the newest log entries first.
func (s *BoardService) ListActivity(ctx context.Context, actor uuid.UUID, boardID int64, limit int) ([]*entities.ActivityLog, error) {
	if _, err := s.access.board(ctx, actor, boardID); err != nil {
		return nil, err
	}
	entries, err := s.activity.ListByBoard(ctx, boardID, clampLimit(limit, 50, 200))
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return entries, nil
}

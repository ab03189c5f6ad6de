package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/ports"
)

// Activity actions written to the board log.
const (
	ActionBoardCreated  = "board.created"
	ActionBoardUpdated  = "board.updated"
	ActionListCreated   = "list.created"
	ActionListRenamed   = "list.renamed"
	ActionListDeleted   = "list.deleted"
	ActionListReordered = "list.reordered"
	ActionTaskCreated   = "task.created"
	ActionTaskUpdated   = "task.updated"
	ActionTaskDeleted   = "task.deleted"
	ActionTaskMoved     = "task.moved"
	ActionCommentAdded  = "comment.added"
	ActionMemberJoined  = "member.joined"
	ActionMemberLeft    = "member.left"
	ActionMemberRemoved = "member.removed"
)

// access resolves entities together with the board that scopes them and
// checks the caller against that board.
type access struct {
	boards ports.BoardRepository
	lists  ports.ListRepository
	tasks  ports.TaskRepository
}

func (a access) board(ctx context.Context, actor uuid.UUID, boardID int64) (*entities.Board, error) {
	board, err := a.boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	if !board.HasAccess(actor) {
		return nil, entities.ErrNotBoardMember
	}
	return board, nil
}

func (a access) ownedBoard(ctx context.Context, actor uuid.UUID, boardID int64) (*entities.Board, error) {
	board, err := a.board(ctx, actor, boardID)
	if err != nil {
		return nil, err
	}
	if !board.IsOwner(actor) {
		return nil, entities.ErrNotBoardOwner
	}
	return board, nil
}

func (a access) list(ctx context.Context, actor uuid.UUID, listID int64) (*entities.List, *entities.Board, error) {
	list, err := a.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get list: %w", err)
	}
	board, err := a.board(ctx, actor, list.BoardID)
	if err != nil {
		return nil, nil, err
	}
	return list, board, nil
}

func (a access) task(ctx context.Context, actor uuid.UUID, taskID int64) (*entities.Task, *entities.List, *entities.Board, error) {
	task, err := a.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get task: %w", err)
	}
	list, board, err := a.list(ctx, actor, task.ListID)
	if err != nil {
		return nil, nil, nil, err
	}
	return task, list, board, nil
}

func logActivity(ctx context.Context, repo ports.ActivityRepository, boardID int64, actor uuid.UUID, action, detail string) error {
	entry := &entities.ActivityLog{
		BoardID:   boardID,
		ActorID:   actor,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// requireText trims value and fails with a ValidationError naming field when
// nothing is left.
func requireText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", entities.Required(field)
	}
	return value, nil
}

// normalizeURL returns nil for an empty value and rejects anything that is
// not an absolute http(s) URL.
func normalizeURL(field string, raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil, nil
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, entities.Invalid(field, "must be an http or https URL")
	}
	return &value, nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

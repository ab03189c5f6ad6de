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

// CommentService handles comments on tasks
type CommentService struct {
	tx       ports.Transactor
	comments ports.CommentRepository
	activity ports.ActivityRepository
	notifier ports.Notifier
	access   access
	logger   *logger.Logger
}

// NewCommentService creates a new comment service
func NewCommentService(
	tx ports.Transactor,
	boards ports.BoardRepository,
	lists ports.ListRepository,
	tasks ports.TaskRepository,
	comments ports.CommentRepository,
	activity ports.ActivityRepository,
	notifier ports.Notifier,
	logger *logger.Logger,
) *CommentService {
	return &CommentService{
		tx:       tx,
		comments: comments,
		activity: activity,
		notifier: notifier,
		access:   access{boards: boards, lists: lists, tasks: tasks},
		logger:   logger,
	}
}

// AddComment stores a comment and notifies the task's assignees other than
// the author.
func (s *CommentService) AddComment(ctx context.Context, actor uuid.UUID, taskID int64, req ports.CreateCommentRequest) (*entities.Comment, error) {
	body, err := requireText("body", req.Body)
	if err != nil {
		return nil, err
	}
	task, _, board, err := s.access.task(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	comment := &entities.Comment{
		TaskID:    task.ID,
		AuthorID:  actor,
		Body:      body,
		CreatedAt: time.Now(),
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.comments.Create(ctx, comment); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		return logActivity(ctx, s.activity, board.ID, actor, ActionCommentAdded, task.Title)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Comment added", "comment_id", comment.ID, "task_id", task.ID, "user_id", actor)

	s.notifier.CommentAdded(ctx, actor, board, task, comment)
	return comment, nil
}

// ListComments returns a task's comments oldest first.
func (s *CommentService) ListComments(ctx context.Context, actor uuid.UUID, taskID int64) ([]*entities.Comment, error) {
	if _, _, _, err := s.access.task(ctx, actor, taskID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	return comments, nil
}

// DeleteComment is allowed for the comment's author and the board owner.
func (s *CommentService) DeleteComment(ctx context.Context, actor uuid.UUID, id int64) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get comment: %w", err)
	}
	_, _, board, err := s.access.task(ctx, actor, comment.TaskID)
	if err != nil {
		return err
	}
	if comment.AuthorID != actor && !board.IsOwner(actor) {
		return entities.ErrNotCommentAuthor
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

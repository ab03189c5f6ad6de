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

// TaskItemService manages checklist items and attachments of a task.
type TaskItemService struct {
	tx          ports.Transactor
	checklist   ports.ChecklistRepository
	attachments ports.AttachmentRepository
	access      access
	logger      *logger.Logger
}

func NewTaskItemService(
	tx ports.Transactor,
	boards ports.BoardRepository,
	lists ports.ListRepository,
	tasks ports.TaskRepository,
	checklist ports.ChecklistRepository,
	attachments ports.AttachmentRepository,
	logger *logger.Logger,
) *TaskItemService {
	return &TaskItemService{
		tx:          tx,
		checklist:   checklist,
		attachments: attachments,
		access:      access{boards: boards, lists: lists, tasks: tasks},
		logger:      logger,
	}
}

func (s *TaskItemService) AddChecklistItem(ctx context.Context, actor uuid.UUID, taskID int64, req ports.CreateChecklistItemRequest) (*entities.ChecklistItem, error) {
	content, err := requireText("content", req.Content)
	if err != nil {
		return nil, err
	}
	if _, _, _, err := s.access.task(ctx, actor, taskID); err != nil {
		return nil, err
	}

	item := &entities.ChecklistItem{
		TaskID:    taskID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		last, err := s.checklist.MaxPosition(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to get last position: %w", err)
		}
		item.Position = last + 1
		if err := s.checklist.Create(ctx, item); err != nil {
			return fmt.Errorf("failed to create checklist item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *TaskItemService) UpdateChecklistItem(ctx context.Context, actor uuid.UUID, id int64, req ports.UpdateChecklistItemRequest) (*entities.ChecklistItem, error) {
	item, err := s.checklist.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get checklist item: %w", err)
	}
	if _, _, _, err := s.access.task(ctx, actor, item.TaskID); err != nil {
		return nil, err
	}

	if req.Content != nil {
		content, err := requireText("content", *req.Content)
		if err != nil {
			return nil, err
		}
		item.Content = content
	}
	if req.IsDone != nil {
		item.IsDone = *req.IsDone
	}

	if err := s.checklist.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update checklist item: %w", err)
	}
	return item, nil
}

func (s *TaskItemService) DeleteChecklistItem(ctx context.Context, actor uuid.UUID, id int64) error {
	item, err := s.checklist.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get checklist item: %w", err)
	}
	if _, _, _, err := s.access.task(ctx, actor, item.TaskID); err != nil {
		return err
	}
	if err := s.checklist.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete checklist item: %w", err)
	}
	return nil
}

// AddAttachment records a link to a file stored elsewhere.
func (s *TaskItemService) AddAttachment(ctx context.Context, actor uuid.UUID, taskID int64, req ports.CreateAttachmentRequest) (*entities.Attachment, error) {
	name, err := requireText("name", req.Name)
	if err != nil {
		return nil, err
	}
	url, err := normalizeURL("url", &req.URL)
	if err != nil {
		return nil, err
	}
	if url == nil {
		return nil, entities.Required("url")
	}
	if _, _, _, err := s.access.task(ctx, actor, taskID); err != nil {
		return nil, err
	}

	attachment := &entities.Attachment{
		TaskID:     taskID,
		UploaderID: actor,
		Name:       name,
		URL:        *url,
		CreatedAt:  time.Now(),
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}

	s.logger.Infow("Attachment added", "attachment_id", attachment.ID, "task_id", taskID, "user_id", actor)
	return attachment, nil
}

// DeleteAttachment is allowed for the uploader and the board owner.
func (s *TaskItemService) DeleteAttachment(ctx context.Context, actor uuid.UUID, id int64) error {
	attachment, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get attachment: %w", err)
	}
	_, _, board, err := s.access.task(ctx, actor, attachment.TaskID)
	if err != nil {
		return err
	}
	if attachment.UploaderID != actor && !board.IsOwner(actor) {
		return entities.ErrNotBoardOwner
	}
	if err := s.attachments.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

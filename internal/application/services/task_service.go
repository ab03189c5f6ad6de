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

// DefaultRemindDays is the lead time given to tasks created without one.
const DefaultRemindDays = 1

// TaskRepos groups the repositories the task service reads and writes.
type TaskRepos struct {
	Boards      ports.BoardRepository
	Lists       ports.ListRepository
	Tasks       ports.TaskRepository
	Labels      ports.LabelRepository
	Comments    ports.CommentRepository
	Checklist   ports.ChecklistRepository
	Attachments ports.AttachmentRepository
	Activity    ports.ActivityRepository
}

// TaskService handles task lifecycle, moves between lists and reordering
// within a list.
type TaskService struct {
	tx       ports.Transactor
	repos    TaskRepos
	notifier ports.Notifier
	access   access
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(tx ports.Transactor, repos TaskRepos, notifier ports.Notifier, m *metrics.Metrics, logger *logger.Logger) *TaskService {
	return &TaskService{
		tx:       tx,
		repos:    repos,
		notifier: notifier,
		access:   access{boards: repos.Boards, lists: repos.Lists, tasks: repos.Tasks},
		metrics:  m,
		logger:   logger,
	}
}

// CreateTask appends a task to the end of a list. Initial assignees other
// than the actor are notified.
func (s *TaskService) CreateTask(ctx context.Context, actor uuid.UUID, listID int64, req ports.CreateTaskRequest) (*entities.Task, error) {
	title, err := requireText("title", req.Title)
	if err != nil {
		return nil, err
	}
	list, board, err := s.access.list(ctx, actor, listID)
	if err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = entities.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, entities.Invalid("priority", "must be low, medium or high")
	}
	remindDays := DefaultRemindDays
	if req.RemindDays != nil {
		remindDays = *req.RemindDays
	}
	if remindDays < 0 {
		return nil, entities.Invalid("remind_days", "must not be negative")
	}

	assignees := entities.Unique(req.Assignees)
	if err := checkAssignees(board, assignees); err != nil {
		return nil, err
	}
	labelIDs := entities.Unique(req.LabelIDs)
	if err := s.checkLabels(ctx, board.ID, labelIDs); err != nil {
		return nil, err
	}

	now := time.Now()
	task := &entities.Task{
		ListID:      list.ID,
		Title:       title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    priority,
		RemindDays:  remindDays,
		CreatedBy:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var assigned entities.SetDiff[uuid.UUID]
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		last, err := s.repos.Tasks.MaxPosition(ctx, list.ID)
		if err != nil {
			return fmt.Errorf("failed to get last position: %w", err)
		}
		task.Position = last + 1

		if err := s.repos.Tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		assigned, err = s.repos.Tasks.ReplaceAssignees(ctx, task.ID, assignees)
		if err != nil {
			return fmt.Errorf("failed to set assignees: %w", err)
		}
		if _, err := s.repos.Tasks.ReplaceLabels(ctx, task.ID, labelIDs); err != nil {
			return fmt.Errorf("failed to set labels: %w", err)
		}
		return logActivity(ctx, s.repos.Activity, board.ID, actor, ActionTaskCreated, task.Title)
	})
	if err != nil {
		return nil, err
	}
	task.Assignees = assignees
	task.LabelIDs = labelIDs

	s.logger.Infow("Task created", "task_id", task.ID, "list_id", list.ID, "position", task.Position)

	if added := entities.Without(assigned.Added, actor); len(added) > 0 {
		s.notifier.TaskAssigned(ctx, actor, board, task, added)
	}
	return task, nil
}

// GetTask returns a task with its comments, checklist and attachments.
func (s *TaskService) GetTask(ctx context.Context, actor uuid.UUID, id int64) (*ports.TaskDetail, error) {
	task, _, _, err := s.access.task(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	comments, err := s.repos.Comments.ListByTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	checklist, err := s.repos.Checklist.ListByTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get checklist: %w", err)
	}
	attachments, err := s.repos.Attachments.ListByTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get attachments: %w", err)
	}

	return &ports.TaskDetail{
		Task:        task,
		Comments:    comments,
		Checklist:   checklist,
		Attachments: attachments,
	}, nil
}

// UpdateTask applies a partial update. Only assignees added by this update
// are notified, never the actor.
func (s *TaskService) UpdateTask(ctx context.Context, actor uuid.UUID, id int64, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, _, board, err := s.access.task(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	wasArchived := task.IsArchived
	now := time.Now()

	if req.Title != nil {
		title, err := requireText("title", *req.Title)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, entities.Invalid("priority", "must be low, medium or high")
		}
		task.Priority = *req.Priority
	}
	if req.ClearDueDate {
		if task.DueDate != nil {
			task.DueDate = nil
			task.RearmReminder()
		}
	} else if req.DueDate != nil && (task.DueDate == nil || !task.DueDate.Equal(*req.DueDate)) {
		task.DueDate = req.DueDate
		task.RearmReminder()
	}
	if req.RemindDays != nil && *req.RemindDays != task.RemindDays {
		if *req.RemindDays < 0 {
			return nil, entities.Invalid("remind_days", "must not be negative")
		}
		task.RemindDays = *req.RemindDays
		task.RearmReminder()
	}
	if req.IsCompleted != nil {
		task.SetCompleted(*req.IsCompleted, now)
	}
	if req.IsArchived != nil {
		task.IsArchived = *req.IsArchived
	}

	var assignees []uuid.UUID
	if req.Assignees != nil {
		assignees = entities.Unique(*req.Assignees)
		if err := checkAssignees(board, assignees); err != nil {
			return nil, err
		}
	}
	var labelIDs []int64
	if req.LabelIDs != nil {
		labelIDs = entities.Unique(*req.LabelIDs)
		if err := s.checkLabels(ctx, board.ID, labelIDs); err != nil {
			return nil, err
		}
	}
	task.UpdatedAt = now

	var assigned entities.SetDiff[uuid.UUID]
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repos.Tasks.Update(ctx, task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		switch {
		case wasArchived && !task.IsArchived:
			if err := s.appendRestored(ctx, task); err != nil {
				return err
			}
		case !wasArchived && task.IsArchived:
			if err := s.compactList(ctx, task.ListID); err != nil {
				return err
			}
		}

		if req.Assignees != nil {
			diff, err := s.repos.Tasks.ReplaceAssignees(ctx, task.ID, assignees)
			if err != nil {
				return fmt.Errorf("failed to set assignees: %w", err)
			}
			assigned = diff
			task.Assignees = assignees
		}
		if req.LabelIDs != nil {
			if _, err := s.repos.Tasks.ReplaceLabels(ctx, task.ID, labelIDs); err != nil {
				return fmt.Errorf("failed to set labels: %w", err)
			}
			task.LabelIDs = labelIDs
		}
		return logActivity(ctx, s.repos.Activity, board.ID, actor, ActionTaskUpdated, task.Title)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Task updated", "task_id", task.ID, "user_id", actor)

	if added := entities.Without(assigned.Added, actor); len(added) > 0 {
		s.notifier.TaskAssigned(ctx, actor, board, task, added)
	}
	return task, nil
}

// DeleteTask removes a task with its children and closes the gap in its list.
func (s *TaskService) DeleteTask(ctx context.Context, actor uuid.UUID, id int64) error {
	task, _, board, err := s.access.task(ctx, actor, id)
	if err != nil {
		return err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repos.Tasks.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		if !task.IsArchived {
			if err := s.compactList(ctx, task.ListID); err != nil {
				return err
			}
		}
		return logActivity(ctx, s.repos.Activity, board.ID, actor, ActionTaskDeleted, task.Title)
	})
	if err != nil {
		return err
	}

	s.logger.Infow("Task deleted", "task_id", id, "user_id", actor)
	return nil
}

// MoveTask puts a task into another list of the same board and, when an
// order is supplied, re-ranks the destination list by it in the same
// transaction. Ids in the order that are not in the destination are ignored.
func (s *TaskService) MoveTask(ctx context.Context, actor uuid.UUID, req ports.MoveTaskRequest) (*entities.Task, error) {
	if req.TaskID == 0 {
		return nil, entities.Required("task_id")
	}
	if req.ListID == 0 {
		return nil, entities.Required("list_id")
	}

	task, source, board, err := s.access.task(ctx, actor, req.TaskID)
	if err != nil {
		return nil, err
	}
	dest, err := s.repos.Lists.GetByID(ctx, req.ListID)
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	if dest.BoardID != source.BoardID {
		return nil, entities.ErrCrossBoardMove
	}

	var written int
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if dest.ID != source.ID {
			last, err := s.repos.Tasks.MaxPosition(ctx, dest.ID)
			if err != nil {
				return fmt.Errorf("failed to get last position: %w", err)
			}
			if err := s.repos.Tasks.MoveToList(ctx, task.ID, dest.ID, last+1); err != nil {
				return fmt.Errorf("failed to move task: %w", err)
			}
			if !task.IsArchived {
				if err := s.compactList(ctx, source.ID); err != nil {
					return err
				}
			}
			detail := fmt.Sprintf("moved %q from %q to %q", task.Title, source.Title, dest.Title)
			if err := logActivity(ctx, s.repos.Activity, board.ID, actor, ActionTaskMoved, detail); err != nil {
				return err
			}
		}

		if len(req.Order) == 0 {
			return nil
		}
		slots, err := s.repos.Tasks.Slots(ctx, dest.ID)
		if err != nil {
			return fmt.Errorf("failed to get task positions: %w", err)
		}
		changes, err := ordering.Plan(slots, ordering.FilterScope(slots, req.Order))
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		if err := s.repos.Tasks.UpdatePositions(ctx, changes); err != nil {
			return fmt.Errorf("failed to update task positions: %w", err)
		}
		written = len(changes)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AddPositionWrites("task", written)

	moved, err := s.repos.Tasks.GetByID(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.logger.Infow("Task moved",
		"task_id", task.ID,
		"from_list", source.ID,
		"to_list", dest.ID,
		"position", moved.Position,
		"writes", written,
	)
	return moved, nil
}

// ReorderTasks re-ranks a list by the given order. Every id must belong to
// the list; otherwise nothing is written.
func (s *TaskService) ReorderTasks(ctx context.Context, actor uuid.UUID, listID int64, order []int64) ([]*entities.Task, error) {
	if len(order) == 0 {
		return nil, entities.Required("order")
	}
	if _, _, err := s.access.list(ctx, actor, listID); err != nil {
		return nil, err
	}

	var written int
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		slots, err := s.repos.Tasks.Slots(ctx, listID)
		if err != nil {
			return fmt.Errorf("failed to get task positions: %w", err)
		}
		changes, err := ordering.Plan(slots, order)
		if err != nil {
			if errors.Is(err, ordering.ErrUnknownSibling) {
				return fmt.Errorf("%w (%v)", entities.ErrTaskNotFound, err)
			}
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		if err := s.repos.Tasks.UpdatePositions(ctx, changes); err != nil {
			return fmt.Errorf("failed to update task positions: %w", err)
		}
		written = len(changes)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AddPositionWrites("task", written)

	tasks, err := s.repos.Tasks.ListByList(ctx, listID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	return tasks, nil
}

// appendRestored ranks an unarchived task last in its list, re-densifying
// the rest from their current stored positions.
func (s *TaskService) appendRestored(ctx context.Context, task *entities.Task) error {
	slots, err := s.repos.Tasks.Slots(ctx, task.ListID)
	if err != nil {
		return fmt.Errorf("failed to get task positions: %w", err)
	}

	order := make([]int64, 0, len(slots))
	for _, id := range ordering.IDs(slots) {
		if id != task.ID {
			order = append(order, id)
		}
	}
	order = append(order, task.ID)

	changes, err := ordering.Plan(slots, order)
	if err != nil {
		return fmt.Errorf("failed to plan task positions: %w", err)
	}
	if len(changes) > 0 {
		if err := s.repos.Tasks.UpdatePositions(ctx, changes); err != nil {
			return fmt.Errorf("failed to update task positions: %w", err)
		}
		s.metrics.AddPositionWrites("task", len(changes))
	}
	task.Position = len(order)
	return nil
}

func (s *TaskService) compactList(ctx context.Context, listID int64) error {
	slots, err := s.repos.Tasks.Slots(ctx, listID)
	if err != nil {
		return fmt.Errorf("failed to get task positions: %w", err)
	}
	changes := ordering.Compact(slots)
	if len(changes) == 0 {
		return nil
	}
	if err := s.repos.Tasks.UpdatePositions(ctx, changes); err != nil {
		return fmt.Errorf("failed to update task positions: %w", err)
	}
	s.metrics.AddPositionWrites("task", len(changes))
	return nil
}

func (s *TaskService) checkLabels(ctx context.Context, boardID int64, labelIDs []int64) error {
	if len(labelIDs) == 0 {
		return nil
	}
	labels, err := s.repos.Labels.ListByBoard(ctx, boardID)
	if err != nil {
		return fmt.Errorf("failed to get labels: %w", err)
	}
	known := make(map[int64]struct{}, len(labels))
	for _, l := range labels {
		known[l.ID] = struct{}{}
	}
	for _, id := range labelIDs {
		if _, ok := known[id]; !ok {
			return entities.Invalid("label_ids", fmt.Sprintf("label %d does not belong to this board", id))
		}
	}
	return nil
}

// checkAssignees requires every assignee to be a board participant.
func checkAssignees(board *entities.Board, assignees []uuid.UUID) error {
	for _, id := range assignees {
		if !board.HasAccess(id) {
			return entities.Invalid("assignees", fmt.Sprintf("user %s is not a member of this board", id))
		}
	}
	return nil
}

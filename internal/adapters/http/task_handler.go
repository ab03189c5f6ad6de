package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// TaskHandler handles task requests and the items hanging off a task
type TaskHandler struct {
	tasks    ports.TaskService
	comments ports.CommentService
	items    ports.TaskItemService
	logger   *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks ports.TaskService, comments ports.CommentService, items ports.TaskItemService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:    tasks,
		comments: comments,
		items:    items,
		logger:   logger,
	}
}

// GetTask godoc
// @Summary Get a task
// @Description Task with its comments, checklist and attachments
// @Tags tasks
// @Produce json
// @Param id path int true "Task ID"
// @Success 200 {object} ports.TaskDetail
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	task, err := h.tasks.GetTask(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateTask godoc
// @Summary Update a task
// @Description Partial update. assignees and label_ids replace the whole set; newly added assignees are notified.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path int true "Task ID"
// @Param request body ports.UpdateTaskRequest true "Changes"
// @Success 200 {object} entities.Task
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.UpdateTask(c.Request().Context(), getUserIDFromContext(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.tasks.DeleteTask(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// MoveTask godoc
// @Summary Move a task
// @Description Moves task_id into list_id (same board only). order, when given, is the destination list's final order.
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.MoveTaskRequest true "Move"
// @Success 200 {object} entities.Task
// @Failure 403 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/move [post]
func (h *TaskHandler) MoveTask(c echo.Context) error {
	var req ports.MoveTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.MoveTask(c.Request().Context(), getUserIDFromContext(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) ListComments(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	comments, err := h.comments.ListComments(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comments)
}

func (h *TaskHandler) AddComment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.comments.AddComment(c.Request().Context(), getUserIDFromContext(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comment)
}

func (h *TaskHandler) DeleteComment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.comments.DeleteComment(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TaskHandler) AddChecklistItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.CreateChecklistItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	item, err := h.items.AddChecklistItem(c.Request().Context(), getUserIDFromContext(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *TaskHandler) UpdateChecklistItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateChecklistItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	item, err := h.items.UpdateChecklistItem(c.Request().Context(), getUserIDFromContext(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (h *TaskHandler) DeleteChecklistItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.items.DeleteChecklistItem(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TaskHandler) AddAttachment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.CreateAttachmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	attachment, err := h.items.AddAttachment(c.Request().Context(), getUserIDFromContext(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, attachment)
}

func (h *TaskHandler) DeleteAttachment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.items.DeleteAttachment(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

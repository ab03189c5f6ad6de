package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// ListHandler handles list requests, including drag-and-drop reordering
type ListHandler struct {
	lists  ports.ListService
	tasks  ports.TaskService
	logger *logger.Logger
}

// NewListHandler creates a new list handler
func NewListHandler(lists ports.ListService, tasks ports.TaskService, logger *logger.Logger) *ListHandler {
	return &ListHandler{
		lists:  lists,
		tasks:  tasks,
		logger: logger,
	}
}

func (h *ListHandler) CreateList(c echo.Context) error {
	boardID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.CreateListRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	list, err := h.lists.CreateList(c.Request().Context(), getUserIDFromContext(c), boardID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, list)
}

func (h *ListHandler) UpdateList(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateListRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	list, err := h.lists.UpdateList(c.Request().Context(), getUserIDFromContext(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ListHandler) DeleteList(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.lists.DeleteList(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ReorderLists godoc
// @Summary Move a list before another
// @Description Places list_id immediately before target_id and returns the board's lists in their new order
// @Tags lists
// @Accept json
// @Produce json
// @Param id path int true "Board ID"
// @Param request body ports.ReorderListRequest true "Move"
// @Success 200 {array} entities.List
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /boards/{id}/lists/reorder [post]
func (h *ListHandler) ReorderLists(c echo.Context) error {
	boardID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.ReorderListRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	lists, err := h.lists.ReorderList(c.Request().Context(), getUserIDFromContext(c), boardID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lists)
}

func (h *ListHandler) CreateTask(c echo.Context) error {
	listID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.CreateTask(c.Request().Context(), getUserIDFromContext(c), listID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// ReorderTasks godoc
// @Summary Reorder the tasks of a list
// @Description order is a JSON array of task ids or a comma-separated string. Every id must belong to the list.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path int true "List ID"
// @Param request body ports.ReorderTasksRequest true "New order"
// @Success 200 {array} entities.Task
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /lists/{id}/tasks/reorder [post]
func (h *ListHandler) ReorderTasks(c echo.Context) error {
	listID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.ReorderTasksRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tasks, err := h.tasks.ReorderTasks(c.Request().Context(), getUserIDFromContext(c), listID, req.Order)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

const defaultActivityLimit = 50

// BoardHandler handles board, membership and board-scoped collection requests
type BoardHandler struct {
	boards      ports.BoardService
	invitations ports.InvitationService
	labels      ports.LabelService
	logger      *logger.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(boards ports.BoardService, invitations ports.InvitationService, labels ports.LabelService, logger *logger.Logger) *BoardHandler {
	return &BoardHandler{
		boards:      boards,
		invitations: invitations,
		labels:      labels,
		logger:      logger,
	}
}

// ListBoards godoc
// @Summary List boards
// @Description Boards the caller owns or has joined, newest first
// @Tags boards
// @Produce json
// @Success 200 {array} entities.Board
// @Security BearerAuth
// @Router /boards [get]
func (h *BoardHandler) ListBoards(c echo.Context) error {
	boards, err := h.boards.ListBoards(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, boards)
}

// CreateBoard godoc
// @Summary Create a board
// @Description Create a board seeded with the default lists
// @Tags boards
// @Accept json
// @Produce json
// @Param request body ports.CreateBoardRequest true "Board data"
// @Success 201 {object} entities.Board
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /boards [post]
func (h *BoardHandler) CreateBoard(c echo.Context) error {
	var req ports.CreateBoardRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	board, err := h.boards.CreateBoard(c.Request().Context(), getUserIDFromContext(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, board)
}

// GetBoard godoc
// @Summary Get a board
// @Description Board with its lists and their open tasks, in position order
// @Tags boards
// @Produce json
// @Param id path int true "Board ID"
// @Success 200 {object} entities.Board
// @Failure 403 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /boards/{id} [get]
func (h *BoardHandler) GetBoard(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	board, err := h.boards.GetBoard(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, board)
}

func (h *BoardHandler) UpdateBoard(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateBoardRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	board, err := h.boards.UpdateBoard(c.Request().Context(), getUserIDFromContext(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, board)
}

func (h *BoardHandler) DeleteBoard(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.boards.DeleteBoard(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BoardHandler) StarBoard(c echo.Context) error {
	return h.setStar(c, true)
}

func (h *BoardHandler) UnstarBoard(c echo.Context) error {
	return h.setStar(c, false)
}

func (h *BoardHandler) setStar(c echo.Context, starred bool) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.boards.StarBoard(c.Request().Context(), getUserIDFromContext(c), id, starred); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BoardHandler) ListMembers(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	members, err := h.boards.ListMembers(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, members)
}

// RemoveMember removes another member (owner only) or lets a member leave.
func (h *BoardHandler) RemoveMember(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, err := pathUUID(c, "user_id")
	if err != nil {
		return err
	}

	if err := h.boards.RemoveMember(c.Request().Context(), getUserIDFromContext(c), id, userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BoardHandler) ListActivity(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", defaultActivityLimit)
	if err != nil {
		return err
	}

	entries, err := h.boards.ListActivity(c.Request().Context(), getUserIDFromContext(c), id, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

// Invite godoc
// @Summary Invite a user to a board
// @Description Invite by username or email. An existing pending invitation is returned with 200.
// @Tags invitations
// @Accept json
// @Produce json
// @Param id path int true "Board ID"
// @Param request body ports.InviteRequest true "Invitee"
// @Success 201 {object} entities.BoardInvitation
// @Success 200 {object} entities.BoardInvitation
// @Failure 409 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /boards/{id}/invitations [post]
func (h *BoardHandler) Invite(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.InviteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	inv, created, err := h.invitations.Invite(c.Request().Context(), getUserIDFromContext(c), id, req)
	if err != nil {
		return err
	}
	if created {
		return c.JSON(http.StatusCreated, inv)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *BoardHandler) ListLabels(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	labels, err := h.labels.ListLabels(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, labels)
}

func (h *BoardHandler) CreateLabel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.CreateLabelRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	label, err := h.labels.CreateLabel(c.Request().Context(), getUserIDFromContext(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, label)
}

func (h *BoardHandler) DeleteLabel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.labels.DeleteLabel(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// InboxHandler serves the caller's invitations and notifications
type InboxHandler struct {
	invitations   ports.InvitationService
	notifications ports.NotificationService
	logger        *logger.Logger
}

// NewInboxHandler creates a new inbox handler
func NewInboxHandler(invitations ports.InvitationService, notifications ports.NotificationService, logger *logger.Logger) *InboxHandler {
	return &InboxHandler{
		invitations:   invitations,
		notifications: notifications,
		logger:        logger,
	}
}

func (h *InboxHandler) ListInvitations(c echo.Context) error {
	pending, err := h.invitations.ListPending(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pending)
}

func (h *InboxHandler) AcceptInvitation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	inv, err := h.invitations.Accept(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *InboxHandler) DeclineInvitation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	inv, err := h.invitations.Decline(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inv)
}

// ListNotifications godoc
// @Summary List notifications
// @Description Newest first. unread=true limits the list to unread ones.
// @Tags notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} entities.Notification
// @Security BearerAuth
// @Router /notifications [get]
func (h *InboxHandler) ListNotifications(c echo.Context) error {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}

	filter := ports.NotificationFilter{
		UnreadOnly: c.QueryParam("unread") == "true",
		Limit:      limit,
		Offset:     offset,
	}

	list, err := h.notifications.ListNotifications(c.Request().Context(), getUserIDFromContext(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *InboxHandler) UnreadCount(c echo.Context) error {
	count, err := h.notifications.UnreadCount(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ports.UnreadCountResponse{UnreadCount: count})
}

func (h *InboxHandler) MarkRead(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.notifications.MarkRead(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *InboxHandler) MarkAllRead(c echo.Context) error {
	n, err := h.notifications.MarkAllRead(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"marked": n})
}

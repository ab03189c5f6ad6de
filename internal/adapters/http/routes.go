package http

import (
	"github.com/labstack/echo/v4"
)

// Handlers bundles every API handler for route registration.
type Handlers struct {
	Auth   *AuthHandler
	Boards *BoardHandler
	Lists  *ListHandler
	Tasks  *TaskHandler
	Inbox  *InboxHandler
}

// Register mounts the /api/v1 routes. auth guards everything but login.
func Register(e *echo.Echo, h Handlers, auth echo.MiddlewareFunc) {
	v1 := e.Group("/api/v1")

	v1.POST("/auth/login", h.Auth.Login)

	api := v1.Group("", auth)

	boards := api.Group("/boards")
	boards.GET("", h.Boards.ListBoards)
	boards.POST("", h.Boards.CreateBoard)
	boards.GET("/:id", h.Boards.GetBoard)
	boards.PUT("/:id", h.Boards.UpdateBoard)
	boards.DELETE("/:id", h.Boards.DeleteBoard)
	boards.POST("/:id/star", h.Boards.StarBoard)
	boards.DELETE("/:id/star", h.Boards.UnstarBoard)
	boards.GET("/:id/members", h.Boards.ListMembers)
	boards.DELETE("/:id/members/:user_id", h.Boards.RemoveMember)
	boards.GET("/:id/activity", h.Boards.ListActivity)
	boards.POST("/:id/invitations", h.Boards.Invite)
	boards.GET("/:id/labels", h.Boards.ListLabels)
	boards.POST("/:id/labels", h.Boards.CreateLabel)
	boards.POST("/:id/lists", h.Lists.CreateList)
	boards.POST("/:id/lists/reorder", h.Lists.ReorderLists)

	lists := api.Group("/lists")
	lists.PUT("/:id", h.Lists.UpdateList)
	lists.DELETE("/:id", h.Lists.DeleteList)
	lists.POST("/:id/tasks", h.Lists.CreateTask)
	lists.POST("/:id/tasks/reorder", h.Lists.ReorderTasks)

	tasks := api.Group("/tasks")
	tasks.POST("/move", h.Tasks.MoveTask)
	tasks.GET("/:id", h.Tasks.GetTask)
	tasks.PUT("/:id", h.Tasks.UpdateTask)
	tasks.DELETE("/:id", h.Tasks.DeleteTask)
	tasks.GET("/:id/comments", h.Tasks.ListComments)
	tasks.POST("/:id/comments", h.Tasks.AddComment)
	tasks.POST("/:id/checklist", h.Tasks.AddChecklistItem)
	tasks.POST("/:id/attachments", h.Tasks.AddAttachment)

	api.DELETE("/comments/:id", h.Tasks.DeleteComment)
	api.PUT("/checklist/:id", h.Tasks.UpdateChecklistItem)
	api.DELETE("/checklist/:id", h.Tasks.DeleteChecklistItem)
	api.DELETE("/attachments/:id", h.Tasks.DeleteAttachment)
	api.DELETE("/labels/:id", h.Boards.DeleteLabel)

	api.GET("/invitations", h.Inbox.ListInvitations)
	api.POST("/invitations/:id/accept", h.Inbox.AcceptInvitation)
	api.POST("/invitations/:id/decline", h.Inbox.DeclineInvitation)

	api.GET("/notifications", h.Inbox.ListNotifications)
	api.GET("/notifications/unread-count", h.Inbox.UnreadCount)
	api.POST("/notifications/read-all", h.Inbox.MarkAllRead)
	api.POST("/notifications/:id/read", h.Inbox.MarkRead)
}

package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/entities"
)

// Every operation takes the calling user explicitly as actor.

// AuthService interface for authentication operations
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// BoardService interface for board management operations
type BoardService interface {
	CreateBoard(ctx context.Context, actor uuid.UUID, req CreateBoardRequest) (*entities.Board, error)
	GetBoard(ctx context.Context, actor uuid.UUID, id int64) (*entities.Board, error)
	ListBoards(ctx context.Context, actor uuid.UUID) ([]*entities.Board, error)
	UpdateBoard(ctx context.Context, actor uuid.UUID, id int64, req UpdateBoardRequest) (*entities.Board, error)
	DeleteBoard(ctx context.Context, actor uuid.UUID, id int64) error
	StarBoard(ctx context.Context, actor uuid.UUID, id int64, starred bool) error
	ListMembers(ctx context.Context, actor uuid.UUID, id int64) ([]*entities.User, error)
	RemoveMember(ctx context.Context, actor uuid.UUID, boardID int64, userID uuid.UUID) error
	ListActivity(ctx context.Context, actor uuid.UUID, boardID int64, limit int) ([]*entities.ActivityLog, error)
}

// ListService interface for list operations, including list reordering
type ListService interface {
	CreateList(ctx context.Context, actor uuid.UUID, boardID int64, req CreateListRequest) (*entities.List, error)
	UpdateList(ctx context.Context, actor uuid.UUID, listID int64, req UpdateListRequest) (*entities.List, error)
	DeleteList(ctx context.Context, actor uuid.UUID, listID int64) error
	ReorderList(ctx context.Context, actor uuid.UUID, boardID int64, req ReorderListRequest) ([]*entities.List, error)
}

// TaskService interface for task operations, including moves and reordering
type TaskService interface {
	CreateTask(ctx context.Context, actor uuid.UUID, listID int64, req CreateTaskRequest) (*entities.Task, error)
	GetTask(ctx context.Context, actor uuid.UUID, id int64) (*TaskDetail, error)
	UpdateTask(ctx context.Context, actor uuid.UUID, id int64, req UpdateTaskRequest) (*entities.Task, error)
	DeleteTask(ctx context.Context, actor uuid.UUID, id int64) error
	MoveTask(ctx context.Context, actor uuid.UUID, req MoveTaskRequest) (*entities.Task, error)
	ReorderTasks(ctx context.Context, actor uuid.UUID, listID int64, order []int64) ([]*entities.Task, error)
}

type CommentService interface {
	AddComment(ctx context.Context, actor uuid.UUID, taskID int64, req CreateCommentRequest) (*entities.Comment, error)
	ListComments(ctx context.Context, actor uuid.UUID, taskID int64) ([]*entities.Comment, error)
	DeleteComment(ctx context.Context, actor uuid.UUID, id int64) error
}

// TaskItemService covers checklist items and attachments.
type TaskItemService interface {
	AddChecklistItem(ctx context.Context, actor uuid.UUID, taskID int64, req CreateChecklistItemRequest) (*entities.ChecklistItem, error)
	UpdateChecklistItem(ctx context.Context, actor uuid.UUID, id int64, req UpdateChecklistItemRequest) (*entities.ChecklistItem, error)
	DeleteChecklistItem(ctx context.Context, actor uuid.UUID, id int64) error
	AddAttachment(ctx context.Context, actor uuid.UUID, taskID int64, req CreateAttachmentRequest) (*entities.Attachment, error)
	DeleteAttachment(ctx context.Context, actor uuid.UUID, id int64) error
}

type LabelService interface {
	CreateLabel(ctx context.Context, actor uuid.UUID, boardID int64, req CreateLabelRequest) (*entities.Label, error)
	ListLabels(ctx context.Context, actor uuid.UUID, boardID int64) ([]*entities.Label, error)
	DeleteLabel(ctx context.Context, actor uuid.UUID, id int64) error
}

// InvitationService handles board invitations. Invite reports created=false
// when a pending invitation for the same pair already existed.
type InvitationService interface {
	Invite(ctx context.Context, actor uuid.UUID, boardID int64, req InviteRequest) (inv *entities.BoardInvitation, created bool, err error)
	Accept(ctx context.Context, actor uuid.UUID, id int64) (*entities.BoardInvitation, error)
	Decline(ctx context.Context, actor uuid.UUID, id int64) (*entities.BoardInvitation, error)
	ListPending(ctx context.Context, actor uuid.UUID) ([]*entities.BoardInvitation, error)
}

// NotificationService is the user's notification inbox.
type NotificationService interface {
	ListNotifications(ctx context.Context, actor uuid.UUID, filter NotificationFilter) ([]*entities.Notification, error)
	UnreadCount(ctx context.Context, actor uuid.UUID) (int, error)
	MarkRead(ctx context.Context, actor uuid.UUID, id int64) error
	MarkAllRead(ctx context.Context, actor uuid.UUID) (int64, error)
}

// Notifier records notifications for domain events and schedules their
// delivery. It never fails the caller: errors are logged.
type Notifier interface {
	TaskAssigned(ctx context.Context, actor uuid.UUID, board *entities.Board, task *entities.Task, recipients []uuid.UUID)
	CommentAdded(ctx context.Context, actor uuid.UUID, board *entities.Board, task *entities.Task, comment *entities.Comment)
	InvitationSent(ctx context.Context, board *entities.Board, inv *entities.BoardInvitation)
	InvitationAccepted(ctx context.Context, board *entities.Board, inv *entities.BoardInvitation)
	// TaskReminder notifies every assignee and returns how many notification
	// records were created.
	TaskReminder(ctx context.Context, board *entities.Board, task *entities.Task, assignees []*entities.User) int
}

// ReminderService runs one reminder sweep.
type ReminderService interface {
	Sweep(ctx context.Context, now time.Time) (*SweepResult, error)
}

// Request/Response Types

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"`
	User        *entities.User `json:"user"`
}

type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
}

type CreateUserRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Username  string  `json:"username" validate:"required,min=3,max=50"`
	Password  string  `json:"password" validate:"required,min=8"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
}

// Board related types
type CreateBoardRequest struct {
	Name        string  `json:"name" validate:"required,max=50"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	WebhookURL  *string `json:"webhook_url"`
}

// UpdateBoardRequest fields left nil are unchanged. An empty WebhookURL
// removes the webhook.
type UpdateBoardRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=50"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	WebhookURL  *string `json:"webhook_url"`
}

// List related types
type CreateListRequest struct {
	Title string `json:"title" form:"title" validate:"max=255"`
}

type UpdateListRequest struct {
	Title string `json:"title" form:"title" validate:"max=255"`
}

// ReorderListRequest places ListID immediately before TargetID.
type ReorderListRequest struct {
	ListID   int64 `json:"list_id" form:"list_id"`
	TargetID int64 `json:"target_id" form:"target_id"`
}

// Task related types
type CreateTaskRequest struct {
	Title       string            `json:"title" validate:"max=255"`
	Description *string           `json:"description" validate:"omitempty,max=5000"`
	DueDate     *time.Time        `json:"due_date"`
	Priority    entities.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	RemindDays  *int              `json:"remind_days" validate:"omitempty,min=0,max=365"`
	Assignees   []uuid.UUID       `json:"assignees"`
	LabelIDs    []int64           `json:"label_ids"`
}

// UpdateTaskRequest is a partial update: nil fields are left as they are.
// Assignees and LabelIDs, when present, replace the whole set.
type UpdateTaskRequest struct {
	Title        *string            `json:"title" validate:"omitempty,max=255"`
	Description  *string            `json:"description" validate:"omitempty,max=5000"`
	DueDate      *time.Time         `json:"due_date"`
	ClearDueDate bool               `json:"clear_due_date"`
	Priority     *entities.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	IsCompleted  *bool              `json:"is_completed"`
	IsArchived   *bool              `json:"is_archived"`
	RemindDays   *int               `json:"remind_days" validate:"omitempty,min=0,max=365"`
	Assignees    *[]uuid.UUID       `json:"assignees"`
	LabelIDs     *[]int64           `json:"label_ids"`
}

// MoveTaskRequest moves TaskID into ListID. Order, when given, is the final
// order of the destination list; ids that are not in that list are ignored.
type MoveTaskRequest struct {
	TaskID int64      `json:"task_id" form:"task_id"`
	ListID int64      `json:"list_id" form:"list_id"`
	Order  IDSequence `json:"order" form:"order"`
}

type ReorderTasksRequest struct {
	Order IDSequence `json:"order" form:"order"`
}

type TaskDetail struct {
	*entities.Task
	Comments    []*entities.Comment       `json:"comments"`
	Checklist   []*entities.ChecklistItem `json:"checklist"`
	Attachments []*entities.Attachment    `json:"attachments"`
}

type CreateCommentRequest struct {
	Body string `json:"body" validate:"max=5000"`
}

type CreateChecklistItemRequest struct {
	Content string `json:"content" validate:"max=500"`
}

type UpdateChecklistItemRequest struct {
	Content *string `json:"content" validate:"omitempty,max=500"`
	IsDone  *bool   `json:"is_done"`
}

type CreateAttachmentRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	URL  string `json:"url" validate:"required,url"`
}

type CreateLabelRequest struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// InviteRequest names the invitee by username or email.
type InviteRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email" validate:"omitempty,email"`
}

type SweepResult struct {
	Checked  int `json:"checked"`
	Reminded int `json:"reminded"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

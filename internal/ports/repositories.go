package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/domain/ordering"
)

// Transactor runs fn in one database transaction. Repository calls made with
// the ctx passed to fn take part in it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.User, error)
}

// BoardRepository defines the interface for board data operations.
// GetByID fills Members; ListForUser also fills IsStarred.
type BoardRepository interface {
	Create(ctx context.Context, board *entities.Board) error
	GetByID(ctx context.Context, id int64) (*entities.Board, error)
	Update(ctx context.Context, board *entities.Board) error
	// Delete removes the board with its lists, tasks, task children,
	// labels, invitations, stars and activity.
	Delete(ctx context.Context, id int64) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*entities.Board, error)
	AddMember(ctx context.Context, boardID int64, userID uuid.UUID) error
	RemoveMember(ctx context.Context, boardID int64, userID uuid.UUID) error
	SetStarred(ctx context.Context, boardID int64, userID uuid.UUID, starred bool) error
	IsStarred(ctx context.Context, boardID int64, userID uuid.UUID) (bool, error)
}

// ListRepository defines the interface for list data operations
type ListRepository interface {
	Create(ctx context.Context, list *entities.List) error
	GetByID(ctx context.Context, id int64) (*entities.List, error)
	Update(ctx context.Context, list *entities.List) error
	// Delete removes the list and every task in it.
	Delete(ctx context.Context, id int64) error
	ListByBoard(ctx context.Context, boardID int64) ([]*entities.List, error)
	Slots(ctx context.Context, boardID int64) ([]ordering.Slot, error)
	MaxPosition(ctx context.Context, boardID int64) (int, error)
	UpdatePositions(ctx context.Context, changes []ordering.Change) error
}

// TaskRepository defines the interface for task data operations.
// Positions are tracked among the non-archived tasks of a list.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id int64) (*entities.Task, error)
	// Update never writes ListID or Position; it refreshes them from the
	// stored row.
	Update(ctx context.Context, task *entities.Task) error
	// Delete removes the task, its comments, checklist, attachments,
	// assignees, labels and the notifications that reference it.
	Delete(ctx context.Context, id int64) error
	ListByList(ctx context.Context, listID int64, includeArchived bool) ([]*entities.Task, error)
	Slots(ctx context.Context, listID int64) ([]ordering.Slot, error)
	MaxPosition(ctx context.Context, listID int64) (int, error)
	UpdatePositions(ctx context.Context, changes []ordering.Change) error
	MoveToList(ctx context.Context, taskID, listID int64, position int) error
	ReplaceAssignees(ctx context.Context, taskID int64, userIDs []uuid.UUID) (entities.SetDiff[uuid.UUID], error)
	ReplaceLabels(ctx context.Context, taskID int64, labelIDs []int64) (entities.SetDiff[int64], error)
	// ListReminderCandidates returns open, unreminded tasks that have a due
	// date and a non-zero lead time.
	ListReminderCandidates(ctx context.Context) ([]*entities.Task, error)
	MarkReminded(ctx context.Context, taskID int64) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *entities.Comment) error
	GetByID(ctx context.Context, id int64) (*entities.Comment, error)
	ListByTask(ctx context.Context, taskID int64) ([]*entities.Comment, error)
	Delete(ctx context.Context, id int64) error
}

type ChecklistRepository interface {
	Create(ctx context.Context, item *entities.ChecklistItem) error
	GetByID(ctx context.Context, id int64) (*entities.ChecklistItem, error)
	Update(ctx context.Context, item *entities.ChecklistItem) error
	Delete(ctx context.Context, id int64) error
	ListByTask(ctx context.Context, taskID int64) ([]*entities.ChecklistItem, error)
	MaxPosition(ctx context.Context, taskID int64) (int, error)
}

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *entities.Attachment) error
	GetByID(ctx context.Context, id int64) (*entities.Attachment, error)
	Delete(ctx context.Context, id int64) error
	ListByTask(ctx context.Context, taskID int64) ([]*entities.Attachment, error)
}

type LabelRepository interface {
	Create(ctx context.Context, label *entities.Label) error
	GetByID(ctx context.Context, id int64) (*entities.Label, error)
	ListByBoard(ctx context.Context, boardID int64) ([]*entities.Label, error)
	// Delete also detaches the label from its tasks.
	Delete(ctx context.Context, id int64) error
}

// NotificationRepository defines the interface for notification data operations
type NotificationRepository interface {
	Create(ctx context.Context, n *entities.Notification) error
	GetByID(ctx context.Context, id int64) (*entities.Notification, error)
	ListForRecipient(ctx context.Context, userID uuid.UUID, filter NotificationFilter) ([]*entities.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type InvitationRepository interface {
	// Create returns ErrInvitationPending when the pair already has a
	// pending invitation.
	Create(ctx context.Context, inv *entities.BoardInvitation) error
	GetByID(ctx context.Context, id int64) (*entities.BoardInvitation, error)
	// FindPending returns ErrInvitationNotFound when the pair has no pending invite.
	FindPending(ctx context.Context, boardID int64, recipientID uuid.UUID) (*entities.BoardInvitation, error)
	UpdateStatus(ctx context.Context, inv *entities.BoardInvitation) error
	ListPendingForRecipient(ctx context.Context, userID uuid.UUID) ([]*entities.BoardInvitation, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, entry *entities.ActivityLog) error
	ListByBoard(ctx context.Context, boardID int64, limit int) ([]*entities.ActivityLog, error)
}

// Locker guards jobs that must not overlap across processes.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

package entities

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// DefaultListTitles are seeded, in order, into every new board.
var DefaultListTitles = []string{"TO DO", "Doing", "Done"}

// User represents a user in the system
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    *string   `json:"first_name" db:"first_name"`
	LastName     *string   `json:"last_name" db:"last_name"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Board is the top-level container. The owner is never stored in Members.
type Board struct {
	ID          int64       `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Description *string     `json:"description" db:"description"`
	OwnerID     uuid.UUID   `json:"owner_id" db:"owner_id"`
	WebhookURL  *string     `json:"webhook_url,omitempty" db:"webhook_url"`
	Members     []uuid.UUID `json:"members" db:"-"`
	IsStarred   bool        `json:"is_starred" db:"-"`
	Lists       []List      `json:"lists,omitempty" db:"-"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// List is an ordered column within a board.
type List struct {
	ID        int64     `json:"id" db:"id"`
	BoardID   int64     `json:"board_id" db:"board_id"`
	Title     string    `json:"title" db:"title"`
	Position  int       `json:"position" db:"position"`
	Tasks     []Task    `json:"tasks,omitempty" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Task is a unit of work inside exactly one list.
type Task struct {
	ID          int64       `json:"id" db:"id"`
	ListID      int64       `json:"list_id" db:"list_id"`
	Title       string      `json:"title" db:"title"`
	Description *string     `json:"description" db:"description"`
	DueDate     *time.Time  `json:"due_date" db:"due_date"`
	Priority    Priority    `json:"priority" db:"priority"`
	IsCompleted bool        `json:"is_completed" db:"is_completed"`
	CompletedAt *time.Time  `json:"completed_at" db:"completed_at"`
	IsArchived  bool        `json:"is_archived" db:"is_archived"`
	Position    int         `json:"position" db:"position"`
	IsReminded  bool        `json:"is_reminded" db:"is_reminded"`
	RemindDays  int         `json:"remind_days" db:"remind_days"`
	CreatedBy   uuid.UUID   `json:"created_by" db:"created_by"`
	Assignees   []uuid.UUID `json:"assignees" db:"-"`
	LabelIDs    []int64     `json:"label_ids" db:"-"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

type Comment struct {
	ID        int64     `json:"id" db:"id"`
	TaskID    int64     `json:"task_id" db:"task_id"`
	AuthorID  uuid.UUID `json:"author_id" db:"author_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ChecklistItem struct {
	ID        int64     `json:"id" db:"id"`
	TaskID    int64     `json:"task_id" db:"task_id"`
	Content   string    `json:"content" db:"content"`
	IsDone    bool      `json:"is_done" db:"is_done"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Attachment stores metadata only; the file itself lives elsewhere.
type Attachment struct {
	ID         int64     `json:"id" db:"id"`
	TaskID     int64     `json:"task_id" db:"task_id"`
	UploaderID uuid.UUID `json:"uploader_id" db:"uploader_id"`
	Name       string    `json:"name" db:"name"`
	URL        string    `json:"url" db:"url"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type Label struct {
	ID        int64     `json:"id" db:"id"`
	BoardID   int64     `json:"board_id" db:"board_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Notification is immutable apart from IsRead.
type Notification struct {
	ID          int64      `json:"id" db:"id"`
	RecipientID uuid.UUID  `json:"recipient_id" db:"recipient_id"`
	ActorID     *uuid.UUID `json:"actor_id" db:"actor_id"`
	TaskID      *int64     `json:"task_id" db:"task_id"`
	BoardID     *int64     `json:"board_id" db:"board_id"`
	Message     string     `json:"message" db:"message"`
	IsRead      bool       `json:"is_read" db:"is_read"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

type BoardInvitation struct {
	ID          int64            `json:"id" db:"id"`
	BoardID     int64            `json:"board_id" db:"board_id"`
	SenderID    uuid.UUID        `json:"sender_id" db:"sender_id"`
	RecipientID uuid.UUID        `json:"recipient_id" db:"recipient_id"`
	Status      InvitationStatus `json:"status" db:"status"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	RespondedAt *time.Time       `json:"responded_at" db:"responded_at"`
}

// ActivityLog is an append-only audit entry scoped to a board.
type ActivityLog struct {
	ID        int64     `json:"id" db:"id"`
	BoardID   int64     `json:"board_id" db:"board_id"`
	ActorID   uuid.UUID `json:"actor_id" db:"actor_id"`
	Action    string    `json:"action" db:"action"`
	Detail    string    `json:"detail" db:"detail"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Business logic methods for Board

func (b *Board) IsOwner(userID uuid.UUID) bool {
	return b.OwnerID == userID
}

func (b *Board) IsMember(userID uuid.UUID) bool {
	for _, m := range b.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// HasAccess reports whether the user is the owner or a member.
func (b *Board) HasAccess(userID uuid.UUID) bool {
	return b.IsOwner(userID) || b.IsMember(userID)
}

// Participants returns the owner followed by the members.
func (b *Board) Participants() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(b.Members)+1)
	out = append(out, b.OwnerID)
	for _, m := range b.Members {
		if m != b.OwnerID {
			out = append(out, m)
		}
	}
	return out
}

// Business logic methods for Task

// SetCompleted applies the completion flag. CompletedAt is stamped on the
// false->true edge and cleared on true->false, so it is non-nil exactly when
// IsCompleted is true.
func (t *Task) SetCompleted(done bool, now time.Time) {
	switch {
	case done && !t.IsCompleted:
		t.IsCompleted = true
		t.CompletedAt = &now
	case !done:
		t.IsCompleted = false
		t.CompletedAt = nil
	case done && t.CompletedAt == nil:
		t.CompletedAt = &now
	}
}

// RearmReminder starts a new due cycle.
func (t *Task) RearmReminder() {
	t.IsReminded = false
}

// ReminderDate is the calendar day, in loc, on which the reminder becomes
// due. ok is false when the task cannot be reminded at all.
func (t *Task) ReminderDate(loc *time.Location) (date time.Time, ok bool) {
	if t.DueDate == nil || t.RemindDays == 0 {
		return time.Time{}, false
	}
	due := t.DueDate.In(loc)
	day := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -t.RemindDays), true
}

// ReminderDue reports whether a sweep running at now should remind this task.
func (t *Task) ReminderDue(now time.Time, loc *time.Location) bool {
	if t.IsCompleted || t.IsReminded {
		return false
	}
	remindOn, ok := t.ReminderDate(loc)
	if !ok {
		return false
	}
	n := now.In(loc)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	return !today.Before(remindOn)
}

func (t *Task) IsAssigned(userID uuid.UUID) bool {
	for _, a := range t.Assignees {
		if a == userID {
			return true
		}
	}
	return false
}

// Preview returns the first n runes of the comment body, with "..." appended
// when the body was cut.
func (c *Comment) Preview(n int) string {
	if n <= 0 || utf8.RuneCountInString(c.Body) <= n {
		return c.Body
	}
	runes := []rune(c.Body)
	return string(runes[:n]) + "..."
}

// Business logic methods for BoardInvitation

func (i *BoardInvitation) IsPending() bool {
	return i.Status == InvitationPending
}

// Accept moves a pending invitation to accepted. Answered invitations are final.
func (i *BoardInvitation) Accept(now time.Time) error {
	return i.respond(InvitationAccepted, now)
}

func (i *BoardInvitation) Decline(now time.Time) error {
	return i.respond(InvitationDeclined, now)
}

func (i *BoardInvitation) respond(status InvitationStatus, now time.Time) error {
	if !i.IsPending() {
		return ErrInvitationClosed
	}
	i.Status = status
	i.RespondedAt = &now
	return nil
}

// Utility methods
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func (s InvitationStatus) IsValid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationDeclined:
		return true
	default:
		return false
	}
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

const (
	pushTypeNotification = "notification"
	webhookSeparator     = "---------------------------------"
	dueDateLayout        = "02/01/2006"
)

// NotificationSettings holds the presentation knobs of outgoing notifications.
type NotificationSettings struct {
	PreviewLength    int
	BaseURL          string
	WebhookUsername  string
	WebhookAvatarURL string
}

// NotificationChannels are the delivery sinks. Email and Webhook may be nil.
type NotificationChannels struct {
	Push    ports.PushChannel
	Email   ports.EmailChannel
	Webhook ports.WebhookChannel
}

// NotificationService records notifications for domain events, hands their
// delivery to the dispatcher and serves the user's inbox.
type NotificationService struct {
	notifications ports.NotificationRepository
	users         ports.UserRepository
	channels      NotificationChannels
	dispatcher    ports.Dispatcher
	settings      NotificationSettings
	logger        *logger.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notifications ports.NotificationRepository,
	users ports.UserRepository,
	channels NotificationChannels,
	dispatcher ports.Dispatcher,
	settings NotificationSettings,
	logger *logger.Logger,
) *NotificationService {
	if settings.PreviewLength <= 0 {
		settings.PreviewLength = 50
	}
	return &NotificationService{
		notifications: notifications,
		users:         users,
		channels:      channels,
		dispatcher:    dispatcher,
		settings:      settings,
		logger:        logger.WithComponent("notifications"),
	}
}

// notice is one notification record plus what to deliver with it.
type notice struct {
	recipient uuid.UUID
	actor     *uuid.UUID
	boardID   *int64
	taskID    *int64
	message   string
	push      string
	email     func(user *entities.User) ports.EmailMessage
}

// TaskAssigned notifies each recipient and posts one message listing them
// to the board webhook.
func (s *NotificationService) TaskAssigned(ctx context.Context, actor uuid.UUID, board *entities.Board, task *entities.Task, recipients []uuid.UUID) {
	if len(recipients) == 0 {
		return
	}
	actorName := s.displayName(ctx, actor)

	for _, id := range recipients {
		s.deliver(ctx, notice{
			recipient: id,
			actor:     &actor,
			boardID:   &board.ID,
			taskID:    &task.ID,
			message:   fmt.Sprintf("%s assigned you to task %q", actorName, task.Title),
			push:      fmt.Sprintf("New task: %q", task.Title),
			email: func(user *entities.User) ports.EmailMessage {
				return ports.EmailMessage{
					To:      user.Email,
					Subject: fmt.Sprintf("New task assigned: %s", task.Title),
					Body:    s.assignmentEmail(user, actorName, board, task),
				}
			},
		})
	}

	if board.WebhookURL == nil {
		return
	}
	names := s.usernames(ctx, recipients)
	var b strings.Builder
	b.WriteString("📌 **New Task Assigned**\n")
	fmt.Fprintf(&b, "**Task:** %s\n", task.Title)
	fmt.Fprintf(&b, "**Board:** %s\n", board.Name)
	if task.DueDate != nil {
		fmt.Fprintf(&b, "**Due Date:** %s\n", task.DueDate.Format(dueDateLayout))
	}
	fmt.Fprintf(&b, "**Assigned To:** %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "**By:** %s\n", actorName)
	b.WriteString(webhookSeparator)
	s.postWebhook(*board.WebhookURL, b.String(), fmt.Sprintf("assignment webhook for task %d", task.ID))
}

// CommentAdded notifies the task's assignees except the commenter.
func (s *NotificationService) CommentAdded(ctx context.Context, actor uuid.UUID, board *entities.Board, task *entities.Task, comment *entities.Comment) {
	recipients := entities.Without(entities.Unique(task.Assignees), actor)
	if len(recipients) == 0 {
		return
	}
	actorName := s.displayName(ctx, actor)
	message := fmt.Sprintf("%s commented on %q: %s", actorName, task.Title, comment.Preview(s.settings.PreviewLength))

	for _, id := range recipients {
		s.deliver(ctx, notice{
			recipient: id,
			actor:     &actor,
			boardID:   &board.ID,
			taskID:    &task.ID,
			message:   message,
			push:      fmt.Sprintf("New comment on %q", task.Title),
		})
	}
}

func (s *NotificationService) InvitationSent(ctx context.Context, board *entities.Board, inv *entities.BoardInvitation) {
	sender := inv.SenderID
	s.deliver(ctx, notice{
		recipient: inv.RecipientID,
		actor:     &sender,
		boardID:   &board.ID,
		message:   fmt.Sprintf("%s invited you to join board %q", s.displayName(ctx, sender), board.Name),
		push:      fmt.Sprintf("Board invitation: %q", board.Name),
	})
}

func (s *NotificationService) InvitationAccepted(ctx context.Context, board *entities.Board, inv *entities.BoardInvitation) {
	recipient := inv.RecipientID
	s.deliver(ctx, notice{
		recipient: inv.SenderID,
		actor:     &recipient,
		boardID:   &board.ID,
		message:   fmt.Sprintf("%s accepted your invitation to %q", s.displayName(ctx, recipient), board.Name),
		push:      fmt.Sprintf("Invitation accepted: %q", board.Name),
	})
}

// TaskReminder notifies every assignee on every channel, then posts one
// aggregate message to the board webhook.
func (s *NotificationService) TaskReminder(ctx context.Context, board *entities.Board, task *entities.Task, assignees []*entities.User) int {
	owner := board.OwnerID
	due := ""
	if task.DueDate != nil {
		due = task.DueDate.Format(dueDateLayout)
	}

	created := 0
	for _, user := range assignees {
		user := user
		ok := s.deliver(ctx, notice{
			recipient: user.ID,
			actor:     &owner,
			boardID:   &board.ID,
			taskID:    &task.ID,
			message:   fmt.Sprintf("Reminder: task %q is due in %d days", task.Title, task.RemindDays),
			push:      fmt.Sprintf("Due soon: %q", task.Title),
			email: func(*entities.User) ports.EmailMessage {
				return ports.EmailMessage{
					To:      user.Email,
					Subject: fmt.Sprintf("Upcoming deadline: %s", task.Title),
					Body:    s.reminderEmail(user, board, task, due),
				}
			},
		})
		if ok {
			created++
		}
	}

	if board.WebhookURL != nil && len(assignees) > 0 {
		names := make([]string, 0, len(assignees))
		for _, u := range assignees {
			names = append(names, u.Username)
		}
		content := fmt.Sprintf("⚠️ **Upcoming Deadline Warning!**\n**Task:** %s\n**Due Date:** %s\n**Remaining:** %d Days\n**Team:** %s\n%s",
			task.Title, due, task.RemindDays, strings.Join(names, ", "), webhookSeparator)
		s.postWebhook(*board.WebhookURL, content, fmt.Sprintf("reminder webhook for task %d", task.ID))
	}
	return created
}

// deliver stores the notification record and schedules its push and email.
// It reports whether the record was created; delivery outcomes are not
// visible to the caller.
func (s *NotificationService) deliver(ctx context.Context, n notice) bool {
	record := &entities.Notification{
		RecipientID: n.recipient,
		ActorID:     n.actor,
		BoardID:     n.boardID,
		TaskID:      n.taskID,
		Message:     n.message,
		CreatedAt:   time.Now(),
	}
	if err := s.notifications.Create(ctx, record); err != nil {
		s.logger.Errorw("Failed to create notification", "recipient", n.recipient, "error", err)
		return false
	}

	recipient := n.recipient
	if s.channels.Push != nil {
		s.enqueue(ports.DeliveryJob{
			Channel:     ports.ChannelPush,
			Description: fmt.Sprintf("notification %d to %s", record.ID, ports.PushTopic(recipient)),
			Run: func(ctx context.Context) error {
				unread, err := s.notifications.CountUnread(ctx, recipient)
				if err != nil {
					return fmt.Errorf("failed to count unread: %w", err)
				}
				return s.channels.Push.Push(ctx, recipient, ports.PushMessage{
					Type:        pushTypeNotification,
					Message:     n.push,
					UnreadCount: unread,
				})
			},
		})
	}

	if n.email != nil && s.channels.Email != nil {
		build := n.email
		s.enqueue(ports.DeliveryJob{
			Channel:     ports.ChannelEmail,
			Description: fmt.Sprintf("notification %d to %s", record.ID, recipient),
			Run: func(ctx context.Context) error {
				user, err := s.users.GetByID(ctx, recipient)
				if err != nil {
					return fmt.Errorf("failed to get recipient: %w", err)
				}
				if user.Email == "" {
					return nil
				}
				return s.channels.Email.Send(ctx, build(user))
			},
		})
	}
	return true
}

func (s *NotificationService) postWebhook(url, content, description string) {
	if s.channels.Webhook == nil {
		return
	}
	msg := ports.WebhookMessage{
		Username:  s.settings.WebhookUsername,
		AvatarURL: s.settings.WebhookAvatarURL,
		Content:   content,
	}
	s.enqueue(ports.DeliveryJob{
		Channel:     ports.ChannelWebhook,
		Description: description,
		Run: func(ctx context.Context) error {
			return s.channels.Webhook.Post(ctx, url, msg)
		},
	})
}

func (s *NotificationService) enqueue(job ports.DeliveryJob) {
	if err := s.dispatcher.Dispatch(job); err != nil {
		s.logger.Warnw("Delivery not scheduled",
			"channel", job.Channel,
			"job", job.Description,
			"error", err,
		)
	}
}

func (s *NotificationService) displayName(ctx context.Context, id uuid.UUID) string {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.logger.Warnw("Failed to resolve user name", "user_id", id, "error", err)
		return "Someone"
	}
	return user.Username
}

func (s *NotificationService) usernames(ctx context.Context, ids []uuid.UUID) []string {
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Warnw("Failed to resolve user names", "error", err)
	}
	byID := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		byID[u.ID] = u.Username
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		} else {
			names = append(names, id.String())
		}
	}
	return names
}

func (s *NotificationService) assignmentEmail(user *entities.User, actorName string, board *entities.Board, task *entities.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", user.Username)
	fmt.Fprintf(&b, "%s assigned you to a task on board %q.\n\n", actorName, board.Name)
	fmt.Fprintf(&b, "Task: %s\n", task.Title)
	fmt.Fprintf(&b, "Priority: %s\n", task.Priority)
	if task.DueDate != nil {
		fmt.Fprintf(&b, "Due date: %s\n", task.DueDate.Format(dueDateLayout))
	}
	if task.Description != nil && *task.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", *task.Description)
	}
	if s.settings.BaseURL != "" {
		fmt.Fprintf(&b, "\nOpen the board: %s/boards/%d\n", strings.TrimRight(s.settings.BaseURL, "/"), board.ID)
	}
	return b.String()
}

func (s *NotificationService) reminderEmail(user *entities.User, board *entities.Board, task *entities.Task, due string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", user.Username)
	fmt.Fprintf(&b, "Task %q on board %q is due on %s\n", task.Title, board.Name, due)
	fmt.Fprintf(&b, "(%d days left).\n\n", task.RemindDays)
	b.WriteString("Please check the status of your task.\n")
	if s.settings.BaseURL != "" {
		fmt.Fprintf(&b, "\n%s/boards/%d\n", strings.TrimRight(s.settings.BaseURL, "/"), board.ID)
	}
	return b.String()
}

// ListNotifications returns the actor's notifications, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, actor uuid.UUID, filter ports.NotificationFilter) ([]*entities.Notification, error) {
	filter.Limit = clampLimit(filter.Limit, 50, 100)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	notifications, err := s.notifications.ListForRecipient(ctx, actor, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor uuid.UUID) (int, error) {
	count, err := s.notifications.CountUnread(ctx, actor)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// MarkRead flips the read flag of one of the actor's notifications.
func (s *NotificationService) MarkRead(ctx context.Context, actor uuid.UUID, id int64) error {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get notification: %w", err)
	}
	if n.RecipientID != actor {
		return entities.ErrNotRecipient
	}
	if n.IsRead {
		return nil
	}
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor uuid.UUID) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, actor)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

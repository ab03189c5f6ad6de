package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Delivery channel names, used in logs and metrics.
const (
	ChannelPush    = "push"
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
)

var (
	ErrQueueFull   = errors.New("delivery queue is full")
	ErrQueueClosed = errors.New("delivery queue is closed")
)

// PushTopic is the private real-time topic of one user.
func PushTopic(userID uuid.UUID) string {
	return fmt.Sprintf("user_%s", userID)
}

// PushMessage is the payload sent on a user's real-time topic.
type PushMessage struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	UnreadCount int    `json:"unread_count"`
}

// PushChannel delivers real-time events to a user's open connections.
type PushChannel interface {
	Push(ctx context.Context, userID uuid.UUID, msg PushMessage) error
}

type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// EmailChannel sends transactional mail.
type EmailChannel interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// WebhookMessage is the JSON body posted to a board's chat webhook.
type WebhookMessage struct {
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Content   string `json:"content"`
}

// WebhookChannel posts to an external chat webhook. Non-2xx answers are errors.
type WebhookChannel interface {
	Post(ctx context.Context, url string, msg WebhookMessage) error
}

// DeliveryJob is one unit of background delivery work.
type DeliveryJob struct {
	Channel     string
	Description string
	Run         func(ctx context.Context) error
}

// Dispatcher runs delivery jobs off the request path. Dispatch never blocks:
// it returns ErrQueueFull or ErrQueueClosed when the job cannot be accepted.
type Dispatcher interface {
	Dispatch(job DeliveryJob) error
}

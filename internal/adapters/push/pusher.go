package push

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/ports"
)

// LocalPusher delivers straight to the sockets held by this process.
type LocalPusher struct {
	hub *Hub
}

func NewLocalPusher(hub *Hub) *LocalPusher {
	return &LocalPusher{hub: hub}
}

// Push succeeds when nobody is connected; the inbox still holds the record.
func (p *LocalPusher) Push(ctx context.Context, userID uuid.UUID, msg ports.PushMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode push message: %w", err)
	}
	topic := ports.PushTopic(userID)
	if p.hub.Subscribers(topic) == 0 {
		return nil
	}
	if !p.hub.Publish(topic, data) {
		return fmt.Errorf("push to %s: hub unavailable", topic)
	}
	return nil
}

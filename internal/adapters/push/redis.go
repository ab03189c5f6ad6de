package push

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// ChannelPrefix namespaces the Redis pub/sub channels, one per user topic.
const ChannelPrefix = "kanban:push:"

// RedisPusher publishes to Redis so whichever instance holds the user's
// socket can deliver it.
type RedisPusher struct {
	rdb *redis.Client
}

func NewRedisPusher(rdb *redis.Client) *RedisPusher {
	return &RedisPusher{rdb: rdb}
}

func (p *RedisPusher) Push(ctx context.Context, userID uuid.UUID, msg ports.PushMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode push message: %w", err)
	}
	if err := p.rdb.Publish(ctx, ChannelPrefix+ports.PushTopic(userID), data).Err(); err != nil {
		return fmt.Errorf("publish push message: %w", err)
	}
	return nil
}

// Relay forwards every published push message to the local hub until ctx is
// done, resubscribing when the connection drops.
func Relay(ctx context.Context, rdb *redis.Client, hub *Hub, log *logger.Logger) {
	log = log.WithComponent("push_relay")
	for {
		sub := rdb.PSubscribe(ctx, ChannelPrefix+"*")
		ch := sub.Channel()
	receive:
		for {
			select {
			case <-ctx.Done():
				sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break receive
				}
				topic := strings.TrimPrefix(msg.Channel, ChannelPrefix)
				if hub.Subscribers(topic) == 0 {
					continue
				}
				if !hub.Publish(topic, []byte(msg.Payload)) {
					log.Warnw("Push relay dropped message", "topic", topic)
				}
			}
		}
		sub.Close()
		if ctx.Err() != nil {
			return
		}
		log.Error("pubsub channel closed, reconnecting")
		time.Sleep(time.Second)
	}
}

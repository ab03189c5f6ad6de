// Package push delivers real-time notification events to websocket clients.
// Every client subscribes to exactly one topic, its user's private topic.
package push

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"

	"github.com/taskmaster/kanban/internal/infrastructure/logger"
)

const sendBuffer = 16

type Client struct {
	hub   *Hub
	conn  ClientConn
	send  chan []byte
	ID    string
	Topic string
}

// ClientConn is the part of *websocket.Conn the hub needs.
type ClientConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

func generateClientID() string {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "xxxxx"
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

type message struct {
	topic string
	data  []byte
}

// Hub tracks connected clients by topic and fans published payloads out to
// them. All bookkeeping happens on the Run goroutine.
type Hub struct {
	topics     map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	logger     *logger.Logger

	mu      sync.RWMutex
	counts  map[string]int
	stopped chan struct{}
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		logger:     log.WithComponent("push_hub"),
		counts:     make(map[string]int),
		stopped:    make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is done, then closes
// every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket Hub started")
	defer close(h.stopped)

	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.topics {
				for client := range clients {
					h.drop(client)
				}
			}
			h.logger.Info("WebSocket Hub stopped")
			return

		case client := <-h.register:
			if h.topics[client.Topic] == nil {
				h.topics[client.Topic] = make(map[*Client]struct{})
			}
			h.topics[client.Topic][client] = struct{}{}
			h.setCount(client.Topic, len(h.topics[client.Topic]))
			h.logger.Infow("Client connected",
				"client_id", client.ID,
				"topic", client.Topic,
				"topic_clients", len(h.topics[client.Topic]),
			)

		case client := <-h.unregister:
			if _, ok := h.topics[client.Topic][client]; ok {
				h.drop(client)
				h.logger.Infow("Client disconnected",
					"client_id", client.ID,
					"topic", client.Topic,
				)
			}

		case msg := <-h.broadcast:
			for client := range h.topics[msg.topic] {
				select {
				case client.send <- msg.data:
				default:
					h.logger.Warnw("Dropping slow client", "client_id", client.ID, "topic", msg.topic)
					h.drop(client)
				}
			}
		}
	}
}

// Publish queues data for every client on topic. It never blocks; when the
// hub is saturated or stopped the payload is dropped and false returned.
func (h *Hub) Publish(topic string, data []byte) bool {
	select {
	case <-h.stopped:
		return false
	default:
	}
	select {
	case h.broadcast <- message{topic: topic, data: data}:
		return true
	default:
		return false
	}
}

// Subscribers reports how many clients are connected to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.counts[topic]
}

// Attach registers conn on topic and serves it until the peer goes away.
func (h *Hub) Attach(conn ClientConn, topic string) {
	client := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		ID:    generateClientID(),
		Topic: topic,
	}

	select {
	case h.register <- client:
	case <-h.stopped:
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

func (h *Hub) drop(client *Client) {
	clients := h.topics[client.Topic]
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.topics, client.Topic)
	}
	h.setCount(client.Topic, len(clients))
	close(client.send)
}

func (h *Hub) setCount(topic string, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n == 0 {
		delete(h.counts, topic)
		return
	}
	h.counts[topic] = n
}

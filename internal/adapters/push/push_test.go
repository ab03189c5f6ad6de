package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

type staticTokens map[string]uuid.UUID

func (s staticTokens) ValidateToken(token string) (*ports.Claims, error) {
	id, ok := s[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &ports.Claims{UserID: id}, nil
}

func startHub(t *testing.T, tokens staticTokens, origins ...string) (*Hub, string) {
	t.Helper()
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(logger.NewNop())
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", hub.ServeWS(tokens, origins))
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, hub *Hub, url string, user uuid.UUID) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return hub.Subscribers(ports.PushTopic(user)) > 0
	}, time.Second, 10*time.Millisecond)
	return conn
}

func readPush(t *testing.T, conn *websocket.Conn) ports.PushMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg ports.PushMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestServeWS_RejectsAnonymous(t *testing.T) {
	_, url := startHub(t, staticTokens{})

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=forged", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWS_ChecksOrigin(t *testing.T) {
	user := uuid.New()
	_, url := startHub(t, staticTokens{"t": user}, "https://kanban.example.com")

	header := http.Header{"Origin": {"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url+"?token=t", header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": {"https://kanban.example.com"}}
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=t", header)
	require.NoError(t, err)
	conn.Close()

	// non-browser clients send no Origin
	conn, _, err = websocket.DefaultDialer.Dial(url+"?token=t", nil)
	require.NoError(t, err)
	conn.Close()
}

func TestLocalPusher_DeliversOnlyToOwnTopic(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	hub, url := startHub(t, staticTokens{"a": alice, "b": bob})

	aliceConn := dial(t, hub, url+"?token=a", alice)
	bobConn := dial(t, hub, url+"?token=b", bob)

	pusher := NewLocalPusher(hub)
	require.NoError(t, pusher.Push(context.Background(), alice, ports.PushMessage{
		Type:        "notification",
		Message:     "hello alice",
		UnreadCount: 3,
	}))
	require.NoError(t, pusher.Push(context.Background(), bob, ports.PushMessage{
		Type:    "notification",
		Message: "hello bob",
	}))

	got := readPush(t, aliceConn)
	assert.Equal(t, "notification", got.Type)
	assert.Equal(t, "hello alice", got.Message)
	assert.Equal(t, 3, got.UnreadCount)

	assert.Equal(t, "hello bob", readPush(t, bobConn).Message)
}

func TestLocalPusher_NobodyConnected(t *testing.T) {
	hub, _ := startHub(t, staticTokens{})
	err := NewLocalPusher(hub).Push(context.Background(), uuid.New(), ports.PushMessage{Type: "notification"})
	assert.NoError(t, err)
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	user := uuid.New()
	hub, url := startHub(t, staticTokens{"t": user})

	conn := dial(t, hub, url+"?token=t", user)
	conn.Close()

	assert.Eventually(t, func() bool {
		return hub.Subscribers(ports.PushTopic(user)) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestRedisRelay(t *testing.T) {
	m, err := miniredis.Run()
	require.NoError(t, err)
	defer m.Close()
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer rdb.Close()

	user := uuid.New()
	hub, url := startHub(t, staticTokens{"t": user})
	conn := dial(t, hub, url+"?token=t", user)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Relay(ctx, rdb, hub, logger.NewNop())
		close(done)
	}()
	// wait for the pattern subscription
	time.Sleep(50 * time.Millisecond)

	err = NewRedisPusher(rdb).Push(context.Background(), user, ports.PushMessage{
		Type:        "notification",
		Message:     "from another instance",
		UnreadCount: 1,
	})
	require.NoError(t, err)

	got := readPush(t, conn)
	assert.Equal(t, "from another instance", got.Message)
	assert.Equal(t, 1, got.UnreadCount)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Relay did not exit")
	}
}

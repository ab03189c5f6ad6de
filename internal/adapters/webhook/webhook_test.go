package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/kanban/internal/ports"
)

func TestClient_PostsJSON(t *testing.T) {
	var got ports.WebhookMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewClient(time.Second).Post(context.Background(), srv.URL, ports.WebhookMessage{
		Username:  "Kanban",
		AvatarURL: "https://example.com/bot.png",
		Content:   "📌 **New Task Assigned**",
	})
	require.NoError(t, err)
	assert.Equal(t, "Kanban", got.Username)
	assert.Equal(t, "📌 **New Task Assigned**", got.Content)
}

func TestClient_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown webhook", http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewClient(time.Second).Post(context.Background(), srv.URL, ports.WebhookMessage{Content: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "unknown webhook")
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	err := NewClient(50*time.Millisecond).Post(context.Background(), srv.URL, ports.WebhookMessage{Content: "x"})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

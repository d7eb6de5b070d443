package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/casa/internal/auth"
	"github.com/dukerupert/casa/internal/events"
)

func feedServer(t *testing.T, hub *Hub, userID string) string {
	t.Helper()
	feed := HandleWebSocket(hub, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		feed(w, r.WithContext(auth.WithAuth(r.Context(), auth.AuthContext{UserID: userID})))
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFeedDeliversOwnChanges(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	url := feedServer(t, hub, "u1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()
	waitClients(t, hub, 1)

	hub.Notify(ctx, events.Change{Entity: "room", Action: events.Created, ID: "other", Owner: "u2"})
	hub.Notify(ctx, events.Change{Entity: "room", Action: events.Created, ID: "r1", Owner: "u1"})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	if got.Type != "room_created" || got.ID != "r1" {
		t.Errorf("message = %+v, want room_created r1", got)
	}

	if err := conn.Close(ws.StatusNormalClosure, ""); err != nil {
		t.Fatalf("close: %v", err)
	}
	waitClients(t, hub, 0)
}

func TestFeedEndsWhenHubDropsClient(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	url := feedServer(t, hub, "u1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()
	waitClients(t, hub, 1)

	var client *Client
	hub.mu.RLock()
	for c := range hub.clients {
		client = c
	}
	hub.mu.RUnlock()
	hub.Unregister(client)

	_, _, err = conn.Read(ctx)
	if status := ws.CloseStatus(err); status != ws.StatusGoingAway {
		t.Errorf("close status = %v (err %v), want going away", status, err)
	}
}

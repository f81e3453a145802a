package room

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestRun_NotConnected(t *testing.T) {
	c := NewWSClient("ws://localhost", "room-1", "")
	if err := c.Run(); err == nil {
		t.Fatal("expected error when not connected")
	}
}

func TestRun_ReturnsNilWhenClosedLocally(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	c := NewWSClient(wsURL, "room-1", "")
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected connect error: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- c.Run() }()

	// Give the read loop a moment to block on the socket before tearing
	// the connection down from this side.
	time.Sleep(20 * time.Millisecond)
	if err := c.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected nil from the run loop after a local close, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not return after close")
	}
}

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	internalnotify "github.com/pigletlabs/peppavoice/internal/notify"
)

func testPayload() internalnotify.SessionClosedPayload {
	joined := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	left := joined.Add(125 * time.Second)
	return internalnotify.SessionClosedPayload{
		RoomName:            "room-1",
		UserJoinedAt:        joined,
		UserLeftAt:          left,
		ChatDurationSeconds: 125,
	}
}

func TestSendSessionClosed_EmptyWebhookURL(t *testing.T) {
	sender := NewHTTPSender("")
	if err := sender.SendSessionClosed(context.Background(), testPayload()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSendSessionClosed_Success(t *testing.T) {
	var got internalnotify.SessionClosedPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type: %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendSessionClosed(context.Background(), testPayload()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.RoomName != "room-1" || got.ChatDurationSeconds != 125 {
		t.Fatalf("unexpected payload received: %+v", got)
	}
}

func TestSendSessionClosed_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendSessionClosed(context.Background(), testPayload()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

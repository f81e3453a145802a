package notify

import (
	"context"
	"time"
)

type SessionClosedPayload struct {
	RoomName            string    `json:"room_name"`
	UserJoinedAt        time.Time `json:"user_joined_at"`
	UserLeftAt          time.Time `json:"user_left_at"`
	ChatDurationSeconds int64     `json:"chat_duration_seconds"`
}

type Sender interface {
	SendSessionClosed(ctx context.Context, payload SessionClosedPayload) error
}

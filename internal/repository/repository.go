package repository

import (
	"context"
	"time"
)

type AppendConversationInput struct {
	RoomName  string
	UserID    string
	Role      Role
	Content   string
	CreatedAt time.Time
}

type RoomRepository interface {
	// FindRoom returns nil, nil when no session exists for the room.
	FindRoom(ctx context.Context, name string) (*RoomSession, error)
	// MarkJoined ensures a session row exists for the room and sets
	// user_joined_at, but only when it is not already set.
	MarkJoined(ctx context.Context, name string, at time.Time) error
	// MarkLeft sets user_left_at and the chat duration, but only when
	// user_left_at is not already set.
	MarkLeft(ctx context.Context, name string, at time.Time, durationSeconds int64) error
}

type ConversationRepository interface {
	AppendConversation(ctx context.Context, input AppendConversationInput) (*ConversationRecord, error)
	// ListConversation returns records ordered by created_at ascending.
	// A non-positive limit means no limit.
	ListConversation(ctx context.Context, room string, limit int) ([]ConversationRecord, error)
}

// Repository is the persistence gateway. Every call is transactional on
// its own; callers never rely on atomicity across calls.
type Repository interface {
	RoomRepository
	ConversationRepository
}

package repository

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// RoomSession is one occupancy window of a room, keyed by room name.
// The row itself is provisioned when the room is created; this process
// only fills in the join/leave timestamps and the resulting duration.
type RoomSession struct {
	RoomName            string
	UserJoinedAt        *time.Time
	UserLeftAt          *time.Time
	ChatDurationSeconds int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ConversationRecord is one persisted utterance. Records are append-only
// and ordered by CreatedAt within a room.
type ConversationRecord struct {
	ID        string
	RoomName  string
	UserID    string
	Role      Role
	Content   string
	CreatedAt time.Time
}

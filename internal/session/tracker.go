package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pigletlabs/peppavoice/internal/identity"
	"github.com/pigletlabs/peppavoice/internal/repository"
	"github.com/pigletlabs/peppavoice/internal/room"
)

// TaskSubmitter schedules detached persistence work.
type TaskSubmitter interface {
	Submit(name string, fn func(context.Context) error) bool
}

// SessionClosedFunc is called after a leave has been persisted, from inside
// the same detached task.
type SessionClosedFunc func(ctx context.Context, roomName string, joinedAt, leftAt time.Time, durationSeconds int64)

// Tracker maintains the one open/closed session window per room. Presence
// handlers filter out the agent's own identity, then hand all repository
// work to detached tasks so a slow database never stalls event delivery.
// Both join and leave are idempotent; duplicate notifications are no-ops.
type Tracker struct {
	repo        repository.RoomRepository
	tasks       TaskSubmitter
	agentPrefix string
	now         func() time.Time

	onSessionClosed SessionClosedFunc
}

func NewTracker(repo repository.RoomRepository, tasks TaskSubmitter, agentPrefix string) *Tracker {
	return &Tracker{
		repo:        repo,
		tasks:       tasks,
		agentPrefix: agentPrefix,
		now:         time.Now,
	}
}

// SetSessionClosedHook installs a callback fired once per session close,
// after the leave timestamp and duration have been persisted.
func (t *Tracker) SetSessionClosedHook(fn SessionClosedFunc) {
	t.onSessionClosed = fn
}

// HandleParticipantEvent routes a presence transition to OnJoin or OnLeave.
func (t *Tracker) HandleParticipantEvent(ev room.ParticipantEvent) {
	if ev.Joined {
		t.OnJoin(ev.RoomName, ev.Identity)
		return
	}
	t.OnLeave(ev.RoomName, ev.Identity)
}

// OnJoin records the first qualifying join for the room. Later joins and
// duplicate notifications leave user_joined_at untouched.
func (t *Tracker) OnJoin(roomName, participant string) {
	if t.skipParticipant(roomName, participant, "join") {
		return
	}
	joinedAt := t.now()
	t.tasks.Submit("mark_joined", func(ctx context.Context) error {
		sess, err := t.repo.FindRoom(ctx, roomName)
		if err != nil {
			return fmt.Errorf("failed to load room session: %w", err)
		}
		if sess != nil && sess.UserJoinedAt != nil {
			slog.Debug("join already recorded", "room_name", roomName, "identity", participant)
			return nil
		}
		if err := t.repo.MarkJoined(ctx, roomName, joinedAt); err != nil {
			return fmt.Errorf("failed to mark user joined: %w", err)
		}
		slog.Info("user joined room", "room_name", roomName, "identity", participant, "joined_at", joinedAt)
		return nil
	})
}

// OnLeave closes the session window: it records user_left_at once and the
// chat duration, floored at zero against clock skew. A leave without a
// prior join is data-missing, not fatal.
func (t *Tracker) OnLeave(roomName, participant string) {
	if t.skipParticipant(roomName, participant, "leave") {
		return
	}
	leftAt := t.now()
	t.tasks.Submit("mark_left", func(ctx context.Context) error {
		sess, err := t.repo.FindRoom(ctx, roomName)
		if err != nil {
			return fmt.Errorf("failed to load room session: %w", err)
		}
		if sess == nil || sess.UserJoinedAt == nil {
			slog.Warn("leave without recorded join, skipping", "room_name", roomName, "identity", participant)
			return nil
		}
		if sess.UserLeftAt != nil {
			slog.Debug("leave already recorded", "room_name", roomName, "identity", participant)
			return nil
		}
		joinedAt := *sess.UserJoinedAt
		duration := int64(leftAt.Sub(joinedAt) / time.Second)
		if duration < 0 {
			duration = 0
		}
		if err := t.repo.MarkLeft(ctx, roomName, leftAt, duration); err != nil {
			return fmt.Errorf("failed to mark user left: %w", err)
		}
		slog.Info("user left room", "room_name", roomName, "identity", participant, "left_at", leftAt, "chat_duration_seconds", duration)
		if t.onSessionClosed != nil {
			t.onSessionClosed(ctx, roomName, joinedAt, leftAt, duration)
		}
		return nil
	})
}

// SyncPresent synthesizes joins for participants already in the room when
// the pipeline attached; the live event stream only reports transitions
// that happen afterwards.
func (t *Tracker) SyncPresent(roomName string, identities []string) {
	for _, id := range identities {
		if strings.TrimSpace(id) == "" || identity.IsAgent(id, t.agentPrefix) {
			continue
		}
		t.OnJoin(roomName, id)
	}
}

func (t *Tracker) skipParticipant(roomName, participant, action string) bool {
	if strings.TrimSpace(participant) == "" {
		slog.Debug("ignoring presence event without identity", "room_name", roomName, "action", action)
		return true
	}
	if identity.IsAgent(participant, t.agentPrefix) {
		slog.Debug("ignoring agent presence event", "room_name", roomName, "identity", participant, "action", action)
		return true
	}
	return false
}

package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pigletlabs/peppavoice/internal/config"
	"github.com/pigletlabs/peppavoice/internal/notify"
	"github.com/pigletlabs/peppavoice/internal/repository"
	"github.com/pigletlabs/peppavoice/internal/room"
	"github.com/pigletlabs/peppavoice/internal/task"
	"github.com/pigletlabs/peppavoice/internal/transcript"
)

// Manager is the ownership root for one room attachment. It owns the
// Tracker, the Reconciler (and with it the dedup set) and the handler
// registrations, so tearing a session down means discarding one object.
type Manager struct {
	cfg      *config.Config
	rooms    room.Client
	runner   *task.Runner
	notifier notify.Sender

	attachID   string
	tracker    *Tracker
	reconciler *transcript.Reconciler
}

func NewManager(cfg *config.Config, repo repository.Repository, rooms room.Client, runner *task.Runner, notifier notify.Sender) *Manager {
	m := &Manager{
		cfg:      cfg,
		rooms:    rooms,
		runner:   runner,
		notifier: notifier,
		attachID: uuid.NewString(),
	}
	m.tracker = NewTracker(repo, runner, cfg.AgentIdentityPrefix)
	m.tracker.SetSessionClosedHook(m.sessionClosed)
	m.reconciler = transcript.NewReconciler(
		cfg.RoomName,
		repo,
		rooms,
		runner,
		cfg.AgentIdentityPrefix,
		time.Duration(cfg.PollIntervalSeconds)*time.Second,
	)
	return m
}

// Attach registers the presence and conversation handlers and synthesizes
// joins for participants already present; the live stream only reports
// transitions after this point.
func (m *Manager) Attach() {
	m.rooms.RegisterParticipantHandler(m.tracker.HandleParticipantEvent)
	m.rooms.RegisterConversationHandler(m.reconciler.HandleConversationEvent)

	participants, err := m.rooms.ListParticipants(m.cfg.RoomName)
	if err != nil {
		slog.Warn("failed to enumerate participants on attach", "error", err, "room_name", m.cfg.RoomName, "attach_id", m.attachID)
		return
	}
	m.tracker.SyncPresent(m.cfg.RoomName, participants)
	slog.Info("attached to room", "room_name", m.cfg.RoomName, "attach_id", m.attachID, "participants", len(participants))
}

// RunReconcilePoll blocks running the transcript reconciliation poll until
// the context is canceled.
func (m *Manager) RunReconcilePoll(ctx context.Context) error {
	return m.reconciler.Run(ctx)
}

// Close logs the final task counters. In-flight persistence tasks are not
// canceled here; the runner drains them on Stop.
func (m *Manager) Close() {
	stats := m.runner.Stats()
	slog.Info("session manager closed",
		"room_name", m.cfg.RoomName,
		"attach_id", m.attachID,
		"tasks_submitted", stats.Submitted,
		"tasks_dropped", stats.Dropped,
		"tasks_failed", stats.Failed)
}

func (m *Manager) sessionClosed(ctx context.Context, roomName string, joinedAt, leftAt time.Time, durationSeconds int64) {
	err := m.notifier.SendSessionClosed(ctx, notify.SessionClosedPayload{
		RoomName:            roomName,
		UserJoinedAt:        joinedAt,
		UserLeftAt:          leftAt,
		ChatDurationSeconds: durationSeconds,
	})
	if err != nil {
		slog.Error("failed to send session-closed notification", "error", err, "room_name", roomName)
	}
}

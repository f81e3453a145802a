package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pigletlabs/peppavoice/internal/identity"
	"github.com/pigletlabs/peppavoice/internal/repository"
	"github.com/pigletlabs/peppavoice/internal/room"
)

// pollBackoffFactor stretches the poll interval after a failed sweep so a
// flapping history source does not get hammered.
const pollBackoffFactor = 5

// dedupContentPrefixLen bounds the content portion of a dedup key.
const dedupContentPrefixLen = 32

// RoomSource is the slice of the room client the reconciler needs: the
// current roster and the live conversation history.
type RoomSource interface {
	ListParticipants(roomName string) ([]string, error)
	History(roomName string) ([]room.HistoryMessage, error)
}

// TaskSubmitter schedules detached persistence work.
type TaskSubmitter interface {
	Submit(name string, fn func(context.Context) error) bool
}

// Reconciler turns conversation notifications and the periodic history
// sweep into persisted ConversationRecords. Event capture and the sweep
// together give at-least-once delivery; the seen set bounds duplicate
// writes within one process run. The set is owned here and nowhere else;
// discarding the Reconciler discards it.
type Reconciler struct {
	roomName     string
	repo         repository.ConversationRepository
	rooms        RoomSource
	tasks        TaskSubmitter
	agentPrefix  string
	pollInterval time.Duration
	now          func() time.Time

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewReconciler(roomName string, repo repository.ConversationRepository, rooms RoomSource, tasks TaskSubmitter, agentPrefix string, pollInterval time.Duration) *Reconciler {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Reconciler{
		roomName:     roomName,
		repo:         repo,
		rooms:        rooms,
		tasks:        tasks,
		agentPrefix:  agentPrefix,
		pollInterval: pollInterval,
		now:          time.Now,
		seen:         make(map[string]struct{}),
	}
}

// HandleConversationEvent normalizes and persists one notification. It
// never blocks and never returns an error to the event path.
func (r *Reconciler) HandleConversationEvent(ev room.ConversationEvent) {
	u, ok := Normalize(ev, r.agentPrefix)
	if !ok {
		slog.Debug("dropping conversation event without content", "room_name", ev.RoomName, "event", ev.Name)
		return
	}

	userID := u.UserID
	if userID == "" {
		resolved, found := r.resolveRosterUser()
		if !found {
			slog.Debug("dropping unattributable conversation event", "room_name", r.roomName, "event", ev.Name)
			return
		}
		userID = resolved
	}

	r.persist(userID, u.Role, u.Content)

	// Mark the matching history position so the poll does not write the
	// same utterance again. If the message has not reached the history yet
	// the poll may still re-persist it; capture is at-least-once.
	r.markHistorySeen(u.Content)
}

// markHistorySeen consumes exactly one unseen history position for the
// persisted content. One event corresponds to one utterance; later
// positions with identical text are distinct utterances and stay eligible
// for the sweep.
func (r *Reconciler) markHistorySeen(content string) {
	history, err := r.rooms.History(r.roomName)
	if err != nil {
		slog.Debug("failed to read history while marking seen", "error", err, "room_name", r.roomName)
		return
	}
	for i, msg := range history {
		if strings.TrimSpace(msg.Content) != content {
			continue
		}
		key, ok := dedupKey(i, msg.Content)
		if !ok {
			continue
		}
		if !r.markSeen(key) {
			return
		}
	}
}

// Run is the reconciliation poll. Each wake sweeps the live history for
// messages not yet seen and persists them. A failed sweep backs the loop
// off rather than terminating it; only context cancellation stops it.
func (r *Reconciler) Run(ctx context.Context) error {
	interval := r.pollInterval
	timer := time.NewTimer(interval)
	defer timer.Stop()
	slog.Info("transcript reconciliation poll started", "room_name", r.roomName, "interval", interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("transcript reconciliation poll stopped", "room_name", r.roomName)
			return nil
		case <-timer.C:
		}
		if err := r.Sweep(); err != nil {
			slog.Warn("history sweep failed, backing off", "error", err, "room_name", r.roomName)
			timer.Reset(interval * pollBackoffFactor)
			continue
		}
		timer.Reset(interval)
	}
}

// Sweep inspects the live conversation history once and persists every
// message not yet seen this run.
func (r *Reconciler) Sweep() error {
	history, err := r.rooms.History(r.roomName)
	if err != nil {
		return fmt.Errorf("failed to read conversation history: %w", err)
	}

	var (
		rosterUser   string
		rosterLooked bool
	)
	for i, msg := range history {
		key, ok := dedupKey(i, msg.Content)
		if !ok {
			continue
		}
		if r.markSeen(key) {
			continue
		}

		if !rosterLooked {
			rosterLooked = true
			rosterUser, _ = r.resolveRosterUser()
		}
		if rosterUser == "" {
			slog.Debug("skipping history message without attributable user", "room_name", r.roomName, "index", i)
			r.unmarkSeen(key)
			continue
		}

		role, found := CanonicalRole(msg.Role)
		if !found {
			role = RoleForIndex(i)
		}
		r.persist(rosterUser, role, strings.TrimSpace(msg.Content))
	}
	return nil
}

func (r *Reconciler) persist(userID string, role repository.Role, content string) {
	createdAt := r.now()
	r.tasks.Submit("append_conversation", func(ctx context.Context) error {
		_, err := r.repo.AppendConversation(ctx, repository.AppendConversationInput{
			RoomName:  r.roomName,
			UserID:    userID,
			Role:      role,
			Content:   content,
			CreatedAt: createdAt,
		})
		if err != nil {
			return fmt.Errorf("failed to append conversation record: %w", err)
		}
		return nil
	})
}

func (r *Reconciler) resolveRosterUser() (string, bool) {
	participants, err := r.rooms.ListParticipants(r.roomName)
	if err != nil {
		slog.Debug("failed to list room participants", "error", err, "room_name", r.roomName)
		return "", false
	}
	return identity.FirstHuman(participants, r.agentPrefix)
}

// markSeen records the key and reports whether it was already present.
func (r *Reconciler) markSeen(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[key]; ok {
		return true
	}
	r.seen[key] = struct{}{}
	return false
}

func (r *Reconciler) unmarkSeen(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.seen, key)
}

// dedupKey identifies a history message by its position plus a content
// prefix. Returns false for blank messages, which are never persisted.
func dedupKey(index int, content string) (string, bool) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", false
	}
	prefix := trimmed
	if len(prefix) > dedupContentPrefixLen {
		prefix = prefix[:dedupContentPrefixLen]
	}
	return fmt.Sprintf("%d:%s", index, prefix), true
}

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pigletlabs/peppavoice/internal/repository"
	"github.com/pigletlabs/peppavoice/internal/room"
)

type trackerRepo struct {
	mu              sync.Mutex
	sessions        map[string]*repository.RoomSession
	findErr         error
	markJoinedCalls int
	markLeftCalls   int
}

func newTrackerRepo() *trackerRepo {
	return &trackerRepo{sessions: make(map[string]*repository.RoomSession)}
}

func (r *trackerRepo) FindRoom(_ context.Context, name string) (*repository.RoomSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	sess, ok := r.sessions[name]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (r *trackerRepo) MarkJoined(_ context.Context, name string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markJoinedCalls++
	sess, ok := r.sessions[name]
	if !ok {
		sess = &repository.RoomSession{RoomName: name}
		r.sessions[name] = sess
	}
	if sess.UserJoinedAt == nil {
		t := at
		sess.UserJoinedAt = &t
	}
	return nil
}

func (r *trackerRepo) MarkLeft(_ context.Context, name string, at time.Time, durationSeconds int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markLeftCalls++
	sess, ok := r.sessions[name]
	if !ok || sess.UserLeftAt != nil {
		return nil
	}
	t := at
	sess.UserLeftAt = &t
	sess.ChatDurationSeconds = durationSeconds
	return nil
}

func (r *trackerRepo) session(name string) repository.RoomSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[name]
	if !ok {
		return repository.RoomSession{}
	}
	return *sess
}

// inlineTasks runs submitted tasks synchronously.
type inlineTasks struct{}

func (inlineTasks) Submit(_ string, fn func(context.Context) error) bool {
	_ = fn(context.Background())
	return true
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func newTestTracker(repo *trackerRepo, clock *fakeClock) *Tracker {
	tr := NewTracker(repo, inlineTasks{}, "agent:")
	tr.now = clock.Now
	return tr
}

var sessionStart = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func TestOnJoin_SetsJoinedOnce(t *testing.T) {
	repo := newTrackerRepo()
	clock := &fakeClock{t: sessionStart}
	tr := newTestTracker(repo, clock)

	tr.OnJoin("room-1", "alice")
	clock.set(sessionStart.Add(30 * time.Second))
	tr.OnJoin("room-1", "alice")

	sess := repo.session("room-1")
	if sess.UserJoinedAt == nil || !sess.UserJoinedAt.Equal(sessionStart) {
		t.Fatalf("expected joined_at to keep the first value, got %v", sess.UserJoinedAt)
	}
	if repo.markJoinedCalls != 1 {
		t.Fatalf("expected one MarkJoined call, got %d", repo.markJoinedCalls)
	}
}

func TestOnLeave_ComputesDuration(t *testing.T) {
	repo := newTrackerRepo()
	clock := &fakeClock{t: sessionStart}
	tr := newTestTracker(repo, clock)

	tr.OnJoin("room-1", "alice")
	clock.set(sessionStart.Add(125 * time.Second))
	tr.OnLeave("room-1", "alice")

	sess := repo.session("room-1")
	if sess.UserLeftAt == nil {
		t.Fatal("expected left_at to be set")
	}
	if sess.ChatDurationSeconds != 125 {
		t.Fatalf("expected duration 125, got %d", sess.ChatDurationSeconds)
	}
}

func TestOnLeave_ClockSkewFloorsAtZero(t *testing.T) {
	repo := newTrackerRepo()
	clock := &fakeClock{t: sessionStart}
	tr := newTestTracker(repo, clock)

	tr.OnJoin("room-1", "alice")
	clock.set(sessionStart.Add(-10 * time.Second))
	tr.OnLeave("room-1", "alice")

	sess := repo.session("room-1")
	if sess.ChatDurationSeconds != 0 {
		t.Fatalf("expected duration floored at 0, got %d", sess.ChatDurationSeconds)
	}
}

func TestOnLeave_Idempotent(t *testing.T) {
	repo := newTrackerRepo()
	clock := &fakeClock{t: sessionStart}
	tr := newTestTracker(repo, clock)

	tr.OnJoin("room-1", "alice")
	firstLeave := sessionStart.Add(60 * time.Second)
	clock.set(firstLeave)
	tr.OnLeave("room-1", "alice")
	clock.set(sessionStart.Add(300 * time.Second))
	tr.OnLeave("room-1", "alice")

	sess := repo.session("room-1")
	if sess.UserLeftAt == nil || !sess.UserLeftAt.Equal(firstLeave) {
		t.Fatalf("expected left_at to keep the first value, got %v", sess.UserLeftAt)
	}
	if sess.ChatDurationSeconds != 60 {
		t.Fatalf("expected duration 60, got %d", sess.ChatDurationSeconds)
	}
	if repo.markLeftCalls != 1 {
		t.Fatalf("expected one MarkLeft call, got %d", repo.markLeftCalls)
	}
}

func TestOnLeave_WithoutJoinSkips(t *testing.T) {
	repo := newTrackerRepo()
	clock := &fakeClock{t: sessionStart}
	tr := newTestTracker(repo, clock)

	tr.OnLeave("room-1", "alice")

	if repo.markLeftCalls != 0 {
		t.Fatalf("expected no MarkLeft call without a prior join, got %d", repo.markLeftCalls)
	}
}

func TestAgentIdentityIgnored(t *testing.T) {
	repo := newTrackerRepo()
	clock := &fakeClock{t: sessionStart}
	tr := newTestTracker(repo, clock)

	tr.OnJoin("room-1", "agent:peppa")
	tr.OnLeave("room-1", "agent:peppa")
	tr.HandleParticipantEvent(room.ParticipantEvent{RoomName: "room-1", Identity: "agent:peppa", Joined: true})

	if repo.markJoinedCalls != 0 || repo.markLeftCalls != 0 {
		t.Fatalf("expected no repository mutations for the agent identity, got join=%d leave=%d",
			repo.markJoinedCalls, repo.markLeftCalls)
	}
}

func TestSyncPresent(t *testing.T) {
	repo := newTrackerRepo()
	clock := &fakeClock{t: sessionStart}
	tr := newTestTracker(repo, clock)

	tr.SyncPresent("room-1", []string{"agent:peppa", "", "alice"})

	sess := repo.session("room-1")
	if sess.UserJoinedAt == nil || !sess.UserJoinedAt.Equal(sessionStart) {
		t.Fatalf("expected a synthesized join for alice, got %v", sess.UserJoinedAt)
	}
	if repo.markJoinedCalls != 1 {
		t.Fatalf("expected exactly one MarkJoined call, got %d", repo.markJoinedCalls)
	}
}

func TestRepositoryFailureNotPropagated(t *testing.T) {
	repo := newTrackerRepo()
	repo.findErr = errors.New("gateway unavailable")
	clock := &fakeClock{t: sessionStart}
	tr := newTestTracker(repo, clock)

	// Must not panic or surface the error to the event path.
	tr.OnJoin("room-1", "alice")
	tr.OnLeave("room-1", "alice")

	if repo.markJoinedCalls != 0 || repo.markLeftCalls != 0 {
		t.Fatal("expected no mutations when the gateway is unavailable")
	}
}

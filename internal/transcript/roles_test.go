package transcript

import (
	"testing"

	"github.com/pigletlabs/peppavoice/internal/repository"
)

func TestCanonicalRole(t *testing.T) {
	userSpellings := []string{"user", "remote", "participant", "Remote", " PARTICIPANT "}
	for _, raw := range userSpellings {
		role, ok := CanonicalRole(raw)
		if !ok || role != repository.RoleUser {
			t.Fatalf("expected %q to canonicalize to user, got %q (ok=%v)", raw, role, ok)
		}
	}

	agentSpellings := []string{"assistant", "agent", "local", "Assistant"}
	for _, raw := range agentSpellings {
		role, ok := CanonicalRole(raw)
		if !ok || role != repository.RoleAgent {
			t.Fatalf("expected %q to canonicalize to agent, got %q (ok=%v)", raw, role, ok)
		}
	}

	for _, raw := range []string{"", "system", "moderator"} {
		if _, ok := CanonicalRole(raw); ok {
			t.Fatalf("expected %q to not canonicalize", raw)
		}
	}
}

func TestRoleFromEventName(t *testing.T) {
	role, ok := RoleFromEventName("user_input_transcribed")
	if !ok || role != repository.RoleUser {
		t.Fatalf("expected user role, got %q (ok=%v)", role, ok)
	}
	role, ok = RoleFromEventName("agent_response")
	if !ok || role != repository.RoleAgent {
		t.Fatalf("expected agent role, got %q (ok=%v)", role, ok)
	}
	role, ok = RoleFromEventName("assistant_reply")
	if !ok || role != repository.RoleAgent {
		t.Fatalf("expected agent role, got %q (ok=%v)", role, ok)
	}
	if _, ok := RoleFromEventName("conversation_item_added"); ok {
		t.Fatal("expected no role from a neutral event name")
	}
}

func TestRoleForIndex(t *testing.T) {
	if RoleForIndex(0) != repository.RoleUser || RoleForIndex(2) != repository.RoleUser {
		t.Fatal("expected even indexes to map to user")
	}
	if RoleForIndex(1) != repository.RoleAgent || RoleForIndex(3) != repository.RoleAgent {
		t.Fatal("expected odd indexes to map to agent")
	}
}

package transcript

import (
	"strings"

	"github.com/pigletlabs/peppavoice/internal/repository"
)

// CanonicalRole maps the role spellings seen across runtime versions onto
// the two persisted roles. The mapping is case-insensitive.
func CanonicalRole(raw string) (repository.Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user", "remote", "participant":
		return repository.RoleUser, true
	case "assistant", "agent", "local":
		return repository.RoleAgent, true
	default:
		return "", false
	}
}

// RoleFromEventName infers a role from the event name itself, e.g.
// "user_input_transcribed" or "agent_response".
func RoleFromEventName(name string) (repository.Role, bool) {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "user") {
		return repository.RoleUser, true
	}
	if strings.Contains(lower, "agent") || strings.Contains(lower, "assistant") {
		return repository.RoleAgent, true
	}
	return "", false
}

// RoleForIndex is the last-resort parity heuristic for polled history
// messages that carry no role: turn-based dialogue alternates strictly, so
// even positions are the user and odd positions the agent. It is a known
// approximation; two consecutive utterances from one speaker mislabel the
// second.
func RoleForIndex(i int) repository.Role {
	if i%2 == 0 {
		return repository.RoleUser
	}
	return repository.RoleAgent
}

// Package identity filters participant identities so that the agent's own
// presence in a room never counts as a human participant.
package identity

import "strings"

// IsAgent reports whether the identity is the agent itself, following the
// convention that agent identities carry a fixed prefix (e.g. "agent:peppa").
func IsAgent(id, prefix string) bool {
	if prefix == "" {
		return false
	}
	return strings.HasPrefix(id, prefix)
}

// FirstHuman returns the first identity that is non-empty and not the agent.
func FirstHuman(ids []string, prefix string) (string, bool) {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			continue
		}
		if IsAgent(id, prefix) {
			continue
		}
		return id, true
	}
	return "", false
}

package transcript

import (
	"strings"

	"github.com/pigletlabs/peppavoice/internal/identity"
	"github.com/pigletlabs/peppavoice/internal/repository"
	"github.com/pigletlabs/peppavoice/internal/room"
)

// Utterance is the canonical form every conversation notification is
// reduced to before any downstream logic runs. UserID may be empty; the
// reconciler resolves it against the roster.
type Utterance struct {
	Role    repository.Role
	Content string
	UserID  string
}

// Normalize flattens one conversation event into an Utterance. The runtime
// delivers payloads as fielded items, plain strings or key-value maps; this
// is the only place that branches on the concrete shape. Returns false when
// the event carries no usable content.
func Normalize(ev room.ConversationEvent, agentPrefix string) (Utterance, bool) {
	flat := flatten(ev.Payload)

	content := strings.TrimSpace(flat.content)
	if content == "" {
		return Utterance{}, false
	}

	eventIdentity := firstNonEmpty(flat.identity, ev.ParticipantIdentity)

	var userID string
	if eventIdentity != "" && !identity.IsAgent(eventIdentity, agentPrefix) {
		userID = eventIdentity
	}

	return Utterance{
		Role:    resolveRole(flat.roleHints, ev.Name, eventIdentity, agentPrefix),
		Content: content,
		UserID:  userID,
	}, true
}

// flatPayload is the shape-independent view of a payload: the text, the
// role hints in priority order, and any embedded participant identity.
type flatPayload struct {
	content   string
	roleHints []string
	identity  string
}

func flatten(payload any) flatPayload {
	switch p := payload.(type) {
	case nil:
		return flatPayload{}
	case room.ConversationItem:
		return flattenItem(p)
	case *room.ConversationItem:
		if p == nil {
			return flatPayload{}
		}
		return flattenItem(*p)
	case string:
		return flatPayload{content: p}
	case map[string]any:
		return flattenMap(p)
	default:
		return flatPayload{}
	}
}

func flattenItem(item room.ConversationItem) flatPayload {
	content := item.Content
	if content == "" && len(item.ContentParts) > 0 {
		content = joinParts(item.ContentParts)
	}
	return flatPayload{
		content:   content,
		roleHints: []string{item.Role, item.Source, item.Sender},
		identity:  item.ParticipantIdentity,
	}
}

func flattenMap(m map[string]any) flatPayload {
	// An event may nest the actual item under "item"; its fields take
	// priority over the event's own.
	var nested flatPayload
	switch inner := m["item"].(type) {
	case map[string]any:
		nested = flattenMap(inner)
	case room.ConversationItem:
		nested = flattenItem(inner)
	case *room.ConversationItem:
		if inner != nil {
			nested = flattenItem(*inner)
		}
	}

	own := flatPayload{
		content:   stringContent(m, "content", "text", "message"),
		roleHints: []string{stringField(m, "role"), stringField(m, "source"), stringField(m, "sender")},
		identity:  firstNonEmpty(stringField(m, "participant_identity"), stringField(m, "identity"), stringField(m, "user_id")),
	}

	return flatPayload{
		content:   firstNonEmpty(nested.content, own.content),
		roleHints: append(nested.roleHints, own.roleHints...),
		identity:  firstNonEmpty(nested.identity, own.identity),
	}
}

func resolveRole(hints []string, eventName, eventIdentity, agentPrefix string) repository.Role {
	for _, hint := range hints {
		if role, ok := CanonicalRole(hint); ok {
			return role
		}
	}
	if role, ok := RoleFromEventName(eventName); ok {
		return role
	}
	if eventIdentity != "" {
		if identity.IsAgent(eventIdentity, agentPrefix) {
			return repository.RoleAgent
		}
		return repository.RoleUser
	}
	return repository.RoleUser
}

// joinParts concatenates multi-part content with single spaces, skipping
// blank parts.
func joinParts(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, " ")
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func stringContent(m map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case []any:
			parts := make([]string, 0, len(v))
			for _, entry := range v {
				if s, ok := entry.(string); ok {
					parts = append(parts, s)
				}
			}
			if joined := joinParts(parts); joined != "" {
				return joined
			}
		case []string:
			if joined := joinParts(v); joined != "" {
				return joined
			}
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

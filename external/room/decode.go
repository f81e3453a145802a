package room

import (
	"encoding/json"
	"fmt"

	"github.com/pigletlabs/peppavoice/internal/room"
)

type frameKind int

const (
	frameIgnore frameKind = iota
	frameRoster
	frameJoin
	frameLeave
	frameHistory
	frameConversation
)

type participantRef struct {
	Identity string `json:"identity"`
}

type historyEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type envelope struct {
	Event        string          `json:"event"`
	Room         string          `json:"room"`
	Participant  *participantRef `json:"participant"`
	Participants []string        `json:"participants"`
	Messages     []historyEntry  `json:"messages"`
}

type decodedFrame struct {
	kind         frameKind
	roomName     string
	identity     string
	participants []string
	history      []room.HistoryMessage
	conversation room.ConversationEvent
}

// decodeFrame maps one wire frame onto a shim event. Presence, roster and
// history frames have a stable envelope; everything else that names an
// event is handed to the transcript boundary as-is, since conversation
// frames have gone through several shapes across runtime versions.
func decodeFrame(data []byte) (decodedFrame, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return decodedFrame{}, fmt.Errorf("failed to decode event frame: %w", err)
	}
	if env.Event == "" {
		return decodedFrame{kind: frameIgnore}, nil
	}

	switch env.Event {
	case "roster":
		return decodedFrame{
			kind:         frameRoster,
			roomName:     env.Room,
			participants: env.Participants,
		}, nil
	case "participant_connected", "participant_disconnected":
		identity := ""
		if env.Participant != nil {
			identity = env.Participant.Identity
		}
		kind := frameJoin
		if env.Event == "participant_disconnected" {
			kind = frameLeave
		}
		return decodedFrame{kind: kind, roomName: env.Room, identity: identity}, nil
	case "history":
		messages := make([]room.HistoryMessage, 0, len(env.Messages))
		for _, m := range env.Messages {
			messages = append(messages, room.HistoryMessage{Role: m.Role, Content: m.Content})
		}
		return decodedFrame{kind: frameHistory, roomName: env.Room, history: messages}, nil
	}

	// Conversation-item frame. The payload keeps its raw map shape so the
	// normalization boundary sees exactly what the runtime sent.
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return decodedFrame{}, fmt.Errorf("failed to decode conversation frame: %w", err)
	}
	identity := ""
	if env.Participant != nil {
		identity = env.Participant.Identity
	}
	return decodedFrame{
		kind:     frameConversation,
		roomName: env.Room,
		conversation: room.ConversationEvent{
			RoomName:            env.Room,
			Name:                env.Event,
			Payload:             payload,
			ParticipantIdentity: identity,
		},
	}, nil
}

package room

import "context"

// ParticipantEvent is a presence transition for one participant.
type ParticipantEvent struct {
	RoomName string
	Identity string
	Joined   bool
}

// ConversationItem is the fielded shape of a conversation notification.
// Not every emitter fills every field; Content and ContentParts are
// mutually exclusive in practice but both are tolerated.
type ConversationItem struct {
	Role                string
	Source              string
	Sender              string
	Content             string
	ContentParts        []string
	ParticipantIdentity string
}

// ConversationEvent is a conversation notification as delivered by the room
// runtime. Payload is deliberately untyped: depending on the emitter it is a
// ConversationItem, *ConversationItem, a plain string, a map[string]any, or
// a map with the item nested under "item". Normalization happens in exactly
// one place downstream; nothing else branches on the concrete shape.
type ConversationEvent struct {
	RoomName            string
	Name                string
	Payload             any
	ParticipantIdentity string
}

// HistoryMessage is one entry of the live in-memory conversation history
// kept by the pipeline. Role may be empty for older runtimes.
type HistoryMessage struct {
	Role    string
	Content string
}

// Client is the room runtime the agent is attached to. It delivers presence
// and conversation notifications and exposes the current roster plus the
// live conversation history for the reconciliation poll.
type Client interface {
	Connect(ctx context.Context) error
	Close() error
	// Run blocks reading events until the connection closes.
	Run() error
	RegisterParticipantHandler(handler func(ParticipantEvent))
	RegisterConversationHandler(handler func(ConversationEvent))
	ListParticipants(roomName string) ([]string, error)
	History(roomName string) ([]HistoryMessage, error)
}

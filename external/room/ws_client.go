package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pigletlabs/peppavoice/internal/room"
)

// WSClient attaches to the room server's event socket and fans frames out
// to registered handlers. It also mirrors the roster and the live
// conversation history, which the reconciliation poll reads.
type WSClient struct {
	serverURL string
	roomName  string
	token     string

	mu                   sync.Mutex
	conn                 *websocket.Conn
	closing              bool
	roster               map[string]struct{}
	history              []room.HistoryMessage
	participantHandlers  []func(room.ParticipantEvent)
	conversationHandlers []func(room.ConversationEvent)
}

func NewWSClient(serverURL, roomName, token string) *WSClient {
	return &WSClient{
		serverURL: serverURL,
		roomName:  roomName,
		token:     token,
		roster:    make(map[string]struct{}),
	}
}

func (c *WSClient) Connect(ctx context.Context) error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid room server url: %w", err)
	}
	u.Path = path.Join(u.Path, "rooms", c.roomName, "events")

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect room server (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("failed to connect room server: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.closing = false
	c.mu.Unlock()
	slog.Info("connected to room server", "room_name", c.roomName)
	return nil
}

func (c *WSClient) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.closing = true
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return conn.Close()
}

func (c *WSClient) Run() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("room client is not connected")
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closing := c.closing
			c.mu.Unlock()
			if closing {
				slog.Info("room connection closed", "room_name", c.roomName)
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Info("room server closed the connection", "room_name", c.roomName)
				return nil
			}
			return fmt.Errorf("room event read failed: %w", err)
		}

		frame, err := decodeFrame(data)
		if err != nil {
			slog.Warn("skipping undecodable event frame", "error", err, "room_name", c.roomName)
			continue
		}
		c.dispatch(frame)
	}
}

func (c *WSClient) RegisterParticipantHandler(handler func(room.ParticipantEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.participantHandlers = append(c.participantHandlers, handler)
}

func (c *WSClient) RegisterConversationHandler(handler func(room.ConversationEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversationHandlers = append(c.conversationHandlers, handler)
}

func (c *WSClient) ListParticipants(roomName string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := make([]string, 0, len(c.roster))
	for id := range c.roster {
		list = append(list, id)
	}
	return list, nil
}

func (c *WSClient) History(roomName string) ([]room.HistoryMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make([]room.HistoryMessage, len(c.history))
	copy(snapshot, c.history)
	return snapshot, nil
}

func (c *WSClient) dispatch(frame decodedFrame) {
	roomName := frame.roomName
	if roomName == "" {
		roomName = c.roomName
	}

	switch frame.kind {
	case frameRoster:
		c.mu.Lock()
		c.roster = make(map[string]struct{}, len(frame.participants))
		for _, id := range frame.participants {
			c.roster[id] = struct{}{}
		}
		c.mu.Unlock()
	case frameJoin, frameLeave:
		if frame.identity == "" {
			slog.Debug("presence frame without identity", "room_name", roomName)
			return
		}
		joined := frame.kind == frameJoin
		c.mu.Lock()
		if joined {
			c.roster[frame.identity] = struct{}{}
		} else {
			delete(c.roster, frame.identity)
		}
		handlers := append([]func(room.ParticipantEvent){}, c.participantHandlers...)
		c.mu.Unlock()
		ev := room.ParticipantEvent{RoomName: roomName, Identity: frame.identity, Joined: joined}
		for _, handler := range handlers {
			handler(ev)
		}
	case frameHistory:
		c.mu.Lock()
		c.history = frame.history
		c.mu.Unlock()
	case frameConversation:
		c.mu.Lock()
		handlers := append([]func(room.ConversationEvent){}, c.conversationHandlers...)
		c.mu.Unlock()
		ev := frame.conversation
		ev.RoomName = roomName
		for _, handler := range handlers {
			handler(ev)
		}
	}
}

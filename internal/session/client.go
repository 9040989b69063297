package session

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size in bytes. Commands are tiny.
	maxMessageSize = 512

	// Outbound buffer per subscriber. A full buffer marks the subscriber
	// as slow and the room drops it.
	sendBufferSize = 64
)

// subscriber is one websocket connection attached to a room. The room
// goroutine writes events into send; writePump drains it onto the wire.
type subscriber struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func newSubscriber(conn *websocket.Conn) *subscriber {
	return &subscriber{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// trySend queues data without blocking. Returns false when the buffer is
// full, signalling a slow consumer.
func (s *subscriber) trySend(data []byte) bool {
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

// writePump pushes queued events to the connection and keeps it alive with
// periodic pings. It owns all writes; exactly one writePump runs per
// subscriber.
func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *subscriber) sendEvent(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.trySend(data)
}

// ServeClient attaches a websocket connection to a room as the given player
// and pumps commands until the connection drops. Rejected commands are
// reported to this client alone as error events; applied ones reach every
// subscriber through the room's broadcast.
func ServeClient(room *Room, playerID uuid.UUID, name string, conn *websocket.Conn) {
	sub := newSubscriber(conn)
	go sub.writePump()

	if err := room.Connect(playerID, name, sub); err != nil {
		slog.Info("connection rejected", "game_id", room.ID(), "player_id", playerID, "error", err)
		sub.sendEvent(errorEvent{Type: EventError, Message: err.Error()})
		sub.close()
		return
	}
	defer room.Disconnect(sub)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read failed", "game_id", room.ID(), "player_id", playerID, "error", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			sub.sendEvent(errorEvent{Type: EventError, Message: "malformed command"})
			continue
		}

		if err := room.Submit(playerID, cmd); err != nil {
			if err == ErrRoomClosed {
				return
			}
			sub.sendEvent(errorEvent{Type: EventError, Message: err.Error()})
		}
	}
}

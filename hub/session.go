package hub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"pairchat/domain/event"

	"github.com/gorilla/websocket"
)

// Envelope is the wire frame for both directions: an event name plus its
// JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Session binds one live WebSocket to a (roomId, userId) pair and mediates
// between inbound client events and the engine. It is the connection
// identity the presence registry compares on join and leave.
type Session struct {
	RoomID string
	UserID string

	hub  *Hub
	conn *websocket.Conn
	log  *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
	once   sync.Once
}

func newSession(hub *Hub, conn *websocket.Conn, roomID, userID string, log *slog.Logger) *Session {
	return &Session{
		RoomID: roomID,
		UserID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		log:    log,
	}
}

// Deliver queues an outbound event for this connection. Best-effort: when
// the send buffer is full or the session has shut down, the event is
// dropped and the client recovers from the store on its next fetch.
//
// The router fans out from a presence snapshot without holding a lock, so
// Deliver must stay safe against a session closing mid-broadcast: the
// closed check and the channel send share the session mutex with shutdown.
func (s *Session) Deliver(e event.Outbound) {
	data, err := json.Marshal(e)
	if err != nil {
		s.log.Error("Failed to marshal outbound event", "event", e.Name(), "err", err)
		return
	}
	frame, err := json.Marshal(Envelope{Event: e.Name(), Data: data})
	if err != nil {
		s.log.Error("Failed to marshal envelope", "event", e.Name(), "err", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Debug("Session closed, dropping event", "event", e.Name(), "user", s.UserID)
		return
	}
	select {
	case s.send <- frame:
	default:
		s.log.Debug("Send buffer full, dropping event", "event", e.Name(), "user", s.UserID)
	}
}

// deliverError reports a failed request to the originator only.
func (s *Session) deliverError(message string) {
	s.Deliver(event.Error{Room: s.RoomID, Message: message})
}

// readPump reads frames from the client and dispatches them until the
// connection dies, then triggers the disconnect path exactly once.
func (s *Session) readPump() {
	defer s.close()
	for {
		var envelope Envelope
		if err := s.conn.ReadJSON(&envelope); err != nil {
			s.log.Debug(fmt.Sprintf("Read loop ending for %s: %v", s.UserID, err))
			return
		}
		s.hub.dispatch(s, envelope)
	}
}

// writePump drains the send channel onto the socket.
func (s *Session) writePump() {
	defer s.conn.Close()
	for frame := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			s.log.Debug(fmt.Sprintf("Write loop ending for %s: %v", s.UserID, err))
			return
		}
	}
}

func (s *Session) close() {
	s.once.Do(func() {
		s.hub.disconnect(s)
		s.shutdown()
		_ = s.conn.Close()
	})
}

// shutdown marks the session closed and releases the write pump. Both
// happen under the mutex, so no Deliver can reach the channel afterwards.
func (s *Session) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	close(s.send)
}

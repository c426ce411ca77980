package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 8192
	sendBuffer   = 64
)

// BoardAccess answers whether a user may join a board's room
type BoardAccess interface {
	IsMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error)
}

// Session is one websocket connection owned by an authenticated user.
// A user can hold several sessions at once (multiple tabs or devices);
// each joins and leaves rooms independently.
type Session struct {
	ID       string
	UserID   uuid.UUID
	UserName string

	hub    *Hub
	conn   *websocket.Conn
	access BoardAccess
	send   chan []byte
}

// NewSession wraps an upgraded connection in a session
func NewSession(hub *Hub, conn *websocket.Conn, userID uuid.UUID, userName string, access BoardAccess) *Session {
	return &Session{
		ID:       uuid.New().String(),
		UserID:   userID,
		UserName: userName,
		hub:      hub,
		conn:     conn,
		access:   access,
		send:     make(chan []byte, sendBuffer),
	}
}

// Run registers the session, pumps frames in both directions, and blocks
// until the connection drops. Room cleanup and userLeft announcements
// happen on the way out.
func (s *Session) Run() {
	s.hub.Register(s)
	go s.writePump()
	s.readPump()
}

func (s *Session) readPump() {
	defer func() {
		s.hub.Unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxFrameSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Session %s read error: %v", s.ID, err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Printf("Session %s sent malformed frame: %v", s.ID, err)
			continue
		}
		s.handleFrame(frame)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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

func (s *Session) handleFrame(frame Frame) {
	switch frame.Event {
	case EventJoinBoard:
		boardID, ok := s.parseBoardID(frame.Data)
		if !ok {
			return
		}
		allowed, err := s.access.IsMember(context.Background(), boardID, s.UserID)
		if err != nil {
			log.Printf("Session %s membership check failed for board %s: %v", s.ID, boardID, err)
			return
		}
		if !allowed {
			log.Printf("Session %s denied access to board %s", s.ID, boardID)
			return
		}
		s.hub.Join(s, BoardRoom(boardID))

	case EventLeaveBoard:
		boardID, ok := s.parseBoardID(frame.Data)
		if !ok {
			return
		}
		s.hub.Leave(s, BoardRoom(boardID))

	case EventTyping:
		var payload TypingPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			log.Printf("Session %s sent malformed typing payload: %v", s.ID, err)
			return
		}
		s.hub.Relay(BoardRoom(payload.BoardID), EventUserTyping, UserTyping{
			UserID:    s.UserID,
			UserName:  s.UserName,
			IsTyping:  payload.IsTyping,
			SessionID: s.ID,
		}, s)

	case EventUpdatePresence:
		var payload PresencePayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			log.Printf("Session %s sent malformed presence payload: %v", s.ID, err)
			return
		}
		s.hub.Relay(BoardRoom(payload.BoardID), EventUserPresenceChanged, UserPresence{
			UserID:    s.UserID,
			Status:    payload.Status,
			SessionID: s.ID,
		}, s)

	default:
		log.Printf("Session %s sent unknown event %q", s.ID, frame.Event)
	}
}

func (s *Session) parseBoardID(data json.RawMessage) (uuid.UUID, bool) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// Some clients wrap the id in an object instead of a bare string
		var wrapped struct {
			BoardID string `json:"boardId"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			log.Printf("Session %s sent malformed board id: %v", s.ID, err)
			return uuid.Nil, false
		}
		raw = wrapped.BoardID
	}
	boardID, err := uuid.Parse(raw)
	if err != nil {
		log.Printf("Session %s sent invalid board id %q", s.ID, raw)
		return uuid.Nil, false
	}
	return boardID, true
}

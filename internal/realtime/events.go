package realtime

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Client -> server events
const (
	EventJoinBoard      = "joinBoard"
	EventLeaveBoard     = "leaveBoard"
	EventTyping         = "typing"
	EventUpdatePresence = "updatePresence"
)

// Server -> room events
const (
	EventNewMessage           = "newMessage"
	EventMessageEdited        = "messageEdited"
	EventMessageDeleted       = "messageDeleted"
	EventMessagesMarkedAsRead = "messagesMarkedAsRead"
	EventUserJoined           = "userJoined"
	EventUserLeft             = "userLeft"
	EventUserTyping           = "userTyping"
	EventUserPresenceChanged  = "userPresenceChanged"
)

// BoardRoom returns the room key for a board
func BoardRoom(boardID uuid.UUID) string {
	return "board_" + boardID.String()
}

// boardIDFromRoom parses the board id back out of a room key. Returns the
// zero uuid for keys that are not board rooms.
func boardIDFromRoom(room string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimPrefix(room, "board_"))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Frame is the wire format for socket traffic in both directions
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// TypingPayload is sent by clients while composing and relayed to the room
type TypingPayload struct {
	BoardID  uuid.UUID `json:"boardId"`
	UserID   uuid.UUID `json:"userId"`
	UserName string    `json:"userName"`
	IsTyping bool      `json:"isTyping"`
}

// PresencePayload carries a user's status change ("online", "away", "offline")
type PresencePayload struct {
	BoardID uuid.UUID `json:"boardId"`
	UserID  uuid.UUID `json:"userId"`
	Status  string    `json:"status"`
}

// RoomPresence identifies a session entering or leaving a room
type RoomPresence struct {
	SessionID string    `json:"sessionId"`
	BoardID   uuid.UUID `json:"boardId"`
}

// UserTyping is the relayed form of TypingPayload, stamped with the
// originating session
type UserTyping struct {
	UserID    uuid.UUID `json:"userId"`
	UserName  string    `json:"userName"`
	IsTyping  bool      `json:"isTyping"`
	SessionID string    `json:"sessionId"`
}

// UserPresence is the relayed form of PresencePayload
type UserPresence struct {
	UserID    uuid.UUID `json:"userId"`
	Status    string    `json:"status"`
	SessionID string    `json:"sessionId"`
}

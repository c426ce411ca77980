package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// RoomBroker fans an event out to every session subscribed to a room.
// The messaging service publishes through this interface after persisting,
// so REST writes never block on socket delivery.
type RoomBroker interface {
	Publish(room, event string, payload interface{}) error
}

// Hub tracks connected sessions and their room subscriptions.
// All maps are guarded by mu; sends to sessions are non-blocking and
// drop frames for slow consumers rather than stalling the room.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*Session]struct{}
	sessions map[*Session]map[string]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[string]map[*Session]struct{}),
		sessions: make(map[*Session]map[string]struct{}),
	}
}

// Register adds a connected session to the hub
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = make(map[string]struct{})
}

// Unregister removes a session and announces its departure to every room
// it had joined. The send channel is closed under the write lock: broadcast
// delivers while holding the read lock, so no delivery can race the close,
// and a session absent from the maps is never sent to again.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	joined, ok := h.sessions[s]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s)
	for room := range joined {
		if members, ok := h.rooms[room]; ok {
			delete(members, s)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	close(s.send)
	h.mu.Unlock()

	for room := range joined {
		h.broadcast(room, EventUserLeft, RoomPresence{SessionID: s.ID, BoardID: boardIDFromRoom(room)}, s)
	}
}

// Join subscribes a session to a room and tells the other members
func (h *Hub) Join(s *Session, room string) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.mu.Unlock()
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Session]struct{})
	}
	h.rooms[room][s] = struct{}{}
	h.sessions[s][room] = struct{}{}
	h.mu.Unlock()

	h.broadcast(room, EventUserJoined, RoomPresence{SessionID: s.ID, BoardID: boardIDFromRoom(room)}, s)
}

// Leave unsubscribes a session from a room and tells the remaining members
func (h *Hub) Leave(s *Session, room string) {
	h.mu.Lock()
	if members, ok := h.rooms[room]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if joined, ok := h.sessions[s]; ok {
		delete(joined, room)
	}
	h.mu.Unlock()

	h.broadcast(room, EventUserLeft, RoomPresence{SessionID: s.ID, BoardID: boardIDFromRoom(room)}, s)
}

// Publish delivers an event to every session in the room, including any
// sessions belonging to the user who triggered it
func (h *Hub) Publish(room, event string, payload interface{}) error {
	return h.broadcast(room, event, payload, nil)
}

// Relay delivers an event to every session in the room except the
// originating one. Used for typing and presence so clients do not echo
// their own activity back to themselves.
func (h *Hub) Relay(room, event string, payload interface{}, except *Session) error {
	return h.broadcast(room, event, payload, except)
}

func (h *Hub) broadcast(room, event string, payload interface{}, except *Session) error {
	frame, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}

	// Deliveries happen under the read lock. They are non-blocking, so the
	// lock is held only briefly, and Unregister's close of the send channel
	// (under the write lock) can never interleave with a send.
	h.mu.RLock()
	for s := range h.rooms[room] {
		if s == except {
			continue
		}
		select {
		case s.send <- frame:
		default:
			log.Printf("Dropping %s event for slow session %s", event, s.ID)
		}
	}
	h.mu.RUnlock()
	return nil
}

// RoomSize reports how many sessions are subscribed to a room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

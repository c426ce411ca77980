package realtime

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(buffer int) *Session {
	return &Session{
		ID:     uuid.New().String(),
		UserID: uuid.New(),
		send:   make(chan []byte, buffer),
	}
}

func receiveFrame(t *testing.T, s *Session) (string, json.RawMessage) {
	t.Helper()
	select {
	case raw := <-s.send:
		var frame struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &frame))
		return frame.Event, frame.Data
	default:
		t.Fatal("expected a frame, got none")
		return "", nil
	}
}

func assertNoFrame(t *testing.T, s *Session) {
	t.Helper()
	select {
	case raw := <-s.send:
		t.Fatalf("expected no frame, got %s", raw)
	default:
	}
}

func TestPublishReachesWholeRoom(t *testing.T) {
	hub := NewHub()
	room := BoardRoom(uuid.New())

	a := testSession(8)
	b := testSession(8)
	hub.Register(a)
	hub.Register(b)
	hub.Join(a, room)
	hub.Join(b, room)

	// Drain the join announcements
	receiveFrame(t, a)

	err := hub.Publish(room, EventNewMessage, map[string]string{"text": "hi"})
	assert.NoError(t, err)

	eventA, _ := receiveFrame(t, a)
	eventB, _ := receiveFrame(t, b)
	assert.Equal(t, EventNewMessage, eventA)
	assert.Equal(t, EventNewMessage, eventB)
}

func TestPublishIsRoomScoped(t *testing.T) {
	hub := NewHub()
	roomA := BoardRoom(uuid.New())
	roomB := BoardRoom(uuid.New())

	inA := testSession(8)
	inB := testSession(8)
	hub.Register(inA)
	hub.Register(inB)
	hub.Join(inA, roomA)
	hub.Join(inB, roomB)

	require.NoError(t, hub.Publish(roomA, EventNewMessage, nil))

	event, _ := receiveFrame(t, inA)
	assert.Equal(t, EventNewMessage, event)
	assertNoFrame(t, inB)
}

func TestJoinAnnouncesToOthersOnly(t *testing.T) {
	hub := NewHub()
	boardID := uuid.New()
	room := BoardRoom(boardID)

	first := testSession(8)
	second := testSession(8)
	hub.Register(first)
	hub.Register(second)

	hub.Join(first, room)
	assertNoFrame(t, first)

	hub.Join(second, room)
	event, data := receiveFrame(t, first)
	assert.Equal(t, EventUserJoined, event)

	var presence RoomPresence
	require.NoError(t, json.Unmarshal(data, &presence))
	assert.Equal(t, second.ID, presence.SessionID)
	assert.Equal(t, boardID, presence.BoardID)

	assertNoFrame(t, second)
}

func TestLeaveAnnouncesUserLeft(t *testing.T) {
	hub := NewHub()
	room := BoardRoom(uuid.New())

	stayer := testSession(8)
	leaver := testSession(8)
	hub.Register(stayer)
	hub.Register(leaver)
	hub.Join(stayer, room)
	hub.Join(leaver, room)
	receiveFrame(t, stayer) // join announcement

	hub.Leave(leaver, room)

	event, data := receiveFrame(t, stayer)
	assert.Equal(t, EventUserLeft, event)

	var presence RoomPresence
	require.NoError(t, json.Unmarshal(data, &presence))
	assert.Equal(t, leaver.ID, presence.SessionID)

	assert.Equal(t, 1, hub.RoomSize(room))
}

func TestUnregisterCleansUpAllRooms(t *testing.T) {
	hub := NewHub()
	roomA := BoardRoom(uuid.New())
	roomB := BoardRoom(uuid.New())

	watcher := testSession(8)
	dropper := testSession(8)
	hub.Register(watcher)
	hub.Register(dropper)
	hub.Join(watcher, roomA)
	hub.Join(dropper, roomA)
	hub.Join(dropper, roomB)
	receiveFrame(t, watcher) // join announcement

	hub.Unregister(dropper)

	event, _ := receiveFrame(t, watcher)
	assert.Equal(t, EventUserLeft, event)
	assert.Equal(t, 1, hub.RoomSize(roomA))
	assert.Equal(t, 0, hub.RoomSize(roomB))

	// The session's send channel is closed on unregister
	_, open := <-dropper.send
	assert.False(t, open)
}

func TestRelayExcludesOrigin(t *testing.T) {
	hub := NewHub()
	room := BoardRoom(uuid.New())

	typist := testSession(8)
	peer := testSession(8)
	hub.Register(typist)
	hub.Register(peer)
	hub.Join(typist, room)
	hub.Join(peer, room)
	receiveFrame(t, typist) // join announcement

	err := hub.Relay(room, EventUserTyping, UserTyping{
		UserID:    typist.UserID,
		UserName:  "Typist",
		IsTyping:  true,
		SessionID: typist.ID,
	}, typist)
	assert.NoError(t, err)

	event, _ := receiveFrame(t, peer)
	assert.Equal(t, EventUserTyping, event)
	assertNoFrame(t, typist)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	room := BoardRoom(uuid.New())

	s := testSession(8)
	hub.Register(s)
	hub.Join(s, room)

	hub.Unregister(s)
	// A second unregister (e.g. a racing cleanup path) must not close the
	// channel twice or touch room state
	hub.Unregister(s)

	_, open := <-s.send
	assert.False(t, open)
	assert.Equal(t, 0, hub.RoomSize(room))
}

func TestConcurrentPublishAndUnregister(t *testing.T) {
	// Publishers run on request goroutines while unregisters run on read
	// pumps; a disconnect mid-broadcast must never panic on the session's
	// closed send channel.
	for i := 0; i < 200; i++ {
		hub := NewHub()
		room := BoardRoom(uuid.New())

		leaving := testSession(1)
		staying := testSession(1)
		hub.Register(leaving)
		hub.Register(staying)
		hub.Join(leaving, room)
		hub.Join(staying, room)

		var wg sync.WaitGroup
		for p := 0; p < 4; p++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 25; j++ {
					require.NoError(t, hub.Publish(room, EventNewMessage, nil))
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Unregister(leaving)
		}()
		wg.Wait()

		assert.Equal(t, 1, hub.RoomSize(room))
	}
}

func TestSlowSessionDropsFramesWithoutBlocking(t *testing.T) {
	hub := NewHub()
	room := BoardRoom(uuid.New())

	slow := testSession(1)
	hub.Register(slow)
	hub.Join(slow, room)

	// Second publish overflows the buffer; it must not block
	require.NoError(t, hub.Publish(room, EventNewMessage, nil))
	require.NoError(t, hub.Publish(room, EventNewMessage, nil))

	receiveFrame(t, slow)
	assertNoFrame(t, slow)
}

package collab

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boardsync/boardsync-client/internal/client/session"
	"github.com/boardsync/boardsync-client/internal/cryptox"
	"github.com/boardsync/boardsync-client/internal/logging"
)

var upgrader = websocket.Upgrader{}

func testLogger() logging.Logger {
	return logging.NewZapLogger(zap.NewNop())
}

// relayServer upgrades one connection and echoes every frame back, the way
// the relay fans frames out to room members.
func relayServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		}
	}))
}

func TestRoom_JoinSendAndClose(t *testing.T) {
	server := relayServer(t)
	defer server.Close()

	room := NewRoom(server.URL, session.New(), testLogger())
	applied := make(chan Update, 1)
	room.OnUpdate(func(u Update) { applied <- u })

	require.NoError(t, room.Join(context.Background(), "room1", "secret", false))
	require.True(t, room.Active())
	require.False(t, room.AutoJoined())

	// the relay echoes our own frame back; it must be skipped, not applied
	require.NoError(t, room.Send([]byte(`{"shapes":[]}`)))

	select {
	case <-applied:
		t.Fatal("own echoed frame must not be applied")
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, room.Close())
	require.False(t, room.Active())
	require.ErrorIs(t, room.Send(nil), ErrNotActive)
}

func TestRoom_PeerUpdateIsDecrypted(t *testing.T) {
	server := relayServer(t)
	defer server.Close()

	room := NewRoom(server.URL, session.New(), testLogger())
	applied := make(chan Update, 1)
	room.OnUpdate(func(u Update) { applied <- u })

	require.NoError(t, room.Join(context.Background(), "room1", "secret", true))
	defer room.Close()

	// a frame sealed under the same room key by another participant
	key, err := cryptox.DeriveSealKey("secret")
	require.NoError(t, err)
	sealed, nonce, err := cryptox.SealPayload(Update{Sender: "peer", Content: []byte("hello")}, key)
	require.NoError(t, err)

	require.NoError(t, sendRaw(t, room, frame{Sender: "peer", Sealed: sealed, Nonce: nonce}))

	select {
	case u := <-applied:
		require.Equal(t, "peer", u.Sender)
		require.Equal(t, []byte("hello"), u.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for peer update")
	}
}

// sendRaw pushes a pre-built frame through the room's own connection; the
// echo relay bounces it back as if a peer had sent it.
func sendRaw(t *testing.T, room *Room, f frame) error {
	t.Helper()
	room.mu.Lock()
	conn := room.conn
	room.mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	return conn.WriteJSON(f)
}

func TestRoom_WrongKeyFramesAreDropped(t *testing.T) {
	server := relayServer(t)
	defer server.Close()

	room := NewRoom(server.URL, session.New(), testLogger())
	applied := make(chan Update, 1)
	room.OnUpdate(func(u Update) { applied <- u })

	require.NoError(t, room.Join(context.Background(), "room1", "secret", true))
	defer room.Close()

	otherKey, err := cryptox.DeriveSealKey("not-the-room-key")
	require.NoError(t, err)
	sealed, nonce, err := cryptox.SealPayload(Update{Sender: "peer", Content: []byte("evil")}, otherKey)
	require.NoError(t, err)
	require.NoError(t, sendRaw(t, room, frame{Sender: "peer", Sealed: sealed, Nonce: nonce}))

	select {
	case <-applied:
		t.Fatal("frame sealed under a different key must not be applied")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRoom_AutoJoinRefusesLeave(t *testing.T) {
	server := relayServer(t)
	defer server.Close()

	room := NewRoom(server.URL, session.New(), testLogger())
	require.NoError(t, room.Join(context.Background(), "room1", "secret", true))
	defer room.Close()

	require.True(t, room.AutoJoined())
	require.ErrorIs(t, room.Leave(), ErrAutoJoined)
	require.True(t, room.Active(), "session stays up after a refused leave")
}

func TestRoom_UserJoinCanLeave(t *testing.T) {
	server := relayServer(t)
	defer server.Close()

	room := NewRoom(server.URL, session.New(), testLogger())
	require.NoError(t, room.Join(context.Background(), "room1", "secret", false))

	require.NoError(t, room.Leave())
	require.False(t, room.Active())
	require.ErrorIs(t, room.Leave(), ErrNotActive)
}

func TestRoom_JoinFailure(t *testing.T) {
	room := NewRoom("http://127.0.0.1:1", session.New(), testLogger())
	err := room.Join(context.Background(), "room1", "secret", true)
	require.Error(t, err)
	require.False(t, room.Active())
}

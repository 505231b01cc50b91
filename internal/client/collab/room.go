// Package collab implements the live collaboration room channel.
//
// Peers exchange board updates through a relay server over WebSocket. Every
// frame is sealed end to end with a key derived from the room key, so the
// relay only ever sees ciphertext.
package collab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/boardsync/boardsync-client/internal/client/session"
	"github.com/boardsync/boardsync-client/internal/common"
	"github.com/boardsync/boardsync-client/internal/cryptox"
	"github.com/boardsync/boardsync-client/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// ErrAutoJoined is returned by Leave for sessions entered by the document
// open sequence. Such sessions end only when the document is closed.
var ErrAutoJoined = errors.New("collaboration session was joined automatically and ends with the document")

// ErrNotActive is returned when sending or leaving without a live session.
var ErrNotActive = errors.New("no active collaboration session")

// frame is the relay envelope. Sealed carries the AES-GCM ciphertext of a
// board update; the relay forwards it without inspecting the contents.
type frame struct {
	Sender string `json:"sender"`
	Sealed []byte `json:"sealed"`
	Nonce  []byte `json:"nonce"`
}

// Update is a decrypted peer board update delivered to the editor.
type Update struct {
	Sender  string `json:"sender"`
	Content []byte `json:"content"`
}

// Room connects to one collaboration room at a time. It implements
// services.CollabChannel.
type Room struct {
	baseURL string
	sess    *session.Session
	log     logging.Logger
	dialer  *websocket.Dialer

	// onUpdate receives decrypted peer updates. Set before Join.
	onUpdate func(Update)

	mu      sync.Mutex
	conn    *websocket.Conn
	roomID  string
	sealKey []byte
	auto    bool
	done    chan struct{}
}

func NewRoom(baseURL string, sess *session.Session, log logging.Logger) *Room {
	return &Room{
		baseURL: wsScheme(baseURL),
		sess:    sess,
		log:     log,
		dialer:  websocket.DefaultDialer,
	}
}

func wsScheme(u string) string {
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// OnUpdate registers the peer update handler. Call before Join.
func (r *Room) OnUpdate(fn func(Update)) {
	r.onUpdate = fn
}

// Join derives the seal key from roomKey, connects to the relay and starts
// the pumps. An existing session is closed first. auto marks the session as
// entered by the open sequence rather than by the user.
func (r *Room) Join(ctx context.Context, roomID, roomKey string, auto bool) error {
	r.Close()

	sealKey, err := cryptox.DeriveSealKey(roomKey)
	if err != nil {
		return fmt.Errorf("deriving room seal key: %w", err)
	}

	header := http.Header{}
	if tok := r.sess.AccessToken(); tok != "" {
		header.Set(common.AuthorizationHeaderName, "Bearer "+tok)
	}
	header.Set(common.ClientHeaderName, r.sess.ClientID())

	url := fmt.Sprintf("%s/api/rooms/%s/collab", strings.TrimRight(r.baseURL, "/"), roomID)
	conn, _, err := r.dialer.DialContext(ctx, url, header)
	if err != nil {
		return fmt.Errorf("joining room %s: %w", roomID, err)
	}

	done := make(chan struct{})

	r.mu.Lock()
	r.conn = conn
	r.roomID = roomID
	r.sealKey = sealKey
	r.auto = auto
	r.done = done
	r.mu.Unlock()

	go r.readPump(conn, sealKey, roomID)
	go r.pingPump(conn, done)
	return nil
}

// Send seals content and relays it to the room's peers.
func (r *Room) Send(content []byte) error {
	r.mu.Lock()
	conn, sealKey := r.conn, r.sealKey
	r.mu.Unlock()

	if conn == nil {
		return ErrNotActive
	}

	sealed, nonce, err := cryptox.SealPayload(Update{Sender: r.sess.ClientID(), Content: content}, sealKey)
	if err != nil {
		return fmt.Errorf("sealing board update: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(frame{Sender: r.sess.ClientID(), Sealed: sealed, Nonce: nonce}); err != nil {
		return fmt.Errorf("relaying board update: %w", err)
	}
	return nil
}

// Leave ends a user-initiated session. Auto-joined sessions refuse.
func (r *Room) Leave() error {
	r.mu.Lock()
	if r.conn == nil {
		r.mu.Unlock()
		return ErrNotActive
	}
	if r.auto {
		r.mu.Unlock()
		return ErrAutoJoined
	}
	r.mu.Unlock()

	return r.Close()
}

// Close tears the session down unconditionally.
func (r *Room) Close() error {
	r.mu.Lock()
	conn, done := r.conn, r.done
	r.conn, r.roomID, r.sealKey, r.auto, r.done = nil, "", nil, false, nil
	r.mu.Unlock()

	if conn == nil {
		return nil
	}
	close(done)

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return conn.Close()
}

// Active reports whether a session is live.
func (r *Room) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

// AutoJoined reports whether the live session was entered automatically.
func (r *Room) AutoJoined() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil && r.auto
}

// readPump decrypts relayed frames and hands peer updates to the editor.
// Frames from this client, echoed back by the relay, are skipped. Frames
// that do not authenticate under the room key are dropped, which shields
// the session from a relay injecting content.
func (r *Room) readPump(conn *websocket.Conn, sealKey []byte, roomID string) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.log.Warn(context.Background(), "collaboration channel closed unexpectedly",
					"room_id", roomID, "err", err)
			}
			return
		}

		if f.Sender == r.sess.ClientID() {
			continue
		}

		var upd Update
		if err := cryptox.OpenPayload(f.Sealed, f.Nonce, sealKey, &upd); err != nil {
			r.log.Warn(context.Background(), "dropping frame that fails authentication",
				"room_id", roomID, "sender", f.Sender, "err", err)
			continue
		}

		if r.onUpdate != nil {
			r.onUpdate(upd)
		}
	}
}

func (r *Room) pingPump(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}

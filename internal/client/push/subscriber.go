// Package push implements the server-to-client comment event channel over
// WebSocket.
package push

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/boardsync/boardsync-client/internal/client/models"
	"github.com/boardsync/boardsync-client/internal/client/session"
	"github.com/boardsync/boardsync-client/internal/common"
	"github.com/boardsync/boardsync-client/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	eventBuffer = 64
)

// Subscriber maintains one WebSocket subscription per document and decodes
// incoming frames into typed events. It implements services.PushChannel.
type Subscriber struct {
	baseURL string
	sess    *session.Session
	log     logging.Logger
	dialer  *websocket.Dialer

	mu   sync.Mutex
	subs map[string]*subscription
}

type subscription struct {
	conn   *websocket.Conn
	events chan models.Event
	done   chan struct{}
}

// NewSubscriber builds a subscriber for the given server base URL. Both
// http(s) and ws(s) schemes are accepted.
func NewSubscriber(baseURL string, sess *session.Session, log logging.Logger) *Subscriber {
	return &Subscriber{
		baseURL: wsScheme(baseURL),
		sess:    sess,
		log:     log,
		dialer:  websocket.DefaultDialer,
		subs:    make(map[string]*subscription),
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

// Subscribe dials the document's event endpoint and starts the read and ping
// pumps. The returned channel closes when the subscription ends, whether by
// Unsubscribe or by the connection dropping.
func (s *Subscriber) Subscribe(ctx context.Context, documentID string) (<-chan models.Event, error) {
	s.Unsubscribe(documentID)

	header := http.Header{}
	if tok := s.sess.AccessToken(); tok != "" {
		header.Set(common.AuthorizationHeaderName, "Bearer "+tok)
	}
	header.Set(common.ClientHeaderName, s.sess.ClientID())

	url := fmt.Sprintf("%s/api/documents/%s/events", strings.TrimRight(s.baseURL, "/"), documentID)
	conn, _, err := s.dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dialing event channel for %s: %w", documentID, err)
	}

	sub := &subscription{
		conn:   conn,
		events: make(chan models.Event, eventBuffer),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.subs[documentID] = sub
	s.mu.Unlock()

	go s.readPump(documentID, sub)
	go s.pingPump(sub)
	return sub.events, nil
}

// Unsubscribe tears down the document's subscription. No-op when none is
// active.
func (s *Subscriber) Unsubscribe(documentID string) {
	s.mu.Lock()
	sub, ok := s.subs[documentID]
	delete(s.subs, documentID)
	s.mu.Unlock()

	if !ok {
		return
	}
	close(sub.done)
	sub.conn.Close()
}

// Close tears down every active subscription.
func (s *Subscriber) Close() {
	s.mu.Lock()
	subs := s.subs
	s.subs = make(map[string]*subscription)
	s.mu.Unlock()

	for _, sub := range subs {
		close(sub.done)
		sub.conn.Close()
	}
}

// readPump decodes frames into events until the connection dies. Closing the
// event channel here, after the last decode, guarantees consumers drain every
// delivered event before observing the end of the stream.
func (s *Subscriber) readPump(documentID string, sub *subscription) {
	defer close(sub.events)
	defer sub.conn.Close()

	sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		sub.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var ev models.Event
		if err := sub.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn(context.Background(), "event channel closed unexpectedly",
					"document_id", documentID, "err", err)
			}
			return
		}

		select {
		case sub.events <- ev:
		case <-sub.done:
			return
		default:
			// an applier that stopped draining must not wedge the pump
			s.log.Warn(context.Background(), "dropping comment event, consumer not draining",
				"document_id", documentID, "type", string(ev.Type))
		}
	}
}

func (s *Subscriber) pingPump(sub *subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				sub.conn.Close()
				return
			}
		case <-sub.done:
			return
		}
	}
}

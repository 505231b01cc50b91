package services

import (
	"context"
	"sync"
	"time"

	"github.com/boardsync/boardsync-client/internal/client/api"
	"github.com/boardsync/boardsync-client/internal/logging"
)

const pingTimeout = 3 * time.Second

// OnlineWatcher polls server liveness and feeds offline/online transitions
// into the save coordinator. It is the sole source of connectivity signals.
type OnlineWatcher struct {
	client   api.Client
	saves    *Autosave
	clock    Clock
	log      logging.Logger
	interval time.Duration

	// onChange is invoked after every transition, for status display.
	onChange func(online bool)

	mu      sync.Mutex
	online  bool
	timer   Timer
	stopped bool
}

// NewOnlineWatcher assumes the connection is up until the first failed ping.
func NewOnlineWatcher(client api.Client, saves *Autosave, clock Clock, log logging.Logger, interval time.Duration) *OnlineWatcher {
	return &OnlineWatcher{
		client:   client,
		saves:    saves,
		clock:    clock,
		log:      log,
		interval: interval,
		online:   true,
	}
}

// OnChange registers the transition callback. Call before Start.
func (w *OnlineWatcher) OnChange(fn func(online bool)) {
	w.onChange = fn
}

// Start arms the poll timer. Each expiration pings once and re-arms.
func (w *OnlineWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = false
	if w.timer == nil {
		w.timer = w.clock.AfterFunc(w.interval, w.checkFired)
	}
}

// Stop disarms the poll timer. The current online state is retained.
func (w *OnlineWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Online reports the last observed connectivity state.
func (w *OnlineWatcher) Online() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.online
}

func (w *OnlineWatcher) checkFired() {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	err := w.client.Ping(ctx)
	cancel()

	w.apply(err == nil)

	w.mu.Lock()
	if !w.stopped {
		w.timer = w.clock.AfterFunc(w.interval, w.checkFired)
	}
	w.mu.Unlock()
}

func (w *OnlineWatcher) apply(online bool) {
	w.mu.Lock()
	changed := w.online != online
	w.online = online
	w.mu.Unlock()

	if !changed {
		return
	}

	ctx := context.Background()
	if online {
		w.log.Info(ctx, "connection restored")
		if err := w.saves.SetOnline(ctx); err != nil {
			w.log.Warn(ctx, "save on reconnect failed", "err", err)
		}
	} else {
		w.log.Info(ctx, "connection lost, deferring saves until reconnect")
		w.saves.SetOffline()
	}

	if w.onChange != nil {
		w.onChange(online)
	}
}

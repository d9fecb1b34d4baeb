package preview

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/doxidize/internal/logfields"
)

// LiveReloadPath is where browsers subscribe to rebuild notifications.
const LiveReloadPath = "/__livereload"

const (
	heartbeatInterval = 30 * time.Second
	subscriberBuffer  = 8
)

// LiveReloadHub sends the id of each successful build to the connected
// browsers as a server-sent event.
type LiveReloadHub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	last   string
	closed bool
}

type subscriber struct {
	builds chan string
	gone   chan struct{}
	once   sync.Once
}

func (s *subscriber) drop() { s.once.Do(func() { close(s.gone) }) }

func NewLiveReloadHub() *LiveReloadHub {
	return &LiveReloadHub{subs: make(map[*subscriber]struct{})}
}

func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	sub := h.subscribe()
	if sub == nil {
		http.Error(w, "live reload is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.unsubscribe(sub)

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")

	emit := func(format string, args ...any) bool {
		if _, err := fmt.Fprintf(w, format, args...); err != nil {
			slog.Debug("Live reload client went away", logfields.Error(err))
			return false
		}
		return rc.Flush() == nil
	}
	if !emit(": connected\n\n") {
		return
	}

	ping := time.NewTicker(heartbeatInterval)
	defer ping.Stop()
	for {
		var ok bool
		select {
		case <-r.Context().Done():
			return
		case <-sub.gone:
			return
		case <-ping.C:
			ok = emit(": ping\n\n")
		case id := <-sub.builds:
			ok = emit("data: %s\n\n", id)
		}
		if !ok {
			return
		}
	}
}

// subscribe returns nil once the hub is shut down.
func (h *LiveReloadHub) subscribe() *subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	sub := &subscriber{builds: make(chan string, subscriberBuffer), gone: make(chan struct{})}
	h.subs[sub] = struct{}{}
	return sub
}

func (h *LiveReloadHub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	sub.drop()
}

// Clients is the number of connected browsers.
func (h *LiveReloadHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Broadcast announces buildID. Repeats of the last id are ignored. A browser
// that has fallen behind by a full buffer is disconnected and reconnects on
// its own.
func (h *LiveReloadHub) Broadcast(buildID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || buildID == "" || buildID == h.last {
		return
	}
	h.last = buildID

	var lagging int
	for sub := range h.subs {
		select {
		case sub.builds <- buildID:
		default:
			lagging++
			delete(h.subs, sub)
			sub.drop()
		}
	}
	slog.Debug("Live reload broadcast", logfields.BuildID(buildID), slog.Int("clients", len(h.subs)), slog.Int("dropped", lagging))
}

// Shutdown disconnects every browser and refuses new ones.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		sub.drop()
	}
}

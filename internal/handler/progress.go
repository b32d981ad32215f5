// ==============================================================================
// EXTRACTION PROGRESS STREAM - internal/handler/progress.go
// ==============================================================================
// WebSocket endpoint broadcasting per-document extraction progress. The hub
// retains the latest event per topic so late subscribers see current state.
// ==============================================================================

package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"onboarding/internal/domain"
	"onboarding/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now (CORS)
	},
}

// ProgressEvent is one extraction status update.
type ProgressEvent struct {
	Document string                  `json:"document"`
	Status   string                  `json:"status"`
	Progress int                     `json:"progress"`
	Fields   []domain.ExtractedField `json:"fields,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// Terminal reports whether no further events will follow.
func (e ProgressEvent) Terminal() bool {
	switch domain.JobStatus(e.Status) {
	case domain.JobCompleted, domain.JobFailed:
		return true
	}
	return false
}

// ProgressHub fans extraction events out to websocket subscribers.
type ProgressHub struct {
	mu   sync.Mutex
	subs map[string]map[chan ProgressEvent]struct{}
	last map[string]ProgressEvent
}

// NewProgressHub creates an empty hub.
func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		subs: make(map[string]map[chan ProgressEvent]struct{}),
		last: make(map[string]ProgressEvent),
	}
}

// Publish records the event and delivers it to current subscribers. Slow
// subscribers drop intermediate events rather than block the poller.
func (h *ProgressHub) Publish(topic string, ev ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last[topic] = ev
	for ch := range h.subs[topic] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a listener for a topic. The latest known event, if
// any, is replayed immediately. The returned func unsubscribes.
func (h *ProgressHub) Subscribe(topic string) (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, 8)

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[chan ProgressEvent]struct{})
	}
	h.subs[topic][ch] = struct{}{}
	if last, ok := h.last[topic]; ok {
		ch <- last
	}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.subs[topic], ch)
		if len(h.subs[topic]) == 0 {
			delete(h.subs, topic)
		}
		h.mu.Unlock()
	}
}

// Last returns the latest event for a topic.
func (h *ProgressHub) Last(topic string) (ProgressEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ev, ok := h.last[topic]
	return ev, ok
}

// Forget drops a topic's retained event.
func (h *ProgressHub) Forget(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.last, topic)
}

// ProgressHandler exposes the hub over HTTP and WebSocket.
type ProgressHandler struct {
	hub    *ProgressHub
	logger logger.Logger
}

// NewProgressHandler creates a ProgressHandler.
func NewProgressHandler(hub *ProgressHub, log logger.Logger) *ProgressHandler {
	return &ProgressHandler{hub: hub, logger: log}
}

// GetProgress returns the latest extraction event for a document.
// GET /wizard/sessions/{id}/documents/{key}/progress
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	topic := vars["id"] + "/" + vars["key"]

	w.Header().Set("Content-Type", "application/json")
	ev, ok := h.hub.Last(topic)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "No extraction in progress"})
		return
	}
	_ = json.NewEncoder(w).Encode(ev)
}

// StreamProgress streams extraction events over a WebSocket until the job
// reaches a terminal state or the client disconnects.
// GET /wizard/sessions/{id}/documents/{key}/progress/ws
func (h *ProgressHandler) StreamProgress(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	topic := vars["id"] + "/" + vars["key"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()

	events, unsubscribe := h.hub.Subscribe(topic)
	defer unsubscribe()

	// Reader goroutine notices the client hanging up.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
			if ev.Terminal() {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "extraction finished"))
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

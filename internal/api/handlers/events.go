package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/driftboard/driftboard/internal/domain/event"
	"github.com/driftboard/driftboard/internal/pkg/logger"
	"github.com/driftboard/driftboard/internal/pkg/metrics"
)

// eventClient is one connected SSE subscriber.
type eventClient struct {
	id        string
	messageCh chan []byte
	done      chan struct{}
}

// EventHub fans lifecycle events out to connected SSE clients. It
// implements event.Sink: Emit never blocks, events are dropped when the
// hub or a client cannot keep up.
type EventHub struct {
	clients    map[string]*eventClient
	register   chan *eventClient
	unregister chan *eventClient
	broadcast  chan event.Event
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// NewEventHub creates the hub and starts its dispatch loop. bufferSize
// bounds both the hub's intake queue and each client's send queue.
func NewEventHub(log *logger.Logger, bufferSize int) *EventHub {
	hub := &EventHub{
		clients:    make(map[string]*eventClient),
		register:   make(chan *eventClient),
		unregister: make(chan *eventClient),
		broadcast:  make(chan event.Event, bufferSize),
		logger:     log,
	}

	go hub.run()

	return hub
}

// Emit queues an event for fan-out. If the intake queue is full the
// event is dropped and counted; the caller is never blocked.
func (h *EventHub) Emit(e event.Event) {
	select {
	case h.broadcast <- e:
	default:
		metrics.EventDropped()
		h.logger.With("type", string(e.Type)).Warn("Event dropped, hub saturated")
	}
}

// ClientCount returns the number of connected subscribers.
func (h *EventHub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// HandleConnection streams lifecycle events to the client over SSE
// @Summary Subscribe to lifecycle events
// @Description Stream drift lifecycle events as server-sent events
// @Tags Events
// @Produce text/event-stream
// @Success 200 {string} string "Event stream"
// @Router /events [get]
func (h *EventHub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &eventClient{
		id:        uuid.New().String(),
		messageCh: make(chan []byte, 64),
		done:      make(chan struct{}),
	}

	h.register <- client
	defer func() {
		h.unregister <- client
	}()

	init := event.Event{
		Type:      "connected",
		Data:      map[string]interface{}{"client_id": client.id},
		Timestamp: time.Now(),
	}
	if data, err := json.Marshal(init); err == nil {
		w.Write([]byte("data: " + string(data) + "\n\n"))
		flusher.Flush()
	}

	for {
		select {
		case message, ok := <-client.messageCh:
			if !ok {
				return
			}
			w.Write([]byte("data: " + string(message) + "\n\n"))
			flusher.Flush()
		case <-client.done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *EventHub) run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.id] = client
			h.mutex.Unlock()
			h.logger.With("client_id", client.id).Info("Event client connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.messageCh)
				close(client.done)
				h.logger.With("client_id", client.id).Info("Event client disconnected")
			}
			h.mutex.Unlock()

		case e := <-h.broadcast:
			data, err := json.Marshal(e)
			if err != nil {
				h.logger.ErrorWithErr(err, "Failed to marshal event")
				continue
			}
			h.mutex.RLock()
			for _, client := range h.clients {
				select {
				case client.messageCh <- data:
				default:
					// Client channel is full, skip
					metrics.EventDropped()
				}
			}
			h.mutex.RUnlock()
		}
	}
}

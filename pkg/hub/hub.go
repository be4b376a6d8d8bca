package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub maintains the set of active clients and broadcasts messages to
// them. Run must be launched in its own goroutine before clients
// connect.
type Hub struct {
	name   string
	logger *slog.Logger

	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	stopOnce   sync.Once

	mu sync.RWMutex
}

// New creates a hub. The name shows up in log lines.
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("component", "hub", "hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// Run is the hub's main loop. Call it in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", "clients", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client cannot keep up; drop it rather than
					// stall every other subscriber.
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Broadcast queues a message for every connected client. Messages are
// dropped when the queue is full.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	case <-h.stop:
	default:
		h.logger.Warn("broadcast queue full, dropping message")
	}
}

// BroadcastJSON encodes and broadcasts a JSON message.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// BroadcastBinary broadcasts binary data.
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

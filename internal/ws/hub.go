package ws

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/sceneitem-widget/internal/logging"
)

const (
	sendBuffer      = 256
	broadcastBuffer = 64
)

// Client is one dashboard connection watching a widget instance.
type Client struct {
	ID         string
	InstanceID string
	Send       chan []byte
	Conn       *websocket.Conn
}

// BroadcastMessage is a frame for every client of one instance.
type BroadcastMessage struct {
	InstanceID string
	Data       []byte
}

// Hub fans display frames out to dashboard clients, grouped by widget
// instance. The last frame of each instance is replayed to new clients.
type Hub struct {
	clients    map[string]map[*Client]bool // instanceID -> clients
	last       map[string][]byte
	register   chan *Client
	unregister chan *Client
	broadcast  chan BroadcastMessage
	done       chan struct{}
	mu         sync.RWMutex
	logger     *logrus.Entry
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		last:       make(map[string][]byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan BroadcastMessage, broadcastBuffer),
		done:       make(chan struct{}),
		logger:     logging.NewLogger("ws-hub"),
	}
}

// NewClient creates a client for conn with a fresh id.
func NewClient(instanceID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:         uuid.NewString(),
		InstanceID: instanceID,
		Send:       make(chan []byte, sendBuffer),
		Conn:       conn,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for instanceID, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
				delete(h.clients, instanceID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.InstanceID] == nil {
				h.clients[client.InstanceID] = make(map[*Client]bool)
			}
			h.clients[client.InstanceID][client] = true
			if frame, ok := h.last[client.InstanceID]; ok {
				client.Send <- frame
			}
			h.mu.Unlock()
			h.logger.WithFields(logrus.Fields{
				"client":   client.ID,
				"instance": client.InstanceID,
			}).Debug("Client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.InstanceID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
				}
				if len(clients) == 0 {
					delete(h.clients, client.InstanceID)
				}
			}
			h.mu.Unlock()
			h.logger.WithField("client", client.ID).Debug("Client unregistered")

		case msg := <-h.broadcast:
			h.mu.Lock()
			h.last[msg.InstanceID] = msg.Data
			for client := range h.clients[msg.InstanceID] {
				select {
				case client.Send <- msg.Data:
				default:
					h.logger.WithField("client", client.ID).Warn("Dropping slow client")
					close(client.Send)
					delete(h.clients[msg.InstanceID], client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds client once Run picks it up.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues data for every client of instanceID.
func (h *Hub) Broadcast(instanceID string, data []byte) {
	select {
	case h.broadcast <- BroadcastMessage{InstanceID: instanceID, Data: data}:
	case <-h.done:
	}
}

// Count returns the number of clients watching instanceID.
func (h *Hub) Count(instanceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[instanceID])
}

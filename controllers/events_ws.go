package controller

import (
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// DomainEvent is the envelope pushed to websocket listeners
type DomainEvent struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// EventHub fans domain events ("contact_added", "contact_removed",
// "emails_updated", "approval_required") out to connected clients.
type EventHub struct {
	Logger *log.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewEventHub(logger *log.Logger) *EventHub {
	return &EventHub{
		Logger:  logger,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Publish sends an event to every connected client. Dead connections are
// dropped on write failure.
func (h *EventHub) Publish(event string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(DomainEvent{Event: event, Payload: payload}); err != nil {
			h.Logger.Printf("Dropping event listener: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// HandleEventsWS keeps a client registered until it disconnects
func (h *EventHub) HandleEventsWS(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		c.Close()
	}()

	// Reads are only used to detect disconnect
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

package websocket

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub maintains the set of active clients and fans messages out to them.
// Register and unregister flow through the Run loop, but BroadcastTo is
// called straight from request goroutines on every recorded vote, so the
// client and subscription maps are guarded by a mutex rather than owned by
// the loop alone.
type Hub struct {
	mu sync.Mutex

	// Registered clients.
	clients map[*Client]bool

	// Inbound messages from the clients for global broadcast.
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// A map of poll IDs to the set of clients subscribed to it.
	subscriptions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:     make(chan []byte),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			if client.PollID != "" {
				h.addSubscription(client, client.PollID)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Info().Int("total_clients", total).Msg("Client connected")
		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.dropClient(client)
				total := len(h.clients)
				h.mu.Unlock()
				log.Info().Int("total_clients", total).Msg("Client disconnected")
			} else {
				h.mu.Unlock()
			}
		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.Deliver(message) {
					h.dropClient(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastTo sends a message to all clients subscribed to a specific poll ID.
// Clients whose buffers are full are dropped rather than blocked on.
func (h *Hub) BroadcastTo(pollID string, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.subscriptions[pollID] {
		if !client.Deliver(message) {
			h.dropClient(client)
		}
	}
}

// dropClient removes a client from every map and signals its write pump to
// exit. Callers must hold mu.
func (h *Hub) dropClient(client *Client) {
	delete(h.clients, client)
	h.removeSubscription(client)
	client.shutdown()
}

// addSubscription records a client's interest in a poll. Callers must hold mu.
func (h *Hub) addSubscription(client *Client, pollID string) {
	if h.subscriptions[pollID] == nil {
		h.subscriptions[pollID] = make(map[*Client]bool)
	}
	h.subscriptions[pollID][client] = true
}

// removeSubscription drops a client from every poll it follows. Callers must
// hold mu.
func (h *Hub) removeSubscription(client *Client) {
	for pollID, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, pollID)
			}
		}
	}
}

// Package hub owns the long-lived websocket channels: one per connected
// display kiosk, keyed by hostname, plus any number of administrative
// viewers watching for change events.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Message is the websocket envelope shared by both channel kinds.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func newMessage(event string, payload any) Message {
	msg := Message{Event: event}
	switch v := payload.(type) {
	case nil:
	case json.RawMessage:
		msg.Data = v
	case []byte:
		msg.Data = v
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("event", event).Msg("failed to marshal event payload")
			return msg
		}
		msg.Data = data
	}
	return msg
}

type Hub struct {
	mu       sync.RWMutex
	displays map[string]*Client // hostname -> client
	admins   map[string]*Client // connection id -> client
}

func NewHub() *Hub {
	return &Hub{
		displays: make(map[string]*Client),
		admins:   make(map[string]*Client),
	}
}

// RegisterDisplay binds a client to a hostname. At most one live channel
// exists per hostname: a reconnect supersedes the previous connection,
// which is closed rather than left to linger.
func (h *Hub) RegisterDisplay(hostname string, c *Client) {
	h.mu.Lock()
	old := h.displays[hostname]
	h.displays[hostname] = c
	c.hostname = hostname
	h.mu.Unlock()

	if old != nil && old != c {
		log.Info().Str("hostname", hostname).Msg("superseding previous display connection")
		old.Close()
	}
}

func (h *Hub) RegisterAdmin(c *Client) {
	h.mu.Lock()
	h.admins[c.id] = c
	h.mu.Unlock()
}

// unregister drops the client from whichever set holds it. A display slot
// is only vacated if this client still owns it; a superseded connection
// must not evict its replacement.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if c.hostname != "" && h.displays[c.hostname] == c {
		delete(h.displays, c.hostname)
	}
	delete(h.admins, c.id)
	h.mu.Unlock()
}

// Superseded reports whether another client has taken over c's display
// slot since c registered. Teardown of the old channel must leave the
// replacement's state alone.
func (h *Hub) Superseded(c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c.hostname == "" {
		return false
	}
	owner := h.displays[c.hostname]
	return owner != nil && owner != c
}

// SendToDisplay delivers one event to one display. Unknown or congested
// displays are skipped; control flow never blocks on a slow kiosk.
func (h *Hub) SendToDisplay(hostname, event string, payload any) {
	h.mu.RLock()
	c := h.displays[hostname]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	c.trySend(newMessage(event, payload))
}

// BroadcastEvent fans one event out to every display and every admin
// viewer in a single pass.
func (h *Hub) BroadcastEvent(event string, payload any) {
	msg := newMessage(event, payload)

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.displays)+len(h.admins))
	for _, c := range h.displays {
		clients = append(clients, c)
	}
	for _, c := range h.admins {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.trySend(msg)
	}
}

// ConnectedDisplays returns the hostnames with a live channel.
func (h *Hub) ConnectedDisplays() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.displays))
	for hostname := range h.displays {
		out = append(out, hostname)
	}
	return out
}

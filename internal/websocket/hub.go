package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Entities that appear in change notifications.
const (
	EntityFamily     = "family"
	EntityMember     = "member"
	EntityCustomItem = "custom_item"
	EntityEntry      = "entry"
)

// Message is a change notification pushed to connected dashboards.
// FamilyID scopes the message; zero means every client receives it.
type Message struct {
	Type     string         `json:"type"`
	Entity   string         `json:"entity"`
	Action   string         `json:"action"`
	ID       int64          `json:"id,omitempty"`
	FamilyID int64          `json:"family_id,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message whose Type is "<entity>_<action>".
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// ForFamily returns a copy of m scoped to one family.
func (m Message) ForFamily(familyID int64) Message {
	m.FamilyID = familyID
	return m
}

// Hub fans messages out to the connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With("component", "websocket"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("client connected", "family_id", c.familyID)
}

// Unregister removes a client and closes its send channel. Calling it twice
// is safe.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast delivers msg to every client subscribed to its family. A client
// whose buffer is full misses the message.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for c := range h.clients {
		if !c.wants(msg) {
			continue
		}
		select {
		case c.send <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("dropped broadcast", "type", msg.Type, "clients", dropped)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

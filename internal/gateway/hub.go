package gateway

import (
	"encoding/json"
	"sync"

	"github.com/JongGun06/dialx-back/internal/aichar"
	"github.com/JongGun06/dialx-back/internal/auth"
	"github.com/JongGun06/dialx-back/internal/broadcast"
)

type presencePayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// Hub is the connection registry and presence tracker. All maps are
// guarded by one mutex with single-threaded semantics; no lock is ever
// held across I/O.
type Hub struct {
	verifier auth.Verifier
	orch     *aichar.Service

	mu       sync.Mutex
	clients  map[*Client]struct{}
	byUser   map[string]map[*Client]struct{}
	channels map[string]map[*Client]struct{}
}

func NewHub(verifier auth.Verifier, orch *aichar.Service) *Hub {
	return &Hub{
		verifier: verifier,
		orch:     orch,
		clients:  make(map[*Client]struct{}),
		byUser:   make(map[string]map[*Client]struct{}),
		channels: make(map[string]map[*Client]struct{}),
	}
}

// register adds an authenticated connection. The online snapshot is
// taken before insertion, so a user's first connection does not see
// itself. The online transition is edge-triggered: only the first
// connection of a user announces presence.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	online := h.onlineLocked()

	h.clients[c] = struct{}{}
	set := h.byUser[c.userID]
	if set == nil {
		set = make(map[*Client]struct{})
		h.byUser[c.userID] = set
	}
	set[c] = struct{}{}
	first := len(set) == 1

	h.subscribeLocked(c, broadcast.UserChannel(c.userID))
	h.mu.Unlock()

	c.enqueue(broadcast.EventOnlineUsersList, online)
	if first {
		h.broadcastAll(broadcast.EventPresenceUpdate, presencePayload{UserID: c.userID, Status: "online"}, c)
	}
}

// unregister is the exact dual of register, also invoked on abrupt
// connection loss. A user with N connections goes offline only when
// the Nth one disconnects.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for ch := range c.channels {
		h.unsubscribeLocked(c, ch)
	}

	last := false
	if set := h.byUser[c.userID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.byUser, c.userID)
			last = true
		}
	}
	h.mu.Unlock()

	c.closeSend()
	if last {
		h.broadcastAll(broadcast.EventPresenceUpdate, presencePayload{UserID: c.userID, Status: "offline"}, nil)
	}
}

func (h *Hub) join(c *Client, channel string) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		h.subscribeLocked(c, channel)
	}
	h.mu.Unlock()
}

func (h *Hub) leave(c *Client, channel string) {
	h.mu.Lock()
	h.unsubscribeLocked(c, channel)
	h.mu.Unlock()
}

func (h *Hub) subscribeLocked(c *Client, channel string) {
	set := h.channels[channel]
	if set == nil {
		set = make(map[*Client]struct{})
		h.channels[channel] = set
	}
	set[c] = struct{}{}
	c.channels[channel] = struct{}{}
}

func (h *Hub) unsubscribeLocked(c *Client, channel string) {
	if set := h.channels[channel]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.channels, channel)
		}
	}
	delete(c.channels, channel)
}

func (h *Hub) onlineLocked() []string {
	out := make([]string, 0, len(h.byUser))
	for uid := range h.byUser {
		out = append(out, uid)
	}
	return out
}

// OnlineUsers reports users with at least one live connection.
func (h *Hub) OnlineUsers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.onlineLocked()
}

// Deliver hands an event to every local subscriber of a logical
// channel; it is the process-local end of the Broadcaster.
func (h *Hub) Deliver(channel, event string, payload json.RawMessage) {
	h.mu.Lock()
	set := h.channels[channel]
	targets := make([]*Client, 0, len(set))
	for c := range set {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.enqueue(event, payload)
	}
}

func (h *Hub) broadcastAll(event string, payload any, except *Client) {
	h.mu.Lock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if c == except {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.enqueue(event, payload)
	}
}

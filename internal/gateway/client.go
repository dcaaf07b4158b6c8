package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/JongGun06/dialx-back/internal/apperr"
	"github.com/JongGun06/dialx-back/internal/auth"
	"github.com/JongGun06/dialx-back/internal/broadcast"
)

// Inbound event names; outbound ones live in the broadcast package
// because services publish them too.
const (
	eventJoinRoom        = "joinRoom"
	eventLeaveRoom       = "leaveRoom"
	eventSendMessageToAi = "sendMessageToAi"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	sendMu   sync.Mutex
	closed   bool
	send     chan outbound
	channels map[string]struct{} // guarded by hub.mu
}

func newClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		userID:   userID,
		send:     make(chan outbound, sendBufferSize),
		channels: make(map[string]struct{}),
	}
}

// enqueue is non-blocking; a slow consumer loses events rather than
// stalling the hub.
func (c *Client) enqueue(event string, data any) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- outbound{Event: event, Data: data}:
	default:
		log.Printf("gateway: dropping %s for user_id=%s (send buffer full)", event, c.userID)
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// HandleWS authenticates the upgrade request and hands the connection
// to the hub. An invalid token terminates the connection with no state
// mutation.
func (h *Hub) HandleWS(c *gin.Context) {
	token := auth.ExtractToken(c.Request)
	if token == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	userID, err := h.verifier.Verify(token)
	if err != nil {
		log.Printf("gateway: authentication failed: %v", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("gateway: upgrade failed user_id=%s err=%v", userID, err)
		return
	}

	client := newClient(h, conn, userID)
	h.register(client)

	go client.writePump()
	client.readPump()
}

// readPump dispatches inbound frames until the connection drops; the
// deferred unregister keeps presence exact under abrupt loss.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("gateway: read error user_id=%s err=%v", c.userID, err)
			}
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.enqueue(broadcast.EventError, "malformed frame")
			continue
		}

		switch f.Event {
		case eventJoinRoom:
			chatID := parseChatID(f.Data)
			if chatID == "" {
				continue
			}
			c.hub.join(c, broadcast.ChatChannel(chatID))
			c.enqueue(broadcast.EventJoinedRoom, chatID)

		case eventLeaveRoom:
			chatID := parseChatID(f.Data)
			if chatID == "" {
				continue
			}
			c.hub.leave(c, broadcast.ChatChannel(chatID))

		case eventSendMessageToAi:
			var p struct {
				CharacterID string `json:"characterId"`
				Content     string `json:"content"`
			}
			if err := json.Unmarshal(f.Data, &p); err != nil || p.CharacterID == "" {
				c.enqueue(broadcast.EventError, "characterId is required")
				continue
			}
			// The AI round trip must not block this read loop; the reply
			// is dropped if the connection is gone by completion.
			go c.handleAiMessage(p.CharacterID, p.Content)

		default:
			c.enqueue(broadcast.EventError, "unknown event: "+f.Event)
		}
	}
}

func (c *Client) handleAiMessage(characterID, content string) {
	reply, err := c.hub.orch.SendToCharacter(context.Background(), characterID, c.userID, content)
	if err != nil {
		c.enqueue(broadcast.EventError, apperr.MessageOf(err, "internal error"))
		return
	}
	c.enqueue(broadcast.EventAiMessage, reply)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// parseChatID accepts both the bare-string and {"chatId": ...} forms
// clients send.
func parseChatID(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var obj struct {
		ChatID string `json:"chatId"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		return obj.ChatID
	}
	return ""
}

package broadcast

import (
	"context"
	"encoding/json"
)

// Event names shared by the services that publish them and the
// gateway that delivers them.
const (
	EventOnlineUsersList = "onlineUsersList"
	EventPresenceUpdate  = "presenceUpdate"
	EventJoinedRoom      = "joinedRoom"
	EventNewMessage      = "newMessage"
	EventNewChat         = "newChat"
	EventAiMessage       = "aiMessage"
	EventError           = "error"
)

// ChatChannel is the room for a chat's subscribers; joined explicitly
// by clients viewing the chat.
func ChatChannel(chatID string) string { return "chat:" + chatID }

// UserChannel is the personal notification channel every connection
// is subscribed to for its lifetime.
func UserChannel(userID string) string { return "user:" + userID }

// Broadcaster delivers an event to every connection subscribed to a
// logical channel, on this process or (when backed by a broker) on
// any other.
type Broadcaster interface {
	Broadcast(ctx context.Context, channel, event string, payload any) error
}

// Deliverer is the process-local endpoint: it hands an already-encoded
// event to the connections subscribed to channel on this host.
type Deliverer interface {
	Deliver(channel, event string, payload json.RawMessage)
}

// Local is the single-process Broadcaster: events go straight to the
// local Deliverer (the gateway hub).
type Local struct {
	d Deliverer
}

func NewLocal(d Deliverer) *Local { return &Local{d: d} }

func (l *Local) Broadcast(ctx context.Context, channel, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	l.d.Deliver(channel, event, raw)
	return nil
}

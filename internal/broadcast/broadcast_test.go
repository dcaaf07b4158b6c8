package broadcast

import (
	"context"
	"encoding/json"
	"testing"
)

type delivered struct {
	Channel string
	Event   string
	Payload json.RawMessage
}

type fakeDeliverer struct {
	got []delivered
}

func (f *fakeDeliverer) Deliver(channel, event string, payload json.RawMessage) {
	f.got = append(f.got, delivered{Channel: channel, Event: event, Payload: payload})
}

func TestLocal_RoundTrip(t *testing.T) {
	d := &fakeDeliverer{}
	bc := NewLocal(d)

	payload := map[string]string{"content": "hi"}
	if err := bc.Broadcast(context.Background(), ChatChannel("c1"), EventNewMessage, payload); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	if len(d.got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(d.got))
	}
	got := d.got[0]
	if got.Channel != "chat:c1" || got.Event != EventNewMessage {
		t.Fatalf("unexpected routing: %+v", got)
	}
	var decoded map[string]string
	if err := json.Unmarshal(got.Payload, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded["content"] != "hi" {
		t.Fatalf("payload lost in transit: %v", decoded)
	}
}

func TestLocal_UnencodablePayload(t *testing.T) {
	d := &fakeDeliverer{}
	bc := NewLocal(d)

	if err := bc.Broadcast(context.Background(), "chat:c1", EventNewMessage, func() {}); err == nil {
		t.Fatalf("expected marshal error")
	}
	if len(d.got) != 0 {
		t.Fatalf("failed encode must not deliver, got %d", len(d.got))
	}
}

func TestEnvelope_WireFormat(t *testing.T) {
	env := envelope{
		Channel: UserChannel("u1"),
		Event:   EventNewChat,
		Payload: json.RawMessage(`{"id":"c1"}`),
	}
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back envelope
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Channel != "user:u1" || back.Event != EventNewChat {
		t.Fatalf("envelope mismatch: %+v", back)
	}
	if string(back.Payload) != `{"id":"c1"}` {
		t.Fatalf("payload must pass through untouched, got %s", back.Payload)
	}
}

func TestChannelNames(t *testing.T) {
	if got := ChatChannel("abc"); got != "chat:abc" {
		t.Fatalf("chat channel: %q", got)
	}
	if got := UserChannel("u-1"); got != "user:u-1" {
		t.Fatalf("user channel: %q", got)
	}
}

package broadcast

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

const defaultStream = "dialx:events"

// envelope is the wire form carried over the Redis pub/sub stream so
// events reach subscribers connected to other host processes.
type envelope struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Redis fans events out across hosts: Broadcast publishes an envelope,
// and every host's Run loop feeds received envelopes into its local
// Deliverer.
type Redis struct {
	rdb    *redis.Client
	stream string
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb, stream: defaultStream}
}

func (r *Redis) Broadcast(ctx context.Context, channel, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b, err := json.Marshal(envelope{Channel: channel, Event: event, Payload: raw})
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, r.stream, b).Err()
}

// Run consumes the stream until ctx is cancelled, routing envelopes to
// the local deliverer. Call it in its own goroutine per process.
func (r *Redis) Run(ctx context.Context, d Deliverer) {
	sub := r.rdb.Subscribe(ctx, r.stream)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("broadcast: bad envelope: %v", err)
				continue
			}
			d.Deliver(env.Channel, env.Event, env.Payload)
		}
	}
}

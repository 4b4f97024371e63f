package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/gatehq/gatehouse/internal/auth"
)

// loginChannel is the Redis pub/sub channel carrying login events.
const loginChannel = "gatehouse.logins"

// Bridge relays login events through Redis pub/sub so clients connected
// to any instance see logins handled by every instance.
type Bridge struct {
	logger  *slog.Logger
	client  *redis.Client
	hub     *Hub
	channel string
}

// NewBridge constructs a Bridge in front of the given hub.
func NewBridge(logger *slog.Logger, client *redis.Client, hub *Hub) *Bridge {
	return &Bridge{
		logger:  logger,
		client:  client,
		hub:     hub,
		channel: loginChannel,
	}
}

// BroadcastLogin publishes the event for all instances. The local hub
// receives it back through the subscription, so a successful publish is
// not delivered twice. When the publish fails the event still reaches
// this instance's clients directly.
func (b *Bridge) BroadcastLogin(ctx context.Context, evt auth.LoginEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		b.logger.Error("encode login event", slog.Any("error", err))
		return
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Warn("publish login event, delivering locally", slog.Any("error", err))
		b.hub.BroadcastLogin(ctx, evt)
	}
}

// Listen subscribes to the login channel and replays received events on
// the local hub. The relay stops when ctx is canceled.
func (b *Bridge) Listen(ctx context.Context) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	go func() {
		defer func() {
			_ = pubsub.Close()
		}()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt auth.LoginEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					b.logger.Warn("decode login event", slog.Any("error", err))
					continue
				}
				b.hub.BroadcastLogin(ctx, evt)
			}
		}
	}()
}

var _ auth.LoginBroadcaster = (*Bridge)(nil)

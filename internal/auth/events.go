package auth

import (
	"context"
	"time"
)

// LoginEvent captures a successful login for realtime subscribers.
type LoginEvent struct {
	EventID string    `json:"event_id"`
	UserID  int64     `json:"user_id"`
	Name    string    `json:"name"`
	At      time.Time `json:"at"`
}

// LoginBroadcaster delivers login events to connected clients. Broadcasts
// are fire-and-forget: delivery failures must never fail the login itself.
type LoginBroadcaster interface {
	BroadcastLogin(ctx context.Context, evt LoginEvent)
}

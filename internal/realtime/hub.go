// Package realtime delivers login events to connected websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/net/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/gatehq/gatehouse/internal/auth"
	"github.com/gatehq/gatehouse/internal/observability"
)

// frameTypeLogin labels frames carrying login events.
const frameTypeLogin = "auth.login"

// frame is the envelope written to websocket clients.
type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type peer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func (p *peer) writeFrame(f frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(f)
}

// Hub tracks connected websocket clients and fans events out to them.
type Hub struct {
	logger  *slog.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	peers map[*peer]struct{}
}

// NewHub constructs an empty Hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		logger:  logger,
		metrics: metrics,
		peers:   make(map[*peer]struct{}),
	}
}

// Handler returns the websocket endpoint handler.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

func (h *Hub) serve(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	remote := "unknown"
	if req := conn.Request(); req != nil {
		remote = req.RemoteAddr
	}

	p := &peer{encoder: json.NewEncoder(conn)}
	h.add(p)
	h.logger.Info("ws client connected", slog.String("remote", remote), slog.Int("clients", h.ClientCount()))
	defer func() {
		h.remove(p)
		h.logger.Info("ws client disconnected", slog.String("remote", remote), slog.Int("clients", h.ClientCount()))
	}()

	// Clients are listen-only. Drain inbound data so the close is
	// noticed; whatever they send is discarded.
	_, _ = io.Copy(io.Discard, conn)
}

func (h *Hub) add(p *peer) {
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
	h.metrics.WSClientConnected()
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	delete(h.peers, p)
	h.mu.Unlock()
	h.metrics.WSClientDisconnected()
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// BroadcastLogin encodes the event and fans it out to every connected
// client. Delivery is detached from the caller, so a slow client cannot
// delay a login response.
func (h *Hub) BroadcastLogin(ctx context.Context, evt auth.LoginEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("encode login event", slog.Any("error", err))
		return
	}
	h.send(frame{Type: frameTypeLogin, Payload: payload})
}

func (h *Hub) send(f frame) {
	h.mu.Lock()
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	if len(peers) == 0 {
		return
	}

	go func() {
		var g errgroup.Group
		for _, p := range peers {
			g.Go(func() error {
				return p.writeFrame(f)
			})
		}
		if err := g.Wait(); err != nil {
			h.logger.Warn("deliver login event", slog.Any("error", err))
		}
	}()
}

var _ auth.LoginBroadcaster = (*Hub)(nil)

package websocket

import (
	"context"
	"sync"
	"time"

	"chat-relay/internal/metrics"
	"chat-relay/internal/redis"

	"go.uber.org/zap"
)

const (
	presenceTimeout      = 2 * time.Second
	heartbeatInterval    = 30 * time.Second
	shutdownPollInterval = 20 * time.Millisecond
)

// Hub keeps track of open connections. Connections never talk to each
// other through it; it only owns registration, presence and shutdown.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	presence redis.PresenceTracker
	metrics  *metrics.Metrics
	logger   *ConnectionLogger
}

func NewHub(presence redis.PresenceTracker, m *metrics.Metrics, l *ConnectionLogger) *Hub {
	if presence == nil {
		presence = redis.NewNoOpPresence()
	}
	return &Hub{
		clients:  make(map[string]*Client),
		presence: presence,
		metrics:  m,
		logger:   l,
	}
}

// Shutdown sends a close frame to every open connection and waits until
// they have all unregistered or ctx is done.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Close()
	}

	ticker := time.NewTicker(shutdownPollInterval)
	defer ticker.Stop()
	for h.ClientCount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	h.metrics.ConnectionOpened()
	h.logger.Info("client connected", client.ID, client.ClientID)

	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	if err := h.presence.SetOnline(ctx, client.ID, client.ClientID); err != nil {
		h.logger.Error("presence update failed", client.ID, client.ClientID, err)
	}
}

// Unregister removes a client and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.ID]
	delete(h.clients, client.ID)
	h.mu.Unlock()

	if !ok {
		return
	}

	client.closeSend()
	h.metrics.ConnectionClosed()
	h.logger.Info("client disconnected", client.ID, client.ClientID,
		zap.Duration("connected_for", time.Since(client.connectedAt)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	if err := h.presence.SetOffline(ctx, client.ID); err != nil {
		h.logger.Error("presence update failed", client.ID, client.ClientID, err)
	}
}

// Heartbeat refreshes presence for a live client, at most once per
// heartbeatInterval. Only the client's read loop calls it.
func (h *Hub) Heartbeat(client *Client) {
	now := time.Now()
	if now.Sub(client.lastHeartbeat) < heartbeatInterval {
		return
	}
	client.lastHeartbeat = now

	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	if err := h.presence.Heartbeat(ctx, client.ID); err != nil {
		h.logger.Error("presence heartbeat failed", client.ID, client.ClientID, err)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Client(connectionID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connectionID]
	return c, ok
}

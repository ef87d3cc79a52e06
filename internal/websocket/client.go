package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"chat-relay/internal/domain"
	"chat-relay/internal/relay"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	sendBufferSize = 64
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// MessageRelay answers one inbound chat message. *relay.Relay satisfies it.
type MessageRelay interface {
	Handle(ctx context.Context, connectionID, clientID string, msg domain.InboundMessage) relay.Result
}

// Client is one accepted WebSocket connection.
type Client struct {
	ID       string // server-assigned connection id
	ClientID string // caller-supplied client id

	hub    *Hub
	conn   *websocket.Conn
	relay  MessageRelay
	logger *ConnectionLogger

	send   chan []byte
	mu     sync.Mutex // guards closed and sends on send
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup

	connectedAt   time.Time
	lastHeartbeat time.Time // owned by readPump
}

func NewClient(hub *Hub, conn *websocket.Conn, clientID string, r MessageRelay, l *ConnectionLogger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	return &Client{
		ID:            uuid.New().String(),
		ClientID:      clientID,
		hub:           hub,
		conn:          conn,
		relay:         r,
		logger:        l,
		send:          make(chan []byte, sendBufferSize),
		ctx:           ctx,
		cancel:        cancel,
		connectedAt:   now,
		lastHeartbeat: now,
	}
}

// Emit queues an event for this connection only. It never blocks.
func (c *Client) Emit(event domain.EventName, payload any) error {
	data, err := domain.EncodeEvent(event, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close cancels in-flight work and closes the send queue, so writePump sends
// a close frame and drops the connection. readPump does the cleanup.
func (c *Client) Close() {
	c.cancel()
	c.closeSend()
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump() {
	defer func() {
		// cancel in-flight upstream calls, let their tasks finish, then release
		c.cancel()
		c.tasks.Wait()
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.hub.Heartbeat(c)
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket unexpected close", c.ID, c.ClientID, err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		c.handleFrame(message)
	}
}

func (c *Client) handleFrame(message []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.logger.Warn("invalid frame", c.ID, c.ClientID, zap.Error(err))
		return
	}

	switch env.Event {
	case domain.EventChatMessage:
		var msg domain.InboundMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			c.logger.Warn("invalid chat message", c.ID, c.ClientID, zap.Error(err))
			return
		}
		c.tasks.Add(1)
		go c.relayMessage(msg)
	default:
		c.logger.Warn("unknown event", c.ID, c.ClientID, zap.String("event_name", string(env.Event)))
	}
}

// relayMessage runs one message through the relay. Several may be in flight
// for the same connection; replies go out in completion order.
func (c *Client) relayMessage(msg domain.InboundMessage) {
	defer c.tasks.Done()

	res := c.relay.Handle(c.ctx, c.ID, c.ClientID, msg)
	if res.Message == nil {
		return
	}
	if c.ctx.Err() != nil {
		return
	}
	if err := c.Emit(domain.EventChatMessage, res.Message); err != nil {
		c.logger.Warn("reply dropped", c.ID, c.ClientID, zap.Error(err))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

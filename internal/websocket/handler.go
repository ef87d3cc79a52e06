package websocket

import (
	"net/http"

	"chat-relay/internal/metrics"
	"chat-relay/internal/transport/httpdto"
	relay_errors "chat-relay/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	ClientIDQueryParam = "clientId"
	ClientIDHeader     = "X-Client-Id"
)

type Handler struct {
	hub      *Hub
	relay    MessageRelay
	metrics  *metrics.Metrics
	logger   *ConnectionLogger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, r MessageRelay, m *metrics.Metrics, l *ConnectionLogger) *Handler {
	return &Handler{
		hub:     hub,
		relay:   r,
		metrics: m,
		logger:  l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ClientIDFromRequest reads the caller-supplied client id from the handshake.
func ClientIDFromRequest(r *http.Request) string {
	if id := r.URL.Query().Get(ClientIDQueryParam); id != "" {
		return id
	}
	return r.Header.Get(ClientIDHeader)
}

// Connect gates the handshake on a non-empty client id, then upgrades.
// Nothing is sent to the client on success.
func (h *Handler) Connect(c *gin.Context) {
	clientID := ClientIDFromRequest(c.Request)
	if clientID == "" {
		h.metrics.ConnectionRejected()
		h.logger.Warn("connection rejected", "", "",
			zap.Error(relay_errors.ErrMissingClientID),
			zap.String("remote_addr", c.ClientIP()),
		)
		c.AbortWithStatusJSON(http.StatusUnauthorized, httpdto.NewErrorResponse(relay_errors.ErrMissingClientID.Error(), "MISSING_CLIENT_ID"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written an error response
		h.logger.Error("websocket upgrade failed", "", clientID, err)
		return
	}

	client := NewClient(h.hub, conn, clientID, h.relay, h.logger)
	h.hub.Register(client)

	go client.writePump()
	go client.readPump()
}

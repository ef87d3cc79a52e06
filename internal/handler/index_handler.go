package handler

import (
	"context"
	"net/http"

	"chat-relay/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

const AppTitle = "Chat Server"

type ConnectionCounter interface {
	ClientCount() int
}

// OnlineCounter reports connections marked online across all instances.
type OnlineCounter interface {
	OnlineCount(ctx context.Context) (int64, error)
}

type IndexHandler struct {
	environment string
	connections ConnectionCounter
	online      OnlineCounter
}

// NewIndexHandler builds the root handler. online may be nil when presence
// tracking is disabled.
func NewIndexHandler(environment string, connections ConnectionCounter, online OnlineCounter) *IndexHandler {
	return &IndexHandler{environment: environment, connections: connections, online: online}
}

func (h *IndexHandler) Index(c *gin.Context) {
	count := 0
	if h.connections != nil {
		count = h.connections.ClientCount()
	}
	info := httpdto.InfoResponse{
		Title:       AppTitle,
		Environment: h.environment,
		Connections: count,
	}
	if h.online != nil {
		n, err := h.online.OnlineCount(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
		} else {
			info.Online = &n
		}
	}
	c.JSON(http.StatusOK, info)
}

// Users is a placeholder; there is no user store behind it.
func (h *IndexHandler) Users(c *gin.Context) {
	c.String(http.StatusOK, "respond with a resource")
}

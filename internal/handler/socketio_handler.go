package handler

import (
	"net/http"

	"chat-relay/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

const SocketRouteActive = "Socket.IO route is active"

// SocketHealth confirms the HTTP path in front of the WebSocket endpoint is
// reachable, e.g. through a reverse proxy. It says nothing about the
// WebSocket transport itself.
func SocketHealth(c *gin.Context) {
	c.JSON(http.StatusOK, httpdto.MessageResponse{Message: SocketRouteActive})
}

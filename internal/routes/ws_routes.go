package routes

import (
	"tutorlink_backend/ws"

	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes mounts the notification channel endpoint. The
// handler does its own token verification during the handshake, before the
// upgrade, so no HTTP auth middleware sits in front of it.
func RegisterWebSocketRoutes(r *gin.Engine, wsHandler *ws.Handler) {
	r.GET("/ws/notifications", wsHandler.ServeWS)
}

package routes

import (
	"tutorlink_backend/internal/handlers"
	"tutorlink_backend/ws"

	"github.com/gin-gonic/gin"
)

// routeRegistrar is anything that mounts its own routes on a group.
// Registration is an explicit table built at startup.
type routeRegistrar interface {
	RegisterRoutes(r *gin.RouterGroup)
}

func RegisterRoutes(r *gin.Engine, authHandler *handlers.AuthHandler, notificationHandler *handlers.NotificationHandler, wsHandler *ws.Handler) {
	api := r.Group("/api/v1")

	registrars := []routeRegistrar{
		authHandler,
		notificationHandler,
	}
	for _, registrar := range registrars {
		registrar.RegisterRoutes(api)
	}

	RegisterWebSocketRoutes(r, wsHandler)
}

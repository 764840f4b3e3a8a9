package ws

import (
	"net/http"
	"strings"

	"tutorlink_backend/internal/auth"
	"tutorlink_backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin checks are handled by the fronting proxy
	},
}

// Handler authenticates and upgrades notification channel connections.
type Handler struct {
	registry  *PresenceRegistry
	unread    UnreadCounter
	jwtSecret string
}

func NewHandler(registry *PresenceRegistry, unread UnreadCounter, jwtSecret string) *Handler {
	return &Handler{
		registry:  registry,
		unread:    unread,
		jwtSecret: jwtSecret,
	}
}

// ServeWS is the connection handshake. The token is verified before the
// upgrade: an unauthenticated attempt is rejected with 401 and no websocket
// frame is ever exchanged.
func (h *Handler) ServeWS(c *gin.Context) {
	token := extractToken(c)
	if token == "" {
		logger.Warn("connection attempt without token", "remote", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication error: No token provided"})
		return
	}

	claims, err := auth.ParseToken(h.jwtSecret, token)
	if err != nil {
		logger.Warn("connection authentication failed", "remote", c.ClientIP(), "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication error: Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithError(err).Warn("websocket upgrade failed", "user_id", claims.UserID)
		return
	}

	client := newClient(claims, conn, h.registry, h.unread)
	h.registry.Register(claims.UserID, client)
	logger.Info("user connected to notifications", "user_id", claims.UserID, "role", claims.Role)

	go client.readPump()
	go client.writePump()
}

// extractToken reads the bearer credential from the handshake: the `token`
// query parameter or the Authorization header.
func extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mosaicpm/mosaic/backend/internal/middleware"
	"github.com/mosaicpm/mosaic/backend/internal/realtime"
)

// SocketHandler upgrades authenticated requests to websocket sessions
type SocketHandler struct {
	hub      *realtime.Hub
	access   realtime.BoardAccess
	upgrader websocket.Upgrader
}

// NewSocketHandler creates a new SocketHandler. Allowed origins mirror the
// CORS configuration; requests without an Origin header are accepted so
// non-browser clients can connect.
func NewSocketHandler(hub *realtime.Hub, access realtime.BoardAccess, allowedOrigins []string) *SocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &SocketHandler{
		hub:    hub,
		access: access,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// Connect upgrades the request and runs the session until the client
// disconnects
func (h *SocketHandler) Connect(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("SocketHandler.Connect: upgrade failed for user %s: %v", user.ID, err)
		return
	}

	session := realtime.NewSession(h.hub, conn, user.ID, user.FullName(), h.access)
	session.Run()
}

// RegisterRoutes registers the websocket route
func (h *SocketHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	router.GET("/ws", authMiddleware, h.Connect)
}

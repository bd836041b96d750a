package websocket

import (
	"net/http"
	"net/url"
	"slices"

	"carpool/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler upgrades authenticated requests. allowedOrigins follows the
// CORS setting; "*" accepts any origin and an empty list only the same host.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	allowAll := slices.Contains(allowedOrigins, "*")

	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowAll {
					return true
				}
				if slices.Contains(allowedOrigins, origin) {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && u.Host == r.Host
			},
		},
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	// set by the auth middleware
	userID := c.GetString(utils.ContextUserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.WithUserID(userID).WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, userID, c.GetString(utils.ContextUserRoleKey))
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

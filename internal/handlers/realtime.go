package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/splitnest/splitnest/internal/realtime"
)

// Realtime upgrades GET /ws connections and hands them to the hub. The
// connection authenticates itself afterwards with an in-band auth message.
func Realtime(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub.Serve(c.Writer, c.Request)
	}
}

package display

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/maxedmini/pi-kiosk/internal/http/api"
	"github.com/maxedmini/pi-kiosk/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Kiosks connect from arbitrary LAN addresses.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSModule mounts the websocket upgrade endpoints: /display for kiosks,
// /admin for dashboards watching change events.
func WSModule(h *hub.Hub, gw *Gateway) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.Raw(http.MethodGet, "/display", func(ctx *gin.Context) {
			conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
			if err != nil {
				log.Warn().Err(err).Str("addr", ctx.ClientIP()).Msg("display websocket upgrade failed")
				return
			}
			client := hub.NewClient(h, conn, ctx.ClientIP(), gw)
			client.Run()
		})

		c.Raw(http.MethodGet, "/admin", func(ctx *gin.Context) {
			conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
			if err != nil {
				log.Warn().Err(err).Str("addr", ctx.ClientIP()).Msg("admin websocket upgrade failed")
				return
			}
			client := hub.NewClient(h, conn, ctx.ClientIP(), adminHandler{})
			h.RegisterAdmin(client)
			client.Run()
		})
	})
}

// adminHandler ignores inbound traffic; admin channels are push-only.
type adminHandler struct{}

func (adminHandler) HandleMessage(*hub.Client, hub.Message) {}
func (adminHandler) HandleDisconnect(*hub.Client)           {}

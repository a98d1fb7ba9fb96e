package endpoints

import (
	"net"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/maxedmini/pi-kiosk/internal/fleet"
	"github.com/maxedmini/pi-kiosk/internal/http/api"
	"github.com/maxedmini/pi-kiosk/internal/http/api/admin/packets"
)

type SystemController struct {
	registry *fleet.Registry
}

func SystemModule(registry *fleet.Registry) api.Module {
	ctl := &SystemController{registry: registry}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/status", ctl.status)
	})
}

func (s *SystemController) status(ctx *gin.Context) (any, *api.APIError) {
	hostname, _ := os.Hostname()
	return packets.StatusResponse{
		Displays: s.registry.Count(),
		Hostname: hostname,
		IP:       outboundIP(),
	}, nil
}

// outboundIP finds the address this host would use to reach the network.
// No packets are sent; the dial just resolves a local address.
func outboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}

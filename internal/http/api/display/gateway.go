// Package display carries the kiosk-facing websocket endpoint: each kiosk
// opens one long-lived channel, announces its hostname, and is pushed its
// page list and control messages from then on.
package display

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/maxedmini/pi-kiosk/internal/fleet"
	"github.com/maxedmini/pi-kiosk/internal/hub"
	"github.com/maxedmini/pi-kiosk/internal/model"
	"github.com/maxedmini/pi-kiosk/internal/playlist"
	"github.com/maxedmini/pi-kiosk/internal/rotation"
)

// Gateway dispatches inbound display messages to the registry and the
// rotation engine. It is the hub's MessageHandler for display channels.
type Gateway struct {
	hub      *hub.Hub
	registry *fleet.Registry
	engine   *rotation.Engine
}

func NewGateway(h *hub.Hub, registry *fleet.Registry, engine *rotation.Engine) *Gateway {
	return &Gateway{hub: h, registry: registry, engine: engine}
}

type connectPayload struct {
	Hostname string `json:"hostname"`
	IP       string `json:"ip"`
}

type healthPayload struct {
	TempC      *float64 `json:"temp_c"`
	MemTotalMB *int     `json:"mem_total_mb"`
	MemFreeMB  *int     `json:"mem_free_mb"`
	UptimeSec  *int64   `json:"uptime_sec"`
	WifiRSSI   *int     `json:"wifi_rssi_dbm"`
}

func (g *Gateway) HandleMessage(c *hub.Client, msg hub.Message) {
	switch msg.Event {
	case "connect":
		g.handleConnect(c, msg.Data)
	case "request_pages":
		g.pushPages(c.Hostname())
	case "status":
		g.handleStatus(c, msg.Data)
	case "health":
		g.handleHealth(c, msg.Data)
	default:
		log.Debug().Str("event", msg.Event).Str("hostname", c.Hostname()).Msg("ignoring unknown display event")
	}
}

func (g *Gateway) HandleDisconnect(c *hub.Client) {
	hostname := c.Hostname()
	if hostname == "" {
		return
	}
	// A reconnect supersedes: when the replacement already owns the slot,
	// the old channel's teardown must not mark the display offline or
	// cancel its rotation.
	if g.hub.Superseded(c) {
		return
	}
	g.engine.Drop(hostname)
	g.registry.Disconnect(hostname)
}

func (g *Gateway) handleConnect(c *hub.Client, data json.RawMessage) {
	var p connectPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Hostname == "" {
		log.Warn().Str("addr", c.Addr()).Msg("display connect without hostname, dropping")
		c.Close()
		return
	}
	addr := p.IP
	if addr == "" {
		addr = c.Addr()
	}

	g.hub.RegisterDisplay(p.Hostname, c)
	g.registry.Connect(p.Hostname, addr)
	log.Info().Str("hostname", p.Hostname).Str("addr", addr).Msg("display connected")

	g.pushPages(p.Hostname)
}

// pushPages resyncs the display's rotation state and pushes the fresh
// effective list. An empty list gets the fallback entry so the kiosk always
// has something to show.
func (g *Gateway) pushPages(hostname string) {
	if hostname == "" {
		return
	}
	pages := g.engine.Resync(hostname)
	if len(pages) == 0 {
		pages = []model.Page{playlist.FallbackPage()}
	}
	g.hub.SendToDisplay(hostname, "pages_list", pages)
}

func (g *Gateway) handleStatus(c *hub.Client, data json.RawMessage) {
	if c.Hostname() == "" {
		return
	}
	var report fleet.StatusReport
	if err := json.Unmarshal(data, &report); err != nil {
		log.Warn().Err(err).Str("hostname", c.Hostname()).Msg("malformed status report")
		return
	}
	g.registry.UpdateStatus(c.Hostname(), c.Addr(), report)
}

func (g *Gateway) handleHealth(c *hub.Client, data json.RawMessage) {
	if c.Hostname() == "" {
		return
	}
	var p healthPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("hostname", c.Hostname()).Msg("malformed health report")
		return
	}
	g.registry.UpdateHealth(c.Hostname(), model.Health{
		TempC:       p.TempC,
		MemTotalMB:  p.MemTotalMB,
		MemFreeMB:   p.MemFreeMB,
		UptimeSec:   p.UptimeSec,
		WifiRSSIDbm: p.WifiRSSI,
	})
}

package main

import (
	"github.com/maxedmini/pi-kiosk/internal/hub"
	"github.com/maxedmini/pi-kiosk/internal/mqtt"
	"github.com/maxedmini/pi-kiosk/internal/rotation"
)

// fanout delivers engine output over both channels a kiosk may listen on:
// its websocket and, when a broker is configured, its MQTT command topic.
type fanout struct {
	hub    *hub.Hub
	bridge *mqtt.Bridge
}

var (
	_ rotation.Sender      = (*fanout)(nil)
	_ rotation.Broadcaster = (*fanout)(nil)
)

func (f *fanout) SendControl(hostname string, cmd rotation.Command) {
	f.hub.SendToDisplay(hostname, "control", cmd)
	f.bridge.SendControl(hostname, cmd)
}

func (f *fanout) BroadcastEvent(event string, payload any) {
	f.hub.BroadcastEvent(event, payload)
	f.bridge.BroadcastEvent(event, payload)
}

package display

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxedmini/pi-kiosk/internal/events"
	"github.com/maxedmini/pi-kiosk/internal/fleet"
	"github.com/maxedmini/pi-kiosk/internal/hub"
	"github.com/maxedmini/pi-kiosk/internal/model"
	"github.com/maxedmini/pi-kiosk/internal/rotation"
)

type staticLists struct {
	pages []model.Page
}

func (s *staticLists) Effective(string) ([]model.Page, error) {
	return s.pages, nil
}

type nopSender struct{}

func (nopSender) SendControl(string, rotation.Command) {}

func newTestGateway(pages []model.Page) (*Gateway, *hub.Hub, *fleet.Registry, *rotation.Engine) {
	h := hub.NewHub()
	registry := fleet.NewRegistry("", events.NewBus())
	engine := rotation.NewEngine(&staticLists{pages: pages}, nopSender{})
	return NewGateway(h, registry, engine), h, registry, engine
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestConnectRegistersDisplay(t *testing.T) {
	gw, h, registry, engine := newTestGateway([]model.Page{{ID: 1, Duration: 30}})
	c := hub.NewClient(h, nil, "10.0.0.5", gw)

	gw.HandleMessage(c, hub.Message{
		Event: "connect",
		Data:  raw(t, map[string]string{"hostname": "kiosk-1", "ip": "192.168.1.20"}),
	})

	assert.Equal(t, []string{"kiosk-1"}, h.ConnectedDisplays())
	require.Equal(t, 1, registry.Count())
	snap := registry.List()[0]
	assert.Equal(t, "192.168.1.20", snap.Address)
	assert.True(t, snap.Connected)

	state, _, known := engine.Snapshot("kiosk-1")
	assert.True(t, known)
	assert.Equal(t, rotation.StatePlaying, state)
}

func TestConnectWithoutHostnameRejected(t *testing.T) {
	gw, h, registry, _ := newTestGateway(nil)
	c := hub.NewClient(h, nil, "10.0.0.5", gw)

	gw.HandleMessage(c, hub.Message{Event: "connect", Data: raw(t, map[string]string{"ip": "10.0.0.5"})})

	assert.Empty(t, h.ConnectedDisplays())
	assert.Equal(t, 0, registry.Count())
}

func TestStatusUpdatesRegistry(t *testing.T) {
	gw, h, registry, _ := newTestGateway(nil)
	c := hub.NewClient(h, nil, "10.0.0.5", gw)
	gw.HandleMessage(c, hub.Message{
		Event: "connect",
		Data:  raw(t, map[string]string{"hostname": "kiosk-1"}),
	})

	gw.HandleMessage(c, hub.Message{
		Event: "status",
		Data: raw(t, map[string]any{
			"current_page_id": 4,
			"current_index":   1,
			"total_pages":     3,
			"paused":          true,
		}),
	})

	snap := registry.List()[0]
	assert.Equal(t, 1, snap.CurrentIndex)
	assert.Equal(t, 3, snap.TotalPages)
	assert.True(t, snap.Paused)
	require.NotNil(t, snap.CurrentPageID)
	assert.Equal(t, 4, *snap.CurrentPageID)
}

func TestHealthUpdatesRegistry(t *testing.T) {
	gw, h, registry, _ := newTestGateway(nil)
	c := hub.NewClient(h, nil, "10.0.0.5", gw)
	gw.HandleMessage(c, hub.Message{
		Event: "connect",
		Data:  raw(t, map[string]string{"hostname": "kiosk-1"}),
	})

	gw.HandleMessage(c, hub.Message{
		Event: "health",
		Data: raw(t, map[string]any{
			"temp_c":        51.3,
			"mem_free_mb":   212,
			"uptime_sec":    86400,
			"wifi_rssi_dbm": -58,
		}),
	})

	snap := registry.List()[0]
	require.NotNil(t, snap.Health.TempC)
	assert.Equal(t, 51.3, *snap.Health.TempC)
	require.NotNil(t, snap.Health.MemFreeMB)
	assert.Equal(t, 212, *snap.Health.MemFreeMB)
}

func TestStatusBeforeConnectIgnored(t *testing.T) {
	gw, h, registry, _ := newTestGateway(nil)
	c := hub.NewClient(h, nil, "10.0.0.5", gw)

	gw.HandleMessage(c, hub.Message{Event: "status", Data: raw(t, map[string]any{"current_index": 2})})
	assert.Equal(t, 0, registry.Count())
}

func TestDisconnectMarksOfflineAndStopsRotation(t *testing.T) {
	gw, h, registry, engine := newTestGateway([]model.Page{{ID: 1, Duration: 30}})
	c := hub.NewClient(h, nil, "10.0.0.5", gw)
	gw.HandleMessage(c, hub.Message{
		Event: "connect",
		Data:  raw(t, map[string]string{"hostname": "kiosk-1"}),
	})

	gw.HandleDisconnect(c)

	snap := registry.List()[0]
	assert.False(t, snap.Connected)

	// The engine keeps the entry so an offline goto still lands later.
	_, _, known := engine.Snapshot("kiosk-1")
	assert.True(t, known)
}

func TestReconnectSurvivesOldChannelTeardown(t *testing.T) {
	gw, h, registry, engine := newTestGateway([]model.Page{{ID: 1, Duration: 30}})

	old := hub.NewClient(h, nil, "10.0.0.5", gw)
	gw.HandleMessage(old, hub.Message{
		Event: "connect",
		Data:  raw(t, map[string]string{"hostname": "kiosk-1"}),
	})

	replacement := hub.NewClient(h, nil, "10.0.0.5", gw)
	gw.HandleMessage(replacement, hub.Message{
		Event: "connect",
		Data:  raw(t, map[string]string{"hostname": "kiosk-1"}),
	})

	// The superseded channel's read loop unwinds after the replacement
	// registered; its teardown must not clobber the fresh connection.
	gw.HandleDisconnect(old)

	snap := registry.List()[0]
	assert.True(t, snap.Connected, "fresh reconnect must stay connected after old channel teardown")

	state, _, known := engine.Snapshot("kiosk-1")
	require.True(t, known)
	assert.Equal(t, rotation.StatePlaying, state)

	// The replacement disconnecting for real still tears down.
	gw.HandleDisconnect(replacement)
	assert.False(t, registry.List()[0].Connected)
}

func TestUnknownEventIgnored(t *testing.T) {
	gw, h, _, _ := newTestGateway(nil)
	c := hub.NewClient(h, nil, "10.0.0.5", gw)

	assert.NotPanics(t, func() {
		gw.HandleMessage(c, hub.Message{Event: "telemetry", Data: raw(t, map[string]any{})})
	})
}

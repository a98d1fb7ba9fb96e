package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopHandler struct{}

func (nopHandler) HandleMessage(*Client, Message) {}
func (nopHandler) HandleDisconnect(*Client)       {}

func newTestClient(h *Hub) *Client {
	// No pumps run in tests, so a nil connection is fine.
	return NewClient(h, nil, "10.0.0.5", nopHandler{})
}

func drain(c *Client) []Message {
	var out []Message
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestNewMessagePayloads(t *testing.T) {
	msg := newMessage("pages_changed", nil)
	assert.Equal(t, "pages_changed", msg.Event)
	assert.Nil(t, msg.Data)

	msg = newMessage("control", map[string]string{"action": "next"})
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, "next", decoded["action"])

	raw := json.RawMessage(`{"already":"encoded"}`)
	msg = newMessage("sync", raw)
	assert.Equal(t, raw, msg.Data)
}

func TestSendToDisplay(t *testing.T) {
	h := NewHub()
	c := newTestClient(h)
	h.RegisterDisplay("kiosk-1", c)

	h.SendToDisplay("kiosk-1", "control", map[string]string{"action": "pause"})
	msgs := drain(c)
	require.Len(t, msgs, 1)
	assert.Equal(t, "control", msgs[0].Event)

	// Unknown hostname is silently skipped.
	h.SendToDisplay("ghost", "control", nil)
}

func TestRegisterDisplaySupersedes(t *testing.T) {
	h := NewHub()
	old := newTestClient(h)
	h.RegisterDisplay("kiosk-1", old)

	replacement := newTestClient(h)
	h.RegisterDisplay("kiosk-1", replacement)

	h.SendToDisplay("kiosk-1", "control", nil)
	assert.Empty(t, drain(old), "superseded channel receives nothing")
	assert.Len(t, drain(replacement), 1)

	// The old channel was torn down.
	_, open := <-old.send
	assert.False(t, open)
}

func TestUnregisterOnlyEvictsOwner(t *testing.T) {
	h := NewHub()
	old := newTestClient(h)
	h.RegisterDisplay("kiosk-1", old)
	replacement := newTestClient(h)
	h.RegisterDisplay("kiosk-1", replacement)

	// The superseded connection's read pump unwinds after the replacement
	// registered; it must not evict the replacement.
	h.unregister(old)

	h.SendToDisplay("kiosk-1", "control", nil)
	assert.Len(t, drain(replacement), 1)
}

func TestSuperseded(t *testing.T) {
	h := NewHub()
	old := newTestClient(h)
	h.RegisterDisplay("kiosk-1", old)
	assert.False(t, h.Superseded(old), "sole owner is not superseded")

	replacement := newTestClient(h)
	h.RegisterDisplay("kiosk-1", replacement)
	assert.True(t, h.Superseded(old))
	assert.False(t, h.Superseded(replacement))

	// After the replacement's own teardown vacated the slot, neither
	// client counts as superseded.
	h.unregister(replacement)
	assert.False(t, h.Superseded(old))

	// A client that never registered a hostname.
	assert.False(t, h.Superseded(newTestClient(h)))
}

func TestBroadcastReachesDisplaysAndAdmins(t *testing.T) {
	h := NewHub()
	display := newTestClient(h)
	h.RegisterDisplay("kiosk-1", display)
	admin := newTestClient(h)
	h.RegisterAdmin(admin)

	h.BroadcastEvent("pages_changed", nil)

	assert.Len(t, drain(display), 1)
	assert.Len(t, drain(admin), 1)
}

func TestTrySendDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	c := newTestClient(h)
	h.RegisterDisplay("kiosk-1", c)

	for i := 0; i < sendBuffer+10; i++ {
		h.SendToDisplay("kiosk-1", "pages_changed", nil)
	}

	assert.Len(t, drain(c), sendBuffer, "overflow is dropped, never blocks")
}

func TestTrySendAfterCloseDoesNotPanic(t *testing.T) {
	h := NewHub()
	c := newTestClient(h)
	h.RegisterDisplay("kiosk-1", c)

	c.Close()
	assert.NotPanics(t, func() {
		h.SendToDisplay("kiosk-1", "control", nil)
	})
}

func TestConnectedDisplays(t *testing.T) {
	h := NewHub()
	h.RegisterDisplay("kiosk-1", newTestClient(h))
	h.RegisterDisplay("kiosk-2", newTestClient(h))

	assert.ElementsMatch(t, []string{"kiosk-1", "kiosk-2"}, h.ConnectedDisplays())
}

// Package events is the in-process change-notification bus. Mutators fire
// after their state commits; subscribers (the websocket hub, the MQTT
// bridge, the rotation engine) fan the event out. Publish runs subscribers
// synchronously in subscription order, so listeners observe events in the
// order mutations committed.
package events

import "sync"

const (
	PagesChanged    = "pages_changed"
	DisplaysChanged = "displays_changed"
)

type Handler func(event string)

type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) Publish(event string) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

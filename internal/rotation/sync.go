package rotation

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Broadcaster fans an event out to every connected display in a single
// pass. Delivery is best effort: a display reconnecting at that instant
// misses the event and catches up on its next natural rotation.
type Broadcaster interface {
	BroadcastEvent(event string, payload any)
}

// SyncPayload tells displays to jump to a page at a shared wall-clock
// instant so they transition together despite independent local timers.
type SyncPayload struct {
	SyncAt      float64 `json:"sync_at"`
	PageID      *int    `json:"page_id"`
	SyncEnabled bool    `json:"sync_enabled"`
}

// SyncCoordinator issues coordinated jump-to-page operations. It never
// waits for acknowledgements.
type SyncCoordinator struct {
	engine *Engine
	cast   Broadcaster
	mode   func() bool

	now   func() time.Time
	after func(d time.Duration, f func()) *time.Timer
}

// NewSyncCoordinator wires the coordinator. mode reports the sync_enabled
// setting at broadcast time.
func NewSyncCoordinator(engine *Engine, cast Broadcaster, mode func() bool) *SyncCoordinator {
	return &SyncCoordinator{
		engine: engine,
		cast:   cast,
		mode:   mode,
		now:    time.Now,
		after:  time.AfterFunc,
	}
}

// SyncAll broadcasts a prepare-to-jump instruction once to the whole fleet
// and returns the agreed instant. When a target page is named, the engine
// applies the same goto at that instant so the server-side rotation state
// converges with what the displays were told; displays that also jumped on
// their own see an idempotent repeat.
func (s *SyncCoordinator) SyncAll(pageID *int, delayMs int) time.Time {
	if delayMs < 0 {
		delayMs = 0
	}
	delay := time.Duration(delayMs) * time.Millisecond
	syncAt := s.now().Add(delay)

	s.cast.BroadcastEvent("sync", SyncPayload{
		SyncAt:      float64(syncAt.UnixMilli()) / 1000.0,
		PageID:      pageID,
		SyncEnabled: s.mode(),
	})
	log.Info().Time("sync_at", syncAt).Int("delay_ms", delayMs).Msg("sync broadcast issued")

	if pageID != nil {
		target := *pageID
		s.after(delay, func() {
			s.engine.Apply("", Command{Action: ActionGoto, PageID: &target})
		})
	}
	return syncAt
}

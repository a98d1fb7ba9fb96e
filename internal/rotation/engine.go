// Package rotation holds the per-display play/pause/index state machine and
// drives the countdown timers that advance each kiosk through its effective
// page list.
package rotation

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maxedmini/pi-kiosk/internal/model"
)

// Control actions accepted from the administrative API.
const (
	ActionPause         = "pause"
	ActionResume        = "resume"
	ActionNext          = "next"
	ActionPrev          = "prev"
	ActionRefresh       = "refresh"
	ActionGoto          = "goto"
	ActionLoginMode     = "login_mode"
	ActionExitLoginMode = "exit_login_mode"
	ActionAdminMode     = "admin_mode"
	ActionExitAdminMode = "exit_admin_mode"
)

var validActions = map[string]bool{
	ActionPause:         true,
	ActionResume:        true,
	ActionNext:          true,
	ActionPrev:          true,
	ActionRefresh:       true,
	ActionGoto:          true,
	ActionLoginMode:     true,
	ActionExitLoginMode: true,
	ActionAdminMode:     true,
	ActionExitAdminMode: true,
}

// ValidAction reports whether action is a recognized control action.
func ValidAction(action string) bool {
	return validActions[action]
}

// Command is a control instruction applied to one display's rotation state
// and forwarded over its channel.
type Command struct {
	Action string `json:"action"`
	PageID *int   `json:"page_id,omitempty"`
}

// State is the rotation sub-state of one display.
type State string

const (
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateEmpty   State = "empty"
)

// EffectiveLister resolves a display's effective page list.
type EffectiveLister interface {
	Effective(hostname string) ([]model.Page, error)
}

// Sender forwards a control message to a display's channel. A send failure
// is the sender's problem to log; the engine's state transition has already
// happened and the display re-syncs on reconnect.
type Sender interface {
	SendControl(hostname string, cmd Command)
}

type displayState struct {
	pages       []model.Page
	index       int
	paused      bool
	connected   bool
	pendingGoto *int
	timer       *time.Timer
}

func (d *displayState) empty() bool { return len(d.pages) == 0 }

type Engine struct {
	mu       sync.Mutex
	displays map[string]*displayState
	lists    EffectiveLister
	send     Sender

	// after is time.AfterFunc behind a seam so tests can capture timers.
	after func(d time.Duration, f func()) *time.Timer
}

func NewEngine(lists EffectiveLister, send Sender) *Engine {
	return &Engine{
		displays: make(map[string]*displayState),
		lists:    lists,
		send:     send,
		after:    time.AfterFunc,
	}
}

// Resync is called when a display connects or reconnects. The server-side
// index is reset to 0 — or to a goto issued while the display was offline —
// rather than trusting whatever the display drifted to. Returns the fresh
// effective list for the pages_list push.
func (e *Engine) Resync(hostname string) []model.Page {
	pages, err := e.lists.Effective(hostname)
	if err != nil {
		log.Error().Err(err).Str("hostname", hostname).Msg("resync: failed to load effective list")
		pages = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.displays[hostname]
	if !ok {
		d = &displayState{}
		e.displays[hostname] = d
	}
	d.pages = pages
	d.connected = true
	d.index = 0
	if d.pendingGoto != nil {
		if pos, ok := positionOf(pages, *d.pendingGoto); ok {
			d.index = pos
		}
		d.pendingGoto = nil
	}
	e.armTimer(hostname, d)
	return pages
}

// Drop marks a display disconnected and cancels its timer. The entry is
// kept so a goto issued while offline still lands on reconnect.
func (e *Engine) Drop(hostname string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.displays[hostname]
	if !ok {
		return
	}
	d.connected = false
	e.stopTimer(d)
}

// Forget removes a display entirely (after the liveness sweep pruned it).
func (e *Engine) Forget(hostname string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if d, ok := e.displays[hostname]; ok {
		e.stopTimer(d)
		delete(e.displays, hostname)
	}
}

// Apply runs cmd against one display, or against every display when target
// is empty. A target the engine has never seen is accepted and does
// nothing; the command was validly issued, the display just isn't there.
func (e *Engine) Apply(target string, cmd Command) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if target != "" {
		if d, ok := e.displays[target]; ok {
			e.apply(target, d, cmd)
		}
		return
	}
	for hostname, d := range e.displays {
		e.apply(hostname, d, cmd)
	}
}

// apply executes one transition. Callers hold e.mu.
func (e *Engine) apply(hostname string, d *displayState, cmd Command) {
	switch cmd.Action {
	case ActionNext:
		if d.empty() {
			return
		}
		d.index = (d.index + 1) % len(d.pages)
		e.armTimer(hostname, d)

	case ActionPrev:
		if d.empty() {
			return
		}
		d.index = (d.index - 1 + len(d.pages)) % len(d.pages)
		e.armTimer(hostname, d)

	case ActionPause, ActionLoginMode, ActionAdminMode:
		d.paused = true
		e.stopTimer(d)

	case ActionResume:
		d.paused = false
		e.armTimer(hostname, d)

	case ActionGoto:
		if cmd.PageID == nil {
			return
		}
		if !d.connected {
			pending := *cmd.PageID
			d.pendingGoto = &pending
			return
		}
		pos, ok := positionOf(d.pages, *cmd.PageID)
		if !ok {
			// Not in this display's effective list: state unchanged,
			// nothing forwarded.
			return
		}
		d.index = pos
		e.armTimer(hostname, d)

	case ActionRefresh, ActionExitLoginMode, ActionExitAdminMode:
		// One-shot signals: no index or timer change.

	default:
		return
	}

	if d.connected {
		e.send.SendControl(hostname, cmd)
	}
}

// RefreshEffective reloads every display's effective list after a playlist
// or schedule change. Indexes are clamped modulo the new length; a display
// whose list emptied enters the empty state with no timer.
func (e *Engine) RefreshEffective() {
	e.mu.Lock()
	hostnames := make([]string, 0, len(e.displays))
	for hostname := range e.displays {
		hostnames = append(hostnames, hostname)
	}
	e.mu.Unlock()

	for _, hostname := range hostnames {
		pages, err := e.lists.Effective(hostname)
		if err != nil {
			log.Error().Err(err).Str("hostname", hostname).Msg("failed to refresh effective list")
			continue
		}

		e.mu.Lock()
		if d, ok := e.displays[hostname]; ok {
			d.pages = pages
			if d.empty() {
				d.index = 0
				e.stopTimer(d)
			} else {
				d.index = d.index % len(d.pages)
				e.armTimer(hostname, d)
			}
		}
		e.mu.Unlock()
	}
}

// Snapshot returns a display's current rotation state.
func (e *Engine) Snapshot(hostname string) (State, int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.displays[hostname]
	if !ok {
		return StateEmpty, 0, false
	}
	switch {
	case d.empty():
		return StateEmpty, 0, true
	case d.paused:
		return StatePaused, d.index, true
	default:
		return StatePlaying, d.index, true
	}
}

// armTimer replaces the countdown with one for the current page's duration.
// No timer runs while paused, disconnected, or empty. Callers hold e.mu.
func (e *Engine) armTimer(hostname string, d *displayState) {
	e.stopTimer(d)
	if d.paused || !d.connected || d.empty() {
		return
	}
	duration := time.Duration(d.pages[d.index].Duration) * time.Second
	d.timer = e.after(duration, func() {
		e.tick(hostname)
	})
}

func (e *Engine) stopTimer(d *displayState) {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// tick fires when the current page's countdown elapses: advance and tell
// the display.
func (e *Engine) tick(hostname string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.displays[hostname]
	if !ok || d.paused || !d.connected || d.empty() {
		return
	}
	d.index = (d.index + 1) % len(d.pages)
	e.armTimer(hostname, d)
	e.send.SendControl(hostname, Command{Action: ActionNext})
}

func positionOf(pages []model.Page, pageID int) (int, bool) {
	for i, p := range pages {
		if p.ID == pageID {
			return i, true
		}
	}
	return 0, false
}

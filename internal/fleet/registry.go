// Package fleet tracks the connected kiosks. The registry is in-memory and
// hostname-keyed: a reconnect supersedes the prior entry rather than
// duplicating it, and a disconnect keeps the last-known snapshot around for
// the administrative view until the liveness sweep prunes it.
package fleet

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maxedmini/pi-kiosk/internal/events"
	"github.com/maxedmini/pi-kiosk/internal/model"
)

const (
	// HeartbeatInterval is how often displays are expected to report status.
	HeartbeatInterval = 10 * time.Second
	// StaleAfter is the liveness timeout, ~3x the heartbeat interval.
	StaleAfter = 90 * time.Second
	// SweepInterval is how often the prune loop runs.
	SweepInterval = 30 * time.Second
)

// StatusReport is a display's periodic self-report.
type StatusReport struct {
	CurrentPageID *int    `json:"current_page_id"`
	CurrentURL    *string `json:"current_url"`
	CurrentIndex  int     `json:"current_index"`
	TotalPages    int     `json:"total_pages"`
	Paused        bool    `json:"paused"`
	AdminMode     bool    `json:"admin_mode_active"`
}

type Registry struct {
	mu       sync.Mutex
	displays map[string]*model.DisplaySnapshot
	self     string
	bus      *events.Bus
	now      func() time.Time
	onPrune  func(hostnames []string)
}

// NewRegistry creates a registry. selfHostname, when the coordinator host is
// itself a display, is pinned first in List.
func NewRegistry(selfHostname string, bus *events.Bus) *Registry {
	return &Registry{
		displays: make(map[string]*model.DisplaySnapshot),
		self:     selfHostname,
		bus:      bus,
		now:      time.Now,
	}
}

// OnPrune registers a callback invoked with the hostnames each sweep
// removes, so per-display state held elsewhere (rotation timers, pending
// commands) is released with the entry. Call before Run starts.
func (r *Registry) OnPrune(fn func(hostnames []string)) {
	r.onPrune = fn
}

// Connect creates or revives the entry for hostname. The channel itself is
// owned by the hub, which closes any superseded connection; the registry
// only records the snapshot.
func (r *Registry) Connect(hostname, addr string) model.DisplaySnapshot {
	r.mu.Lock()
	d, ok := r.displays[hostname]
	if !ok {
		d = &model.DisplaySnapshot{Hostname: hostname}
		r.displays[hostname] = d
	}
	d.Address = addr
	d.Connected = true
	d.LastSeen = r.now()
	snap := *d
	r.mu.Unlock()

	if ok {
		log.Info().Str("hostname", hostname).Str("ip", addr).Msg("display reconnected")
	} else {
		log.Info().Str("hostname", hostname).Str("ip", addr).Msg("display connected")
	}
	r.bus.Publish(events.DisplaysChanged)
	return snap
}

// UpdateStatus records a status heartbeat. An unknown hostname is treated as
// a fresh connect rather than dropped: displays that were pruned while
// offline re-register through their next heartbeat.
func (r *Registry) UpdateStatus(hostname, addr string, st StatusReport) {
	r.mu.Lock()
	d, ok := r.displays[hostname]
	if !ok {
		d = &model.DisplaySnapshot{Hostname: hostname, Address: addr}
		r.displays[hostname] = d
	}
	if addr != "" {
		d.Address = addr
	}
	d.Connected = true
	d.CurrentPageID = st.CurrentPageID
	d.CurrentURL = st.CurrentURL
	d.CurrentIndex = st.CurrentIndex
	d.TotalPages = st.TotalPages
	d.Paused = st.Paused
	d.AdminMode = st.AdminMode
	d.LastSeen = r.now()
	r.mu.Unlock()

	r.bus.Publish(events.DisplaysChanged)
}

// UpdateHealth records the health metrics a kiosk reports.
func (r *Registry) UpdateHealth(hostname string, h model.Health) {
	r.mu.Lock()
	d, ok := r.displays[hostname]
	if !ok {
		d = &model.DisplaySnapshot{Hostname: hostname}
		r.displays[hostname] = d
		d.Connected = true
	}
	d.Health = h
	d.LastSeen = r.now()
	r.mu.Unlock()

	r.bus.Publish(events.DisplaysChanged)
}

// SetScreenshot attaches the latest screenshot URL to a display, if known.
func (r *Registry) SetScreenshot(hostname, url string) {
	r.mu.Lock()
	d, ok := r.displays[hostname]
	if ok {
		d.ScreenshotURL = url
	}
	r.mu.Unlock()

	if ok {
		r.bus.Publish(events.DisplaysChanged)
	}
}

// Disconnect marks the entry offline but keeps its snapshot for the admin
// view; the sweep removes it once it goes stale.
func (r *Registry) Disconnect(hostname string) {
	r.mu.Lock()
	d, ok := r.displays[hostname]
	if ok {
		d.Connected = false
	}
	r.mu.Unlock()

	if ok {
		log.Info().Str("hostname", hostname).Msg("display disconnected")
		r.bus.Publish(events.DisplaysChanged)
	}
}

// List returns snapshots with the coordinator's own hostname pinned first
// and the rest alphabetical.
func (r *Registry) List() []model.DisplaySnapshot {
	r.mu.Lock()
	out := make([]model.DisplaySnapshot, 0, len(r.displays))
	for _, d := range r.displays {
		out = append(out, *d)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Hostname == r.self {
			return out[j].Hostname != r.self
		}
		if out[j].Hostname == r.self {
			return false
		}
		return out[i].Hostname < out[j].Hostname
	})
	return out
}

// Count returns the number of known displays.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.displays)
}

// Sweep prunes entries whose last heartbeat is older than StaleAfter.
// Returns the pruned hostnames.
func (r *Registry) Sweep() []string {
	cutoff := r.now().Add(-StaleAfter)

	r.mu.Lock()
	var pruned []string
	for hostname, d := range r.displays {
		if d.LastSeen.Before(cutoff) {
			delete(r.displays, hostname)
			pruned = append(pruned, hostname)
		}
	}
	r.mu.Unlock()

	if len(pruned) > 0 {
		log.Info().Strs("hostnames", pruned).Msg("pruned stale displays")
		r.bus.Publish(events.DisplaysChanged)
		if r.onPrune != nil {
			r.onPrune(pruned)
		}
	}
	return pruned
}

// Run executes the liveness sweep on SweepInterval until done closes.
func (r *Registry) Run(done <-chan struct{}) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Package playlist owns the ordered page collection: validation, atomic
// mutation, effective-list computation, and the pages_changed fan-out.
package playlist

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maxedmini/pi-kiosk/internal/db"
	"github.com/maxedmini/pi-kiosk/internal/events"
	"github.com/maxedmini/pi-kiosk/internal/model"
	"github.com/maxedmini/pi-kiosk/internal/schedule"
)

// ErrInvalid rejects malformed input before any mutation is applied.
var ErrInvalid = errors.New("invalid input")

// AssetCleanup removes the uploaded file behind a deleted image page.
// Failures are logged, not surfaced: the page row is already gone.
type AssetCleanup func(filename string)

// Result is the per-id outcome of a bulk operation.
type Result struct {
	ID  int
	Err error
}

type Store struct {
	mu      sync.Mutex
	db      db.Store
	bus     *events.Bus
	cleanup AssetCleanup
	now     func() time.Time
}

func NewStore(dbStore db.Store, bus *events.Bus, cleanup AssetCleanup) *Store {
	return &Store{
		db:      dbStore,
		bus:     bus,
		cleanup: cleanup,
		now:     time.Now,
	}
}

// PageSpec is the validated input for a new page.
type PageSpec struct {
	Type            string
	URL             string
	Name            string
	Filename        *string
	Duration        int
	Enabled         bool
	DisplayID       *string
	Refresh         bool
	RefreshInterval int
	ScheduleEnabled bool
	ScheduleRanges  model.ScheduleRanges
}

func (s *Store) validateSpec(spec *PageSpec) error {
	switch spec.Type {
	case model.PageTypeURL, model.PageTypeImage:
	default:
		return fmt.Errorf("%w: unknown page type %q", ErrInvalid, spec.Type)
	}
	if spec.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalid)
	}
	if spec.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalid)
	}
	if spec.RefreshInterval < 1 {
		spec.RefreshInterval = 1
	}
	if err := schedule.ValidateRanges(spec.ScheduleRanges); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Add appends a page to the playlist. The store assigns the id and the
// position at the end of the current order.
func (s *Store) Add(spec PageSpec) (model.Page, error) {
	if err := s.validateSpec(&spec); err != nil {
		return model.Page{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	page, err := s.db.CreatePage(model.Page{
		Type:            spec.Type,
		URL:             spec.URL,
		Name:            spec.Name,
		Filename:        spec.Filename,
		Duration:        spec.Duration,
		Enabled:         spec.Enabled,
		DisplayID:       spec.DisplayID,
		Refresh:         spec.Refresh,
		RefreshInterval: spec.RefreshInterval,
		ScheduleEnabled: spec.ScheduleEnabled,
		ScheduleRanges:  spec.ScheduleRanges,
	})
	if err != nil {
		return model.Page{}, err
	}

	s.bus.Publish(events.PagesChanged)
	return s.decorate(page), nil
}

func (s *Store) validateUpdate(upd model.PageUpdate) error {
	if upd.Duration != nil && *upd.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalid)
	}
	if upd.RefreshInterval != nil && *upd.RefreshInterval < 1 {
		return fmt.Errorf("%w: refresh_interval must be at least 1", ErrInvalid)
	}
	if upd.ScheduleRanges != nil {
		if err := schedule.ValidateRanges(*upd.ScheduleRanges); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	return nil
}

func (s *Store) Update(id int, upd model.PageUpdate) (model.Page, error) {
	if err := s.validateUpdate(upd); err != nil {
		return model.Page{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	page, err := s.db.UpdatePage(id, upd)
	if err != nil {
		return model.Page{}, err
	}

	s.bus.Publish(events.PagesChanged)
	return s.decorate(page), nil
}

// Delete removes a page and, for image pages, its uploaded asset.
func (s *Store) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, err := s.db.DeletePage(id)
	if err != nil {
		return err
	}

	s.cleanupAsset(page)
	s.bus.Publish(events.PagesChanged)
	return nil
}

func (s *Store) cleanupAsset(page model.Page) {
	if page.Type != model.PageTypeImage || page.Filename == nil || s.cleanup == nil {
		return
	}
	s.cleanup(*page.Filename)
}

// Reorder applies a new total order. ids must be a permutation of every
// current page id; anything else is rejected with the store untouched.
func (s *Store) Reorder(ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.db.ListPages()
	if err != nil {
		return err
	}
	if len(ids) != len(current) {
		return fmt.Errorf("%w: reorder needs all %d page ids, got %d", ErrInvalid, len(current), len(ids))
	}
	known := make(map[int]bool, len(current))
	for _, p := range current {
		known[p.ID] = true
	}
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !known[id] || seen[id] {
			return fmt.Errorf("%w: reorder ids are not a permutation of the playlist", ErrInvalid)
		}
		seen[id] = true
	}

	if err := s.db.ReorderPages(ids); err != nil {
		return err
	}

	s.bus.Publish(events.PagesChanged)
	return nil
}

// BulkUpdate applies the same partial update to each id in one transaction,
// reporting per-id outcomes rather than failing the whole batch on a
// missing id.
func (s *Store) BulkUpdate(ids []int, upd model.PageUpdate) ([]Result, error) {
	if err := s.validateUpdate(upd); err != nil {
		return nil, err
	}
	if len(ids) == 0 || upd.Empty() {
		return nil, fmt.Errorf("%w: no ids or no updates provided", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	outcomes, err := s.db.BulkUpdatePages(ids, upd)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(ids))
	changed := false
	for i, id := range ids {
		if outcomes[i] == nil {
			changed = true
		}
		results = append(results, Result{ID: id, Err: outcomes[i]})
	}

	if changed {
		s.bus.Publish(events.PagesChanged)
	}
	return results, nil
}

func (s *Store) BulkDelete(ids []int) ([]Result, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no ids provided", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pages, outcomes, err := s.db.BulkDeletePages(ids)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(ids))
	changed := false
	for i, id := range ids {
		if outcomes[i] == nil {
			changed = true
			s.cleanupAsset(pages[i])
		}
		results = append(results, Result{ID: id, Err: outcomes[i]})
	}

	if changed {
		s.bus.Publish(events.PagesChanged)
	}
	return results, nil
}

// List returns every page in order with the computed is_active field.
func (s *Store) List() ([]model.Page, error) {
	pages, err := s.db.ListPages()
	if err != nil {
		return nil, err
	}
	at := s.now()
	out := make([]model.Page, 0, len(pages))
	for _, p := range pages {
		p = s.decorate(p)
		p.IsActive = schedule.PageActive(p, at)
		out = append(out, p)
	}
	return out, nil
}

// Effective returns the list a specific display should cycle through:
// enabled pages assigned to it (or to all displays) whose schedule is
// active now, in playlist order.
func (s *Store) Effective(hostname string) ([]model.Page, error) {
	pages, err := s.db.ListPages()
	if err != nil {
		return nil, err
	}
	at := s.now()
	var out []model.Page
	for _, p := range pages {
		if !p.Enabled {
			continue
		}
		if p.DisplayID != nil && *p.DisplayID != "" && *p.DisplayID != hostname {
			continue
		}
		if !schedule.PageActive(p, at) {
			continue
		}
		p = s.decorate(p)
		p.IsActive = true
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// decorate fills the viewer URL and thumbnail for image pages.
func (s *Store) decorate(p model.Page) model.Page {
	if p.Type == model.PageTypeImage && p.Filename != nil {
		p.URL = "/view/image/" + *p.Filename
		p.Thumbnail = "/uploads/" + *p.Filename
	}
	return p
}

// FallbackPage is what a display shows when its effective list is empty.
func FallbackPage() model.Page {
	return model.Page{
		ID:       0,
		Type:     model.PageTypeImage,
		URL:      "/static/backup.html",
		Name:     "Default",
		Duration: 30,
		Enabled:  true,
	}
}

// WatchSchedules re-broadcasts pages_changed whenever the set of
// schedule-active pages flips, so displays pick up window transitions
// without an admin mutation. Runs until done closes.
func (s *Store) WatchSchedules(done <-chan struct{}, interval time.Duration) {
	var last map[int]bool
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		pages, err := s.db.ListPages()
		if err != nil {
			log.Error().Err(err).Msg("schedule watcher: failed to list pages")
			continue
		}
		at := s.now()
		active := make(map[int]bool, len(pages))
		for _, p := range pages {
			if p.Enabled && schedule.PageActive(p, at) {
				active[p.ID] = true
			}
		}
		if last != nil && !equalSets(last, active) {
			log.Info().Int("active_pages", len(active)).Msg("schedule transition, notifying displays")
			s.bus.Publish(events.PagesChanged)
		}
		last = active
	}
}

func equalSets(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

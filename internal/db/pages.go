package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/maxedmini/pi-kiosk/internal/model"
)

const pageColumns = `id, type, url, name, filename, duration, position, enabled,
	display_id, refresh, refresh_interval, schedule_enabled, schedule_ranges, created_at`

func (s *pgStore) ListPages() ([]model.Page, error) {
	var pages []model.Page
	err := s.db.Select(&pages, `
		SELECT `+pageColumns+`
		FROM pages
		ORDER BY position, id
		`)
	if err != nil {
		log.Error().Err(err).Msg("failed to list pages")
		return nil, err
	}
	return pages, nil
}

func (s *pgStore) GetPageByID(id int) (model.Page, error) {
	var page model.Page
	err := s.db.Get(&page, `
		SELECT `+pageColumns+`
		FROM pages
		WHERE id = $1
		`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Page{}, ErrNotFound
	}
	return page, err
}

// CreatePage inserts p at the end of the playlist. The id and position
// fields of p are ignored and assigned by the store.
func (s *pgStore) CreatePage(p model.Page) (model.Page, error) {
	var created model.Page
	err := s.db.Get(&created, `
		INSERT INTO pages
			(type, url, name, filename, duration, position, enabled,
			 display_id, refresh, refresh_interval, schedule_enabled, schedule_ranges, created_at)
		VALUES
			($1, $2, $3, $4, $5,
			 (SELECT COALESCE(MAX(position), 0) + 1 FROM pages),
			 $6, $7, $8, $9, $10, $11, now())
		RETURNING `+pageColumns+`;
		`,
		p.Type, p.URL, p.Name, p.Filename, p.Duration,
		p.Enabled, p.DisplayID, p.Refresh, p.RefreshInterval,
		p.ScheduleEnabled, p.ScheduleRanges)
	if err != nil {
		log.Error().Err(err).Msg("failed to create page")
		return model.Page{}, err
	}
	return created, nil
}

// rowGetter is satisfied by both *sqlx.DB and *sqlx.Tx, so the single-row
// statements below serve the direct and the transactional paths alike.
type rowGetter interface {
	Get(dest interface{}, query string, args ...interface{}) error
}

func updatePageRow(g rowGetter, id int, upd model.PageUpdate) (model.Page, error) {
	displayID := upd.DisplayID
	setDisplay := upd.DisplayID != nil || upd.ClearDisplayID
	if upd.ClearDisplayID {
		displayID = nil
	}

	var page model.Page
	err := g.Get(&page, `
		UPDATE pages SET
			url              = COALESCE($2, url),
			name             = COALESCE($3, name),
			duration         = COALESCE($4, duration),
			enabled          = COALESCE($5, enabled),
			display_id       = CASE WHEN $6 THEN $7 ELSE display_id END,
			refresh          = COALESCE($8, refresh),
			refresh_interval = COALESCE($9, refresh_interval),
			schedule_enabled = COALESCE($10, schedule_enabled),
			schedule_ranges  = COALESCE($11, schedule_ranges)
		WHERE id = $1
		RETURNING `+pageColumns+`;
		`,
		id, upd.URL, upd.Name, upd.Duration, upd.Enabled,
		setDisplay, displayID, upd.Refresh, upd.RefreshInterval,
		upd.ScheduleEnabled, upd.ScheduleRanges)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Page{}, ErrNotFound
	}
	return page, err
}

func deletePageRow(g rowGetter, id int) (model.Page, error) {
	var page model.Page
	err := g.Get(&page, `
		DELETE FROM pages
		WHERE id = $1
		RETURNING `+pageColumns+`;
		`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Page{}, ErrNotFound
	}
	return page, err
}

func (s *pgStore) UpdatePage(id int, upd model.PageUpdate) (model.Page, error) {
	page, err := updatePageRow(s.db, id, upd)
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Error().Err(err).Int("page_id", id).Msg("failed to update page")
	}
	return page, err
}

// DeletePage removes the page and returns the deleted row so the caller can
// run asset cleanup for image pages.
func (s *pgStore) DeletePage(id int) (model.Page, error) {
	page, err := deletePageRow(s.db, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Error().Err(err).Int("page_id", id).Msg("failed to delete page")
	}
	return page, err
}

// BulkUpdatePages applies upd to every id inside one transaction. A missing
// id is reported in its outcome slot; any other failure rolls the whole
// batch back.
func (s *pgStore) BulkUpdatePages(ids []int, upd model.PageUpdate) ([]error, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("begin bulk update: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	outcomes := make([]error, len(ids))
	for i, id := range ids {
		_, err := updatePageRow(tx, id, upd)
		if errors.Is(err, ErrNotFound) {
			outcomes[i] = ErrNotFound
			continue
		}
		if err != nil {
			log.Error().Err(err).Int("page_id", id).Msg("failed to bulk-update page")
			return nil, fmt.Errorf("bulk update page %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk update: %w", err)
	}
	return outcomes, nil
}

// BulkDeletePages removes every id inside one transaction, returning the
// deleted rows (aligned with ids) so the caller can run asset cleanup.
func (s *pgStore) BulkDeletePages(ids []int) ([]model.Page, []error, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, nil, fmt.Errorf("begin bulk delete: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	pages := make([]model.Page, len(ids))
	outcomes := make([]error, len(ids))
	for i, id := range ids {
		page, err := deletePageRow(tx, id)
		if errors.Is(err, ErrNotFound) {
			outcomes[i] = ErrNotFound
			continue
		}
		if err != nil {
			log.Error().Err(err).Int("page_id", id).Msg("failed to bulk-delete page")
			return nil, nil, fmt.Errorf("bulk delete page %d: %w", id, err)
		}
		pages[i] = page
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit bulk delete: %w", err)
	}
	return pages, outcomes, nil
}

// ReorderPages rewrites positions in a single transaction so readers never
// observe a half-applied reorder. The caller validates that ids is a
// permutation of the current playlist.
func (s *pgStore) ReorderPages(ids []int) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for position, id := range ids {
		if _, err := tx.Exec(`UPDATE pages SET position = $1 WHERE id = $2`, position, id); err != nil {
			log.Error().Err(err).Int("page_id", id).Msg("failed to reorder page")
			return fmt.Errorf("reorder page %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

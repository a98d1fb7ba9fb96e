package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	PageTypeURL   = "url"
	PageTypeImage = "image"
)

// TimeRange is a time-of-day window. Start > End means the window wraps
// past midnight; Start == End means the full day.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ScheduleRanges is stored as a jsonb column.
type ScheduleRanges []TimeRange

func (s ScheduleRanges) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schedule ranges: %w", err)
	}
	return string(b), nil
}

func (s *ScheduleRanges) Scan(src any) error {
	if src == nil {
		*s = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("scan schedule ranges: unsupported type %T", src)
	}
	if len(b) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(b, s)
}

// Page is a single playlist entry: a URL to cycle through or an uploaded
// image served through the viewer URL. DisplayID is nil for pages assigned
// to every display.
type Page struct {
	ID              int            `db:"id"               json:"id"`
	Type            string         `db:"type"             json:"type"`
	URL             string         `db:"url"              json:"url"`
	Name            string         `db:"name"             json:"name"`
	Filename        *string        `db:"filename"         json:"filename,omitempty"`
	Duration        int            `db:"duration"         json:"duration"`
	Position        int            `db:"position"         json:"position"`
	Enabled         bool           `db:"enabled"          json:"enabled"`
	DisplayID       *string        `db:"display_id"       json:"display_id"`
	Refresh         bool           `db:"refresh"          json:"refresh"`
	RefreshInterval int            `db:"refresh_interval" json:"refresh_interval"`
	ScheduleEnabled bool           `db:"schedule_enabled" json:"schedule_enabled"`
	ScheduleRanges  ScheduleRanges `db:"schedule_ranges"  json:"schedule_ranges"`
	CreatedAt       time.Time      `db:"created_at"       json:"created_at"`

	// Computed for API responses, never persisted.
	IsActive  bool   `db:"-" json:"is_active"`
	Thumbnail string `db:"-" json:"thumbnail,omitempty"`
}

// PageUpdate carries the partial fields of an update; nil means unchanged.
type PageUpdate struct {
	URL             *string         `json:"url,omitempty"`
	Name            *string         `json:"name,omitempty"`
	Duration        *int            `json:"duration,omitempty"`
	Enabled         *bool           `json:"enabled,omitempty"`
	DisplayID       *string         `json:"display_id,omitempty"`
	ClearDisplayID  bool            `json:"clear_display_id,omitempty"`
	Refresh         *bool           `json:"refresh,omitempty"`
	RefreshInterval *int            `json:"refresh_interval,omitempty"`
	ScheduleEnabled *bool           `json:"schedule_enabled,omitempty"`
	ScheduleRanges  *ScheduleRanges `json:"schedule_ranges,omitempty"`
}

// Empty reports whether the update would change nothing.
func (u PageUpdate) Empty() bool {
	return u.URL == nil && u.Name == nil && u.Duration == nil &&
		u.Enabled == nil && u.DisplayID == nil && !u.ClearDisplayID &&
		u.Refresh == nil && u.RefreshInterval == nil &&
		u.ScheduleEnabled == nil && u.ScheduleRanges == nil
}

package packets

import "github.com/maxedmini/pi-kiosk/internal/model"

type CreatePageRequest struct {
	URL             string               `json:"url" binding:"required"`
	Name            string               `json:"name"`
	Duration        *int                 `json:"duration"`
	Enabled         *bool                `json:"enabled"`
	DisplayID       *string              `json:"display_id"`
	Refresh         bool                 `json:"refresh"`
	RefreshInterval int                  `json:"refresh_interval"`
	ScheduleEnabled bool                 `json:"schedule_enabled"`
	ScheduleRanges  model.ScheduleRanges `json:"schedule_ranges"`
}

type UpdatePageRequest struct {
	URL             *string               `json:"url"`
	Name            *string               `json:"name"`
	Duration        *int                  `json:"duration"`
	Enabled         *bool                 `json:"enabled"`
	DisplayID       *string               `json:"display_id"`
	ClearDisplayID  bool                  `json:"clear_display_id"`
	Refresh         *bool                 `json:"refresh"`
	RefreshInterval *int                  `json:"refresh_interval"`
	ScheduleEnabled *bool                 `json:"schedule_enabled"`
	ScheduleRanges  *model.ScheduleRanges `json:"schedule_ranges"`
}

// ToUpdate converts the request body to the store's partial update.
func (r UpdatePageRequest) ToUpdate() model.PageUpdate {
	return model.PageUpdate{
		URL:             r.URL,
		Name:            r.Name,
		Duration:        r.Duration,
		Enabled:         r.Enabled,
		DisplayID:       r.DisplayID,
		ClearDisplayID:  r.ClearDisplayID,
		Refresh:         r.Refresh,
		RefreshInterval: r.RefreshInterval,
		ScheduleEnabled: r.ScheduleEnabled,
		ScheduleRanges:  r.ScheduleRanges,
	}
}

type ReorderRequest struct {
	Order []int `json:"order" binding:"required"`
}

type BulkUpdateRequest struct {
	IDs     []int             `json:"ids" binding:"required"`
	Updates UpdatePageRequest `json:"updates"`
}

type BulkDeleteRequest struct {
	IDs []int `json:"ids" binding:"required"`
}

type ControlRequest struct {
	Action    string  `json:"action" binding:"required"`
	DisplayID *string `json:"display_id"`
	PageID    *int    `json:"page_id"`
}

type SyncRequest struct {
	PageID  *int `json:"page_id"`
	DelayMs *int `json:"delay_ms"`
	Reload  bool `json:"reload"`
}

type SyncSettingRequest struct {
	SyncEnabled *bool `json:"sync_enabled" binding:"required"`
}

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

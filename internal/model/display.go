package model

import "time"

// DisplaySnapshot is the registry's view of one kiosk, served to the
// administrative API. The fleet is ephemeral: snapshots are rebuilt from
// reconnections after a restart.
type DisplaySnapshot struct {
	Hostname      string    `json:"hostname"`
	Address       string    `json:"ip"`
	Connected     bool      `json:"connected"`
	CurrentPageID *int      `json:"current_page_id"`
	CurrentURL    *string   `json:"current_url"`
	CurrentIndex  int       `json:"current_index"`
	TotalPages    int       `json:"total_pages"`
	Paused        bool      `json:"paused"`
	AdminMode     bool      `json:"admin_mode_active"`
	ScreenshotURL string    `json:"screenshot_url,omitempty"`
	Health        Health    `json:"health"`
	LastSeen      time.Time `json:"last_seen"`
}

// Health holds the metrics a kiosk reports alongside its status heartbeat.
type Health struct {
	TempC       *float64 `json:"temp_c,omitempty"`
	MemTotalMB  *int     `json:"mem_total_mb,omitempty"`
	MemFreeMB   *int     `json:"mem_free_mb,omitempty"`
	UptimeSec   *int64   `json:"uptime_sec,omitempty"`
	WifiRSSIDbm *int     `json:"wifi_rssi_dbm,omitempty"`
}

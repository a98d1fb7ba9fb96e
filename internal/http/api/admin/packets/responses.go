package packets

type BulkResultResponse struct {
	ID      int    `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type ControlResponse struct {
	Success bool   `json:"success"`
	Action  string `json:"action"`
}

type SyncResponse struct {
	Success bool    `json:"success"`
	SyncAt  float64 `json:"sync_at"`
}

type SyncSettingResponse struct {
	SyncEnabled bool `json:"sync_enabled"`
}

type StatusResponse struct {
	Displays int    `json:"displays"`
	Hostname string `json:"hostname"`
	IP       string `json:"ip"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}

type UploadScreenshotResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

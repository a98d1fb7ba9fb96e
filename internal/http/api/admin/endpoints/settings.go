package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxedmini/pi-kiosk/internal/http/api"
	"github.com/maxedmini/pi-kiosk/internal/http/api/admin/packets"
	"github.com/maxedmini/pi-kiosk/internal/settings"
)

type SettingsController struct{}

func SettingsModule() api.Module {
	ctl := &SettingsController{}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/settings/sync", ctl.getSync)
		c.POST("/settings/sync", ctl.setSync)
	})
}

func (s *SettingsController) getSync(ctx *gin.Context) (any, *api.APIError) {
	return packets.SyncSettingResponse{
		SyncEnabled: settings.SyncEnabled(ctx.Request.Context()),
	}, nil
}

func (s *SettingsController) setSync(ctx *gin.Context) (any, *api.APIError) {
	var req packets.SyncSettingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.SyncEnabled == nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "sync_enabled is required"}
	}
	if err := settings.SetSyncEnabled(ctx.Request.Context(), *req.SyncEnabled); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to persist setting"}
	}
	return packets.SyncSettingResponse{SyncEnabled: *req.SyncEnabled}, nil
}

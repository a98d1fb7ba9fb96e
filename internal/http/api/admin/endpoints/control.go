package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxedmini/pi-kiosk/internal/http/api"
	"github.com/maxedmini/pi-kiosk/internal/http/api/admin/packets"
	"github.com/maxedmini/pi-kiosk/internal/rotation"
)

type ControlController struct {
	engine *rotation.Engine
}

// ControlModule mounts the rotation control endpoint. An empty display_id
// targets every display; an unknown one is accepted as a no-op so that
// commands racing a disconnect do not surface as failures.
func ControlModule(engine *rotation.Engine) api.Module {
	ctl := &ControlController{engine: engine}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/control", ctl.control)
	})
}

func (c *ControlController) control(ctx *gin.Context) (any, *api.APIError) {
	var req packets.ControlRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid request body"}
	}
	if !rotation.ValidAction(req.Action) {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "unknown action"}
	}
	if req.Action == rotation.ActionGoto && req.PageID == nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "goto requires page_id"}
	}

	target := ""
	if req.DisplayID != nil {
		target = *req.DisplayID
	}
	c.engine.Apply(target, rotation.Command{Action: req.Action, PageID: req.PageID})

	return packets.ControlResponse{Success: true, Action: req.Action}, nil
}

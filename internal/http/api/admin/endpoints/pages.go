package endpoints

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/maxedmini/pi-kiosk/internal/db"
	"github.com/maxedmini/pi-kiosk/internal/http/api"
	"github.com/maxedmini/pi-kiosk/internal/http/api/admin/packets"
	"github.com/maxedmini/pi-kiosk/internal/model"
	"github.com/maxedmini/pi-kiosk/internal/playlist"
)

type PagesController struct {
	store *playlist.Store
}

func newPagesController(store *playlist.Store) *PagesController {
	return &PagesController{store: store}
}

// PagesModule mounts the playlist CRUD endpoints.
func PagesModule(store *playlist.Store) api.Module {
	ctl := newPagesController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/pages", ctl.listPages)
		c.POST("/pages", ctl.addPage)
		c.GET("/pages/:id", ctl.getPage)
		c.PUT("/pages/:id", ctl.updatePage)
		c.DELETE("/pages/:id", ctl.deletePage)

		c.POST("/pages/reorder", ctl.reorderPages)
		c.PUT("/pages/bulk", ctl.bulkUpdate)
		c.DELETE("/pages/bulk", ctl.bulkDelete)
	})
}

// storeError maps store failures onto the API error taxonomy.
func storeError(err error) *api.APIError {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return &api.APIError{Code: http.StatusNotFound, Message: "page not found"}
	case errors.Is(err, playlist.ErrInvalid):
		return &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	default:
		log.Error().Err(err).Msg("[pages] store failure")
		return &api.APIError{Code: http.StatusInternalServerError, Message: "internal error"}
	}
}

func (p *PagesController) listPages(ctx *gin.Context) (any, *api.APIError) {
	if hostname := ctx.Query("display_id"); hostname != "" {
		pages, err := p.store.Effective(hostname)
		if err != nil {
			return nil, storeError(err)
		}
		return pages, nil
	}

	pages, err := p.store.List()
	if err != nil {
		return nil, storeError(err)
	}
	return pages, nil
}

func (p *PagesController) addPage(ctx *gin.Context) (any, *api.APIError) {
	var req packets.CreatePageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	spec := playlist.PageSpec{
		Type:            model.PageTypeURL,
		URL:             req.URL,
		Name:            req.Name,
		Duration:        30,
		Enabled:         true,
		DisplayID:       req.DisplayID,
		Refresh:         req.Refresh,
		RefreshInterval: req.RefreshInterval,
		ScheduleEnabled: req.ScheduleEnabled,
		ScheduleRanges:  req.ScheduleRanges,
	}
	if req.Duration != nil {
		spec.Duration = *req.Duration
	}
	if req.Enabled != nil {
		spec.Enabled = *req.Enabled
	}

	page, err := p.store.Add(spec)
	if err != nil {
		return nil, storeError(err)
	}
	return page, nil
}

func pageID(ctx *gin.Context) (int, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	return id, nil
}

func (p *PagesController) getPage(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := pageID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	pages, err := p.store.List()
	if err != nil {
		return nil, storeError(err)
	}
	for _, page := range pages {
		if page.ID == id {
			return page, nil
		}
	}
	return nil, &api.APIError{Code: http.StatusNotFound, Message: "page not found"}
}

func (p *PagesController) updatePage(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := pageID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.UpdatePageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	page, err := p.store.Update(id, req.ToUpdate())
	if err != nil {
		return nil, storeError(err)
	}
	return page, nil
}

func (p *PagesController) deletePage(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := pageID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := p.store.Delete(id); err != nil {
		return nil, storeError(err)
	}
	return packets.DeleteResponse{Success: true}, nil
}

func (p *PagesController) reorderPages(ctx *gin.Context) (any, *api.APIError) {
	var req packets.ReorderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := p.store.Reorder(req.Order); err != nil {
		return nil, storeError(err)
	}
	return packets.DeleteResponse{Success: true}, nil
}

func bulkResults(results []playlist.Result) []packets.BulkResultResponse {
	out := make([]packets.BulkResultResponse, 0, len(results))
	for _, r := range results {
		resp := packets.BulkResultResponse{ID: r.ID, Success: r.Err == nil}
		if r.Err != nil {
			resp.Error = r.Err.Error()
		}
		out = append(out, resp)
	}
	return out
}

func (p *PagesController) bulkUpdate(ctx *gin.Context) (any, *api.APIError) {
	var req packets.BulkUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	results, err := p.store.BulkUpdate(req.IDs, req.Updates.ToUpdate())
	if err != nil {
		return nil, storeError(err)
	}
	return bulkResults(results), nil
}

func (p *PagesController) bulkDelete(ctx *gin.Context) (any, *api.APIError) {
	var req packets.BulkDeleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	results, err := p.store.BulkDelete(req.IDs)
	if err != nil {
		return nil, storeError(err)
	}
	return bulkResults(results), nil
}

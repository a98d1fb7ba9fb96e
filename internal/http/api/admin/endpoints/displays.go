package endpoints

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/maxedmini/pi-kiosk/internal/events"
	"github.com/maxedmini/pi-kiosk/internal/fleet"
	"github.com/maxedmini/pi-kiosk/internal/http/api"
	"github.com/maxedmini/pi-kiosk/internal/http/api/admin/packets"
	"github.com/maxedmini/pi-kiosk/internal/playlist"
	"github.com/maxedmini/pi-kiosk/internal/rotation"
	"github.com/maxedmini/pi-kiosk/internal/settings"
	"github.com/maxedmini/pi-kiosk/internal/storage"
)

type DisplaysController struct {
	registry *fleet.Registry
	store    *playlist.Store
	sync     *rotation.SyncCoordinator
	bus      *events.Bus
	uploads  storage.Storage
}

// DisplaysModule mounts the administrative fleet endpoints.
func DisplaysModule(registry *fleet.Registry, sync *rotation.SyncCoordinator, bus *events.Bus) api.Module {
	ctl := &DisplaysController{registry: registry, sync: sync, bus: bus}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/displays", ctl.listDisplays)
		c.POST("/displays/sync", ctl.syncDisplays)
	})
}

// KioskModule mounts the endpoints kiosks themselves call over plain HTTP:
// the ETag-cached effective list poll and the screenshot upload. Kiosks
// hold no admin token, so these stay outside the JWT group.
func KioskModule(registry *fleet.Registry, store *playlist.Store, uploads storage.Storage) api.Module {
	ctl := &DisplaysController{registry: registry, store: store, uploads: uploads}
	return api.ModuleFunc(func(c *api.Controller) {
		c.Raw(http.MethodGet, "/displays/:hostname/pages", ctl.displayPages)
		c.POST("/displays/screenshot", ctl.uploadScreenshot)
	})
}

func (d *DisplaysController) listDisplays(ctx *gin.Context) (any, *api.APIError) {
	return d.registry.List(), nil
}

// displayPages serves a display's effective list with an ETag so kiosks
// polling over plain HTTP (no websocket) can cheaply confirm nothing
// changed. The tag is cached in redis and invalidated on playlist changes.
func (d *DisplaysController) displayPages(ctx *gin.Context) {
	hostname := ctx.Param("hostname")

	if cached := settings.EffectiveETag(ctx.Request.Context(), hostname); cached != "" {
		if match := ctx.GetHeader("If-None-Match"); match != "" && match == cached {
			ctx.Header("ETag", cached)
			ctx.Status(http.StatusNotModified)
			return
		}
	}

	pages, err := d.store.Effective(hostname)
	if err != nil {
		log.Error().Err(err).Str("hostname", hostname).Msg("[displays] failed to load effective list")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pages"})
		return
	}
	if len(pages) == 0 {
		pages = append(pages, playlist.FallbackPage())
	}

	body, err := json.Marshal(pages)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode pages"})
		return
	}
	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`
	settings.SetEffectiveETag(ctx.Request.Context(), hostname, etag)

	ctx.Header("ETag", etag)
	if match := ctx.GetHeader("If-None-Match"); match != "" && match == etag {
		ctx.Status(http.StatusNotModified)
		return
	}
	ctx.Data(http.StatusOK, "application/json", body)
}

func (d *DisplaysController) uploadScreenshot(ctx *gin.Context) (any, *api.APIError) {
	hostname := ctx.PostForm("hostname")
	if hostname == "" {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "hostname is required"}
	}
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "no file provided"}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "file type not allowed"}
	}

	// One screenshot per display, overwritten in place.
	filename := "screenshots/" + hostname + ext
	url, err := d.uploads.SaveFile(fileHeader, filename)
	if err != nil {
		log.Error().Err(err).Str("hostname", hostname).Msg("[displays] screenshot upload failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to store screenshot"}
	}
	d.registry.SetScreenshot(hostname, url)

	return packets.UploadScreenshotResponse{Success: true, URL: url}, nil
}

func (d *DisplaysController) syncDisplays(ctx *gin.Context) (any, *api.APIError) {
	var req packets.SyncRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid request body"}
		}
	}
	delayMs := 2000
	if req.DelayMs != nil {
		delayMs = *req.DelayMs
	}
	// reload pushes fresh page lists out before the agreed jump, so every
	// display lands on the same content, not just the same index.
	if req.Reload {
		d.bus.Publish(events.PagesChanged)
	}
	syncAt := d.sync.SyncAll(req.PageID, delayMs)
	return packets.SyncResponse{
		Success: true,
		SyncAt:  float64(syncAt.UnixMilli()) / 1000.0,
	}, nil
}

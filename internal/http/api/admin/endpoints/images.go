package endpoints

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/maxedmini/pi-kiosk/internal/http/api"
	"github.com/maxedmini/pi-kiosk/internal/model"
	"github.com/maxedmini/pi-kiosk/internal/playlist"
	"github.com/maxedmini/pi-kiosk/internal/storage"
)

var allowedImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

type ImagesController struct {
	store   *playlist.Store
	uploads storage.Storage
}

// ImagesModule mounts the image upload endpoint: a multipart upload that
// stores the asset and appends an image page to the playlist.
func ImagesModule(store *playlist.Store, uploads storage.Storage) api.Module {
	ctl := &ImagesController{store: store, uploads: uploads}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/images", ctl.uploadImage)
	})
}

func (i *ImagesController) uploadImage(ctx *gin.Context) (any, *api.APIError) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "no file provided"}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedImageExts[ext] {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "file type not allowed"}
	}

	filename := uuid.NewString() + ext
	if _, err := i.uploads.SaveFile(fileHeader, filename); err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("[images] upload failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to store upload"}
	}

	name := ctx.PostForm("name")
	if name == "" {
		name = fileHeader.Filename
	}
	duration := 30
	if v, err := strconv.Atoi(ctx.PostForm("duration")); err == nil {
		duration = v
	}
	var displayID *string
	if v := ctx.PostForm("display_id"); v != "" {
		displayID = &v
	}
	refreshInterval := 1
	if v, err := strconv.Atoi(ctx.PostForm("refresh_interval")); err == nil {
		refreshInterval = v
	}
	var ranges model.ScheduleRanges
	if raw := ctx.PostForm("schedule_ranges"); raw != "" {
		if err := ranges.Scan(raw); err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid schedule_ranges"}
		}
	}

	page, err := i.store.Add(playlist.PageSpec{
		Type:            model.PageTypeImage,
		URL:             "/view/image/" + filename,
		Name:            name,
		Filename:        &filename,
		Duration:        duration,
		Enabled:         true,
		DisplayID:       displayID,
		Refresh:         formBool(ctx, "refresh"),
		RefreshInterval: refreshInterval,
		ScheduleEnabled: formBool(ctx, "schedule_enabled"),
		ScheduleRanges:  ranges,
	})
	if err != nil {
		// The page row never existed; don't leave the asset orphaned.
		if cleanupErr := i.uploads.DeleteFile(filename); cleanupErr != nil {
			log.Warn().Err(cleanupErr).Str("filename", filename).Msg("[images] orphan cleanup failed")
		}
		return nil, storeError(err)
	}
	return page, nil
}

func formBool(ctx *gin.Context, field string) bool {
	switch strings.ToLower(ctx.PostForm(field)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/maxedmini/pi-kiosk/internal/events"
	"github.com/maxedmini/pi-kiosk/internal/fleet"
	"github.com/maxedmini/pi-kiosk/internal/http/api"
	adminapi "github.com/maxedmini/pi-kiosk/internal/http/api/admin/endpoints"
	displayapi "github.com/maxedmini/pi-kiosk/internal/http/api/display"
	"github.com/maxedmini/pi-kiosk/internal/hub"
	"github.com/maxedmini/pi-kiosk/internal/playlist"
	"github.com/maxedmini/pi-kiosk/internal/rotation"
	"github.com/maxedmini/pi-kiosk/internal/storage"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(
	r *gin.Engine,
	env Environment,
	bus *events.Bus,
	store *playlist.Store,
	registry *fleet.Registry,
	engine *rotation.Engine,
	sync *rotation.SyncCoordinator,
	h *hub.Hub,
	gateway *displayapi.Gateway,
	storageSystem storage.Storage,
) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"ETag",
		},
		AllowCredentials: false,
	}))

	// Kiosk-facing endpoints stay public: displays hold no admin token.
	publicModules := []api.Module{
		adminapi.KioskModule(registry, store, storageSystem),
	}
	if env.AuthEnabled() {
		publicModules = append(publicModules, adminapi.AuthModule(env.SecretKey, env.AdminPasswordHash))
	}
	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
		Auth:   false,
	}, publicModules...)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api",
		Auth:      env.AuthEnabled(),
		SecretKey: env.SecretKey,
	},
		adminapi.PagesModule(store),
		adminapi.ImagesModule(store, storageSystem),
		adminapi.DisplaysModule(registry, sync, bus),
		adminapi.ControlModule(engine),
		adminapi.SettingsModule(),
		adminapi.SystemModule(registry),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/ws",
	},
		displayapi.WSModule(h, gateway),
	)

	// Static content
	registerImageViewer(r)
	r.Static("/static", "./static")
	if !env.UseSpaces {
		r.Static("/uploads", env.UploadDir)
	}
}

package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/maxedmini/pi-kiosk/internal/http/middleware"
)

// Module is one feature's slice of the HTTP surface. Each endpoints file
// exposes a constructor returning a Module; routes.go decides which group
// (public, admin, websocket) each one lands in.
type Module interface {
	Mount(c *Controller)
}

// ModuleFunc adapts a plain function to Module.
type ModuleFunc func(c *Controller)

func (f ModuleFunc) Mount(c *Controller) { f(c) }

// GroupConfig describes a route group: its URL prefix, whether requests
// must carry an admin JWT, and any extra middleware run before auth.
type GroupConfig struct {
	Prefix     string
	Auth       bool
	SecretKey  string // required when Auth is set
	Middleware []gin.HandlerFunc
}

// MountGroup attaches modules under a shared group. Misconfiguration is
// fatal: the route table is fixed at startup, so failing late would just
// serve unauthenticated endpoints.
func MountGroup(parent gin.IRoutes, cfg GroupConfig, modules ...Module) {
	var grp *gin.RouterGroup

	switch v := parent.(type) {
	case *gin.Engine:
		grp = v.Group(cfg.Prefix)
	case *gin.RouterGroup:
		if cfg.Prefix != "" {
			grp = v.Group(cfg.Prefix)
		} else {
			grp = v
		}
	default:
		log.Fatal().Str("type", fmt.Sprintf("%T", parent)).Msg("api.MountGroup: unsupported router type")
	}

	// Custom middleware first, then the JWT gate.
	for _, mw := range cfg.Middleware {
		grp.Use(mw)
	}
	if cfg.Auth {
		if cfg.SecretKey == "" {
			log.Fatal().Msg("api.MountGroup: Auth enabled but SecretKey is empty")
		}
		grp.Use(middleware.JWTMiddleware(cfg.SecretKey))
	}

	controller := &Controller{Group: grp}

	for _, m := range modules {
		m.Mount(controller)
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/maxedmini/pi-kiosk/internal/db"
	"github.com/maxedmini/pi-kiosk/internal/events"
	"github.com/maxedmini/pi-kiosk/internal/fleet"
	displayapi "github.com/maxedmini/pi-kiosk/internal/http/api/display"
	"github.com/maxedmini/pi-kiosk/internal/hub"
	"github.com/maxedmini/pi-kiosk/internal/mqtt"
	"github.com/maxedmini/pi-kiosk/internal/playlist"
	"github.com/maxedmini/pi-kiosk/internal/rotation"
	"github.com/maxedmini/pi-kiosk/internal/settings"
)

const scheduleCheckInterval = 30 * time.Second

func main() {
	env := LoadEnvironment()

	if env.Environment != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := db.Init(env.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init failed")
	}
	if err := db.RunMigrations(env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	if env.RedisAddress != "" {
		settings.InitRedis(env.RedisAddress, env.RedisUsername, env.RedisPassword)
	}

	storageSystem := InitStorage(env)

	bridge, err := mqtt.NewBridge(env.MQTTBrokerURL, "pi-kiosk-coordinator")
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt bridge init failed")
	}
	defer bridge.Close()

	bus := events.NewBus()
	h := hub.NewHub()
	fan := &fanout{hub: h, bridge: bridge}

	store := playlist.NewStore(db.NewStore(), bus, func(filename string) {
		if err := storageSystem.DeleteFile(filename); err != nil {
			log.Warn().Err(err).Str("filename", filename).Msg("failed to delete page asset")
		}
	})
	registry := fleet.NewRegistry(env.SelfHostname, bus)
	engine := rotation.NewEngine(store, fan)
	syncCoordinator := rotation.NewSyncCoordinator(engine, fan, func() bool {
		return settings.SyncEnabled(context.Background())
	})
	gateway := displayapi.NewGateway(h, registry, engine)

	// A pruned display may come back later; its rotation state starts over.
	registry.OnPrune(func(hostnames []string) {
		for _, hostname := range hostnames {
			engine.Forget(hostname)
		}
	})

	// Change events fan out after the mutation commits: the engine reloads
	// its effective lists first so a display that re-pulls on the
	// notification sees the same state the engine holds.
	bus.Subscribe(func(event string) {
		switch event {
		case events.PagesChanged:
			engine.RefreshEffective()
			hostnames := make([]string, 0)
			for _, d := range registry.List() {
				hostnames = append(hostnames, d.Hostname)
			}
			settings.InvalidateETags(context.Background(), hostnames)
			fan.BroadcastEvent(events.PagesChanged, nil)
		case events.DisplaysChanged:
			h.BroadcastEvent(events.DisplaysChanged, nil)
		}
	})

	done := make(chan struct{})
	go registry.Run(done)
	go store.WatchSchedules(done, scheduleCheckInterval)

	r := gin.Default()
	RegisterRoutes(r, env, bus, store, registry, engine, syncCoordinator, h, gateway, storageSystem)

	srv := &http.Server{
		Addr:    env.ServerAddress,
		Handler: r,
	}

	go func() {
		log.Info().Str("address", env.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

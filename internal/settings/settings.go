// Package settings keeps the small pieces of coordinator state that live in
// Redis: the fleet-wide sync mode flag and the per-display effective-list
// ETags that let kiosks skip re-fetching an unchanged playlist.
package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	syncEnabledKey = "settings:sync_enabled"
	etagTTL        = 24 * time.Hour
)

var Rdb *redis.Client

func InitRedis(redisAddress, redisUsername, redisPassword string) {
	Rdb = redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})
}

// SyncEnabled reads the sync mode flag; missing key or Redis trouble
// defaults to enabled.
func SyncEnabled(ctx context.Context) bool {
	if Rdb == nil {
		return true
	}
	val, err := Rdb.Get(ctx, syncEnabledKey).Result()
	if errors.Is(err, redis.Nil) {
		return true
	}
	if err != nil {
		log.Warn().Err(err).Msg("failed to read sync setting, defaulting to enabled")
		return true
	}
	return val != "0"
}

func SetSyncEnabled(ctx context.Context, enabled bool) error {
	if Rdb == nil {
		return nil
	}
	val := "1"
	if !enabled {
		val = "0"
	}
	if err := Rdb.Set(ctx, syncEnabledKey, val, 0).Err(); err != nil {
		return fmt.Errorf("failed to store sync setting: %w", err)
	}
	return nil
}

func etagKey(hostname string) string {
	return fmt.Sprintf("display:%s:etag", hostname)
}

// EffectiveETag returns the cached ETag of a display's effective list,
// empty when unknown.
func EffectiveETag(ctx context.Context, hostname string) string {
	if Rdb == nil {
		return ""
	}
	val, err := Rdb.Get(ctx, etagKey(hostname)).Result()
	if err != nil {
		return ""
	}
	return val
}

func SetEffectiveETag(ctx context.Context, hostname, etag string) {
	if Rdb == nil {
		return
	}
	if err := Rdb.Set(ctx, etagKey(hostname), etag, etagTTL).Err(); err != nil {
		log.Warn().Err(err).Str("hostname", hostname).Msg("failed to cache effective-list ETag")
	}
}

// InvalidateETags drops the cached ETags for the given displays after a
// playlist mutation.
func InvalidateETags(ctx context.Context, hostnames []string) {
	if Rdb == nil || len(hostnames) == 0 {
		return
	}
	keys := make([]string, len(hostnames))
	for i, h := range hostnames {
		keys[i] = etagKey(h)
	}
	if err := Rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate effective-list ETags")
		return
	}
	log.Debug().Int("displays", len(hostnames)).Msg("invalidated effective-list ETags")
}

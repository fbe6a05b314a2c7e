package cache

import (
	"fmt"

	"github.com/artpro/wealthtrack/pkg/config"
	"github.com/rs/zerolog"
)

// Open builds the cache described by the configuration
func Open(cfg *config.Config, logger zerolog.Logger) (*Cache, error) {
	var store Store
	var err error

	switch cfg.CacheDriver {
	case "leveldb", "file":
		store, err = NewLevelDB(cfg.CacheDir)
	case "redis":
		store, err = NewRedis(cfg.RedisURL)
	case "memory", "":
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.CacheDriver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info().Str("driver", cfg.CacheDriver).Msg("Cache initialized")
	return New(cfg.CacheLocalSize, store, cfg.CacheTTL, logger.With().Str("component", "cache").Logger())
}

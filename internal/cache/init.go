package cache

import (
	"github.com/tradeflowhq/tradeflow/internal/config"
	"github.com/tradeflowhq/tradeflow/internal/logger"
)

// CacheType selects the cache backend.
type CacheType string

const (
	CacheTypeInMemory CacheType = "inmemory"
	CacheTypeRedis    CacheType = "redis"
)

// Initialize builds the configured cache backend. Unknown types fall back
// to the in-memory cache.
func Initialize(cfg *config.Configuration, log *logger.Logger) Cache {
	log.Infow("initializing cache", "type", cfg.Cache.Type, "enabled", cfg.Cache.Enabled)

	switch CacheType(cfg.Cache.Type) {
	case CacheTypeRedis:
		return NewRedisCache(cfg, log)
	default:
		return NewInMemoryCache(cfg)
	}
}
